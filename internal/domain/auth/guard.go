package auth

// Decision is the outcome of a route guard evaluation.
type Decision int

const (
	// Allow lets the navigation proceed.
	Allow Decision = iota
	// RedirectLogin sends the client to the login page: no usable access
	// token is present.
	RedirectLogin
	// RedirectUnauthorized sends the client to the unauthorized page: a
	// token exists but the role does not grant access to this subtree.
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// Decide evaluates whether a session holding cred may enter a route subtree
// requiring one of the given roles. It is a pure function of its inputs and
// must be called fresh on every navigation: the credential can change
// between navigations (logout elsewhere, expired token), so a cached
// decision would go stale.
func Decide(required RoleSet, cred *Credential) Decision {
	if cred == nil || cred.AccessToken == "" {
		return RedirectLogin
	}
	role := NormalizeRole(string(cred.Role))
	if role == RoleUnauthorized {
		return RedirectUnauthorized
	}
	if required.Contains(role) {
		return Allow
	}
	return RedirectUnauthorized
}
