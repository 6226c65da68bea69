package auth

// Credential is the token pair plus normalized role held for one browser
// session. It is always written and cleared as a single value: an access
// token without a role, or a role without a token, must never be observable.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         Role   `json:"role"`
}

// Valid reports whether the credential satisfies the pairing invariant and
// carries a recognized role. A zero credential is not valid.
func (c Credential) Valid() bool {
	if c.AccessToken == "" || c.Role == "" {
		return false
	}
	return NormalizeRole(string(c.Role)) != RoleUnauthorized
}

// PendingOTPChallenge records that a login attempt requires a one-time
// passcode before a credential can be issued. It never coexists with a
// valid Credential for the same session.
type PendingOTPChallenge struct {
	Email string `json:"email"`
}
