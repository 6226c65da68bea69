package auth

import "strings"

// Role is the normalized role used for all routing and authorization
// decisions. Upstream systems emit free-text role strings ("Distributor",
// "base user", " Customer ") which must pass through NormalizeRole before
// they are stored or compared.
type Role string

const (
	RoleDistributor  Role = "distributor"
	RoleCustomer     Role = "customer"
	RoleUnauthorized Role = "unauthorized"
)

// NormalizeRole reduces a free-text role string to one of the three
// normalized roles. It is total (never fails) and idempotent: feeding its
// output back in yields the same value. The legacy "base user" spelling
// maps to customer.
func NormalizeRole(raw string) Role {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "base user" {
		s = string(RoleCustomer)
	}
	switch Role(s) {
	case RoleDistributor, RoleCustomer:
		return Role(s)
	default:
		return RoleUnauthorized
	}
}

// RoleSet is the set of roles allowed to enter a route subtree.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet, normalizing each member so callers can pass
// raw role strings.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[NormalizeRole(string(r))] = struct{}{}
	}
	return set
}

// Contains reports whether the set allows the given role. The candidate is
// normalized first, making membership case-insensitive.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[NormalizeRole(string(r))]
	return ok
}
