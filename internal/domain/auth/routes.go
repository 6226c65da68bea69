package auth

// Well-known client-facing paths for each role's landing page.
const (
	PathLogin                = "/login"
	PathUnauthorized         = "/unauthorized"
	PathDistributorDashboard = "/distributor/dashboard"
	PathCustomerDashboard    = "/customer/dashboard"
)

// DestinationFor maps a normalized role to its dashboard subtree. Any role
// outside the known set lands on the unauthorized page. It is consulted
// right after a successful login or OTP verification, and again at
// application start when a credential already exists, so a returning
// session skips the login form.
func DestinationFor(role Role) string {
	switch NormalizeRole(string(role)) {
	case RoleDistributor:
		return PathDistributorDashboard
	case RoleCustomer:
		return PathCustomerDashboard
	default:
		return PathUnauthorized
	}
}
