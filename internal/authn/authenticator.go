// Package authn executes the login, OTP step-up and signup protocols
// against the external auth endpoints and is the only writer of full
// credentials into the store.
package authn

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kunlesxo/cyriox-storefront/internal/credential"
	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
	"github.com/kunlesxo/cyriox-storefront/internal/upstream"
)

// Upstream auth endpoint paths.
const (
	loginPath             = "/login/"
	verifyOTPPath         = "/login/verify-otp/"
	signupCustomerPath    = "/signup/user/"
	signupDistributorPath = "/signup/distributor/"
)

var loginOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_login_outcomes_total",
		Help: "Login and OTP verification outcomes",
	},
	[]string{"operation", "outcome"},
)

// OutcomeKind discriminates the three possible login results. Collapsing
// login into a boolean is exactly how step-up and success end up conflated
// and half a credential gets persisted, so the split is load-bearing.
type OutcomeKind int

const (
	// OutcomeSuccess means a credential was written and the role resolved.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeStepUpRequired means an OTP challenge is now pending and no
	// credential exists yet.
	OutcomeStepUpRequired
)

// Outcome is the result of a successful (non-rejected) login or OTP
// verification.
type Outcome struct {
	Kind        OutcomeKind
	Role        auth.Role
	Destination string
}

// Authenticator drives the auth protocol. All failures come back as
// *auth.AuthError or *auth.NetworkError; it never panics across its
// boundary and never leaves partial credential state behind.
type Authenticator struct {
	client *upstream.Client
	store  credential.Store
	logger *slog.Logger
}

// New creates an Authenticator.
func New(client *upstream.Client, store credential.Store, logger *slog.Logger) *Authenticator {
	return &Authenticator{client: client, store: store, logger: logger}
}

// authResponse covers the closed set of response shapes the upstream auth
// endpoints have been observed to emit: token fields spelled either
// access_token/refresh_token or access/refresh, role always top-level.
// Anything outside this set is a rejected outcome, the inconsistency stops
// here and never leaks into page code.
type authResponse struct {
	AccessToken  string `json:"access_token"`
	Access       string `json:"access"`
	RefreshToken string `json:"refresh_token"`
	Refresh      string `json:"refresh"`
	Role         string `json:"role"`
	OTPRequired  bool   `json:"otp_required"`
	Message      string `json:"message"`
	Detail       string `json:"detail"`
}

func (r authResponse) accessToken() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Access
}

func (r authResponse) refreshToken() string {
	if r.RefreshToken != "" {
		return r.RefreshToken
	}
	return r.Refresh
}

func (r authResponse) errorMessage(fallback string) string {
	if r.Message != "" {
		return r.Message
	}
	if r.Detail != "" {
		return r.Detail
	}
	return fallback
}

// Login executes the login protocol for the given session. Three outcomes:
// step-up required (challenge recorded, nothing else written), success
// (credential written atomically, role resolved for routing), or a rejected
// error with no state change.
func (a *Authenticator) Login(ctx context.Context, sessionID, email, password string) (Outcome, error) {
	if email == "" || password == "" {
		return Outcome{}, auth.NewAuthError(auth.ReasonInvalidCredentials, "email and password are required")
	}

	resp, err := a.client.PostJSON(ctx, loginPath, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		loginOutcomes.WithLabelValues("login", "network_error").Inc()
		return Outcome{}, err
	}

	var body authResponse
	if decodeErr := upstream.DecodeJSON(resp, &body); decodeErr != nil {
		loginOutcomes.WithLabelValues("login", "rejected").Inc()
		return Outcome{}, auth.NewAuthError(auth.ReasonInvalidCredentials, "malformed login response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		loginOutcomes.WithLabelValues("login", "rejected").Inc()
		return Outcome{}, auth.NewAuthError(auth.ReasonInvalidCredentials, body.errorMessage("login failed"))
	}

	if body.OTPRequired {
		if err := a.store.PutChallenge(ctx, sessionID, auth.PendingOTPChallenge{Email: email}); err != nil {
			return Outcome{}, err
		}
		loginOutcomes.WithLabelValues("login", "step_up").Inc()
		a.logger.InfoContext(ctx, "login requires otp step-up")
		return Outcome{Kind: OutcomeStepUpRequired}, nil
	}

	return a.commitCredential(ctx, sessionID, body, "login")
}

// VerifyOTP completes a pending step-up. Success writes the credential and
// consumes the challenge; rejection consumes the challenge and reports
// invalid otp. A transport failure leaves the challenge pending so the user
// can retry.
func (a *Authenticator) VerifyOTP(ctx context.Context, sessionID, email, otp string) (Outcome, error) {
	if email == "" || otp == "" {
		return Outcome{}, auth.NewAuthError(auth.ReasonInvalidOTP, "email and otp are required")
	}

	resp, err := a.client.PostJSON(ctx, verifyOTPPath, map[string]string{
		"email": email,
		"otp":   otp,
	})
	if err != nil {
		loginOutcomes.WithLabelValues("verify_otp", "network_error").Inc()
		return Outcome{}, err
	}

	var body authResponse
	if decodeErr := upstream.DecodeJSON(resp, &body); decodeErr != nil {
		body = authResponse{}
	}

	// The upstream answered, so the verification is definitive either way:
	// the challenge is consumed now. A success below rewrites the store
	// with the credential anyway.
	if _, takeErr := a.store.TakeChallenge(ctx, sessionID); takeErr != nil && takeErr != credential.ErrNoChallenge {
		return Outcome{}, takeErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		loginOutcomes.WithLabelValues("verify_otp", "rejected").Inc()
		return Outcome{}, auth.NewAuthError(auth.ReasonInvalidOTP, body.errorMessage("invalid otp"))
	}

	return a.commitCredential(ctx, sessionID, body, "verify_otp")
}

// commitCredential validates the success-shaped response, normalizes the
// role and writes the credential as one value. An unrecognized role is a
// policy failure: nothing is written.
func (a *Authenticator) commitCredential(ctx context.Context, sessionID string, body authResponse, op string) (Outcome, error) {
	access, refresh := body.accessToken(), body.refreshToken()
	if access == "" || refresh == "" || body.Role == "" {
		loginOutcomes.WithLabelValues(op, "rejected").Inc()
		return Outcome{}, auth.NewAuthError(auth.ReasonInvalidCredentials, "auth response missing token or role")
	}

	role := auth.NormalizeRole(body.Role)
	if role == auth.RoleUnauthorized {
		loginOutcomes.WithLabelValues(op, "unrecognized_role").Inc()
		a.logger.WarnContext(ctx, "upstream returned unrecognized role",
			slog.String("raw_role", body.Role),
		)
		return Outcome{}, auth.NewAuthError(auth.ReasonUnrecognizedRole, "unrecognized role")
	}

	cred := auth.Credential{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         role,
	}
	if err := a.store.Put(ctx, sessionID, cred); err != nil {
		return Outcome{}, err
	}

	loginOutcomes.WithLabelValues(op, "success").Inc()
	return Outcome{
		Kind:        OutcomeSuccess,
		Role:        role,
		Destination: auth.DestinationFor(role),
	}, nil
}

// Logout clears the session's credential and any pending challenge. Safe to
// call for a session that was never logged in.
func (a *Authenticator) Logout(ctx context.Context, sessionID string) error {
	return a.store.Clear(ctx, sessionID)
}

// Signup relays an account registration to the role-specific upstream
// endpoint and passes the upstream status and payload back untouched.
func (a *Authenticator) Signup(ctx context.Context, username, email, password string, role auth.Role) (int, json.RawMessage, error) {
	path := signupCustomerPath
	if auth.NormalizeRole(string(role)) == auth.RoleDistributor {
		path = signupDistributorPath
	}

	resp, err := a.client.PostJSON(ctx, path, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &auth.NetworkError{Op: "signup", Err: err}
	}
	return resp.StatusCode, payload, nil
}
