// Package credential holds the per-session credential store: the token pair
// plus normalized role written by the authenticator, mutated by the session
// client on refresh, and cleared on logout or terminal auth failure. No
// other component writes it.
package credential

import (
	"context"
	"errors"

	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNoCredential means the session holds no credential (never logged
	// in, logged out, or expired out of the store).
	ErrNoCredential = errors.New("no credential for session")
	// ErrNoChallenge means no OTP challenge is pending for the session.
	ErrNoChallenge = errors.New("no pending otp challenge")
	// ErrInvalidCredential rejects a write that would break the pairing
	// invariant (token without role or vice versa).
	ErrInvalidCredential = errors.New("credential missing token or role")
)

// Store persists session credentials. Implementations must keep each
// credential a single atomic value so the access-token/role pairing
// invariant of auth.Credential can never be observed half-written.
//
// A pending OTP challenge and a credential are mutually exclusive for a
// session: Put clears any challenge, PutChallenge clears any credential.
type Store interface {
	// Put writes the full credential for the session, replacing whatever
	// was there and discarding any pending OTP challenge. Credentials that
	// fail auth.Credential.Valid are rejected with ErrInvalidCredential.
	Put(ctx context.Context, sessionID string, cred auth.Credential) error

	// Get returns the session's credential, or ErrNoCredential.
	Get(ctx context.Context, sessionID string) (auth.Credential, error)

	// ReplaceAccessToken swaps only the access token after a successful
	// refresh, keeping refresh token and role intact. Returns
	// ErrNoCredential when the session holds nothing to refresh.
	ReplaceAccessToken(ctx context.Context, sessionID, accessToken string) error

	// Clear removes the credential and any pending challenge. Idempotent:
	// clearing an empty session is not an error.
	Clear(ctx context.Context, sessionID string) error

	// PutChallenge records that the session is waiting on an OTP. Any
	// stored credential is discarded.
	PutChallenge(ctx context.Context, sessionID string, ch auth.PendingOTPChallenge) error

	// TakeChallenge returns and consumes the pending challenge, or
	// ErrNoChallenge.
	TakeChallenge(ctx context.Context, sessionID string) (auth.PendingOTPChallenge, error)
}
