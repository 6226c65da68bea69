package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason identifies why an authentication or session operation failed.
type Reason string

const (
	ReasonNotAuthenticated   Reason = "not_authenticated"
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonInvalidOTP         Reason = "invalid_otp"
	ReasonSessionExpired     Reason = "session_expired"
	ReasonUnrecognizedRole   Reason = "unrecognized_role"
)

// AuthError is the discriminated failure returned by the Authenticator and
// the session client. It never escapes as a panic or opaque error: handlers
// map it to a user-visible JSON response via its status code.
type AuthError struct {
	Reason  Reason
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return string(e.Reason)
}

// HTTPStatus maps the failure reason to the status the browser-facing
// handler should answer with.
func (e *AuthError) HTTPStatus() int {
	switch e.Reason {
	case ReasonNotAuthenticated, ReasonSessionExpired:
		return http.StatusUnauthorized
	case ReasonUnrecognizedRole:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// NewAuthError builds an AuthError with an optional human-readable message.
func NewAuthError(reason Reason, message string) *AuthError {
	return &AuthError{Reason: reason, Message: message}
}

// NetworkError wraps a transport-level failure, distinct from a non-2xx
// upstream response. It is surfaced immediately and never retried.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an AuthError with the given reason.
func IsAuthError(err error, reason Reason) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Reason == reason
}
