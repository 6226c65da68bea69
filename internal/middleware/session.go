// Package middleware holds the browser-facing middleware specific to this
// service: session cookie handling, the route guard, and rate limiting for
// the auth endpoints.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionCookie configures the opaque session identifier cookie. The
// credential itself never leaves the server; the browser only ever holds
// this ID.
type SessionCookie struct {
	Name   string
	Secure bool
}

// EnsureSession guarantees every request carries a session ID: an existing
// cookie is reused, otherwise a fresh ID is minted and set. The ID is
// placed in the request context for handlers and the guard.
func EnsureSession(cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(cookie.Name); err == nil && c.Value != "" {
				if _, parseErr := uuid.Parse(c.Value); parseErr == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     cookie.Name,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   cookie.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), sessionIDKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the session ID placed by EnsureSession.
func SessionIDFromContext(ctx context.Context) string {
	if sid, ok := ctx.Value(sessionIDKey).(string); ok {
		return sid
	}
	return ""
}
