package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kunlesxo/cyriox-storefront/internal/credential"
	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
	"github.com/kunlesxo/cyriox-storefront/pkg/httputil"
	"github.com/kunlesxo/cyriox-storefront/pkg/logger"
)

// Guard protects a route subtree with a role requirement. The decision is
// made before any handler runs: a request with no usable credential is told
// to log in, a request whose role does not satisfy the requirement is told
// it is unauthorized. The guard never mutates the stored credential.
func Guard(store credential.Store, required auth.RoleSet, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sid := SessionIDFromContext(ctx)

			var cred *auth.Credential
			if sid != "" {
				c, err := store.Get(ctx, sid)
				switch {
				case err == nil:
					cred = &c
				case errors.Is(err, credential.ErrNoCredential):
					// Treated as signed out.
				default:
					log.ErrorContext(ctx, "credential lookup failed", slog.String("error", err.Error()))
					httputil.WriteError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "session store unavailable")
					return
				}
			}

			switch auth.Decide(required, cred) {
			case auth.Allow:
				ctx = logger.WithSessionRole(ctx, string(cred.Role))
				next.ServeHTTP(w, r.WithContext(ctx))
			case auth.RedirectUnauthorized:
				httputil.WriteRedirectError(w, r, http.StatusForbidden, "FORBIDDEN", "role not permitted", auth.PathUnauthorized)
			default:
				httputil.WriteRedirectError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", auth.PathLogin)
			}
		})
	}
}
