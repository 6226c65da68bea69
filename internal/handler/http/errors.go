// Package http holds the browser-facing HTTP handlers and router.
package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
	"github.com/kunlesxo/cyriox-storefront/pkg/httputil"
	"github.com/kunlesxo/cyriox-storefront/pkg/logger"
)

// writeAuthError maps the layered auth and transport errors to the JSON
// envelope. Unauthenticated and expired sessions carry a login redirect so
// the client can navigate without inspecting the reason.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		code := strings.ToUpper(string(authErr.Reason))
		switch authErr.Reason {
		case auth.ReasonNotAuthenticated, auth.ReasonSessionExpired:
			httputil.WriteRedirectError(w, r, authErr.HTTPStatus(), code, authErr.Message, auth.PathLogin)
		case auth.ReasonUnrecognizedRole:
			httputil.WriteRedirectError(w, r, authErr.HTTPStatus(), code, authErr.Message, auth.PathUnauthorized)
		default:
			httputil.WriteError(w, r, authErr.HTTPStatus(), code, authErr.Message)
		}
		return
	}

	var netErr *auth.NetworkError
	if errors.As(err, &netErr) {
		httputil.WriteError(w, r, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream service unavailable")
		return
	}

	logger.FromContext(r.Context()).Error("unhandled handler error", "error", err.Error())
	httputil.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}
