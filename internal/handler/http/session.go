package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kunlesxo/cyriox-storefront/internal/credential"
	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
	"github.com/kunlesxo/cyriox-storefront/internal/middleware"
	"github.com/kunlesxo/cyriox-storefront/pkg/httputil"
)

// SessionHandler answers session introspection requests so the client can
// decide where to navigate on page load.
type SessionHandler struct {
	store  credential.Store
	logger *slog.Logger
}

// NewSessionHandler creates the session introspection handler.
func NewSessionHandler(store credential.Store, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger.With(slog.String("component", "session_handler"))}
}

// State handles GET /session.
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionIDFromContext(r.Context())

	cred, err := h.store.Get(r.Context(), sid)
	if err != nil {
		if errors.Is(err, credential.ErrNoCredential) {
			httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionState{
				Authenticated: false,
				Redirect:      auth.PathLogin,
			}})
			return
		}
		h.logger.ErrorContext(r.Context(), "credential lookup failed", slog.String("error", err.Error()))
		httputil.WriteError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "session store unavailable")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionState{
		Authenticated: true,
		Role:          string(cred.Role),
		Redirect:      auth.DestinationFor(cred.Role),
	}})
}

// Unauthorized handles GET /unauthorized, the landing data for the blocked
// page. It always answers 200 so the page itself can render.
func (h *SessionHandler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "your account does not have access to this area",
		"login":   auth.PathLogin,
	}})
}
