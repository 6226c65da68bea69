package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kunlesxo/cyriox-storefront/internal/authn"
	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
	"github.com/kunlesxo/cyriox-storefront/internal/middleware"
	"github.com/kunlesxo/cyriox-storefront/pkg/httputil"
	"github.com/kunlesxo/cyriox-storefront/pkg/validator"
)

// AuthHandler exposes login, OTP verification, signup and logout.
type AuthHandler struct {
	auth   *authn.Authenticator
	cookie middleware.SessionCookie
	logger *slog.Logger
}

// NewAuthHandler creates the auth endpoints handler.
func NewAuthHandler(a *authn.Authenticator, cookie middleware.SessionCookie, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, cookie: cookie, logger: logger.With(slog.String("component", "auth_handler"))}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,min=4,max=8"`
}

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

type sessionState struct {
	Authenticated bool   `json:"authenticated"`
	OTPRequired   bool   `json:"otp_required,omitempty"`
	Role          string `json:"role,omitempty"`
	Redirect      string `json:"redirect,omitempty"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sid := middleware.SessionIDFromContext(r.Context())
	outcome, err := h.auth.Login(r.Context(), sid, req.Email, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	if outcome.Kind == authn.OutcomeStepUpRequired {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionState{OTPRequired: true}})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionState{
		Authenticated: true,
		Role:          string(outcome.Role),
		Redirect:      outcome.Destination,
	}})
}

// VerifyOTP handles POST /auth/verify-otp.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sid := middleware.SessionIDFromContext(r.Context())
	outcome, err := h.auth.VerifyOTP(r.Context(), sid, req.Email, req.OTP)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionState{
		Authenticated: true,
		Role:          string(outcome.Role),
		Redirect:      outcome.Destination,
	}})
}

// Signup handles POST /auth/signup. The account is created upstream; the
// upstream's status and payload are relayed so field errors reach the form.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	role := auth.NormalizeRole(req.Role)
	if role == auth.RoleUnauthorized {
		httputil.WriteError(w, r, http.StatusBadRequest, "INVALID_ROLE", "role must be customer or distributor")
		return
	}

	status, body, err := h.auth.Signup(r.Context(), req.Username, req.Email, req.Password, role)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	} else {
		_ = json.NewEncoder(w).Encode(httputil.Response{Data: map[string]string{"status": "created"}})
	}
}

// Logout handles POST /auth/logout. Clearing an already-signed-out session
// succeeds; the session cookie is dropped as well.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionIDFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), sid); err != nil {
		writeAuthError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionState{Redirect: auth.PathLogin}})
}
