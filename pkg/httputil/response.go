// Package httputil holds the standard JSON response envelope shared by all
// browser-facing handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kunlesxo/cyriox-storefront/pkg/logger"
	"github.com/kunlesxo/cyriox-storefront/pkg/validator"
)

// Response is the standard JSON envelope.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope. Redirect carries the
// client-side path the browser should navigate to when the error implies a
// route change (login or unauthorized page).
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Redirect  string            `json:"redirect,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing to do if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope, attaching the request's correlation
// ID when present.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, Response{
		Error: &ErrorResponse{
			Code:      code,
			Message:   message,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}

// WriteRedirectError writes the error envelope with a navigation target.
func WriteRedirectError(w http.ResponseWriter, r *http.Request, status int, code, message, redirect string) {
	WriteJSON(w, status, Response{
		Error: &ErrorResponse{
			Code:      code,
			Message:   message,
			Redirect:  redirect,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}

// WriteValidationError writes a 400 with field-level details when err is a
// validation error, and a plain invalid-input error otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}
	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}
