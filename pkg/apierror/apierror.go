package apierror

import (
	"fmt"
	"net/http"
)

// APIError is the single error type domain services raise. Code is a
// stable machine-readable key; HTTPStatus is consumed by the boundary
// handler and never serialized.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Unauthorized is the catch-all auth failure; callers must not be able
// to tell apart a missing token, a bad signature, or a rotated-out
// refresh token.
func Unauthorized() *APIError {
	return New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized)
}

// Internal hides the underlying cause from the caller; the detail is
// expected to be logged server-side by whoever raises it.
func Internal() *APIError {
	return New("INTERNAL_ERROR", "Unexpected server error", "", http.StatusInternalServerError)
}
