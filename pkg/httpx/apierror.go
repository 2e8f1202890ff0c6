package httpx

import (
	"fmt"
	"net/http"
)

// APIError is the uniform JSON error envelope rendered at the request
// boundary. The error field carries the HTTP status text; message carries
// the category-level description. Internal detail (store errors, crypto
// failures) is logged server-side and never echoed here.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"error"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Status, e.Message)
}

// WriteError renders the envelope to an HTTP response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	WriteJSON(w, e.StatusCode, e)
}

func newAPIError(code int, message string) *APIError {
	return &APIError{
		StatusCode: code,
		Status:     http.StatusText(code),
		Message:    message,
	}
}

// ErrBadRequest builds a 400 envelope for malformed input.
func ErrBadRequest(message string) *APIError {
	return newAPIError(http.StatusBadRequest, message)
}

// ErrUnauthorized builds a 401 envelope. Missing, invalid, expired, and
// revoked tokens as well as bad credentials all collapse into this class so
// callers cannot distinguish them.
func ErrUnauthorized(message string) *APIError {
	return newAPIError(http.StatusUnauthorized, message)
}

// ErrForbidden builds a 403 envelope for authenticated callers lacking the
// required role or ownership.
func ErrForbidden(message string) *APIError {
	return newAPIError(http.StatusForbidden, message)
}

// ErrNotFound builds a 404 envelope.
func ErrNotFound(message string) *APIError {
	return newAPIError(http.StatusNotFound, message)
}

// ErrConflict builds a 409 envelope for unique-field violations.
func ErrConflict(message string) *APIError {
	return newAPIError(http.StatusConflict, message)
}

// ErrInternal builds a 500 envelope. The message stays category-level; the
// underlying cause belongs in the server log.
func ErrInternal(message string) *APIError {
	return newAPIError(http.StatusInternalServerError, message)
}
