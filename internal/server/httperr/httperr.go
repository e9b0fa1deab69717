// Package httperr classifies service errors into the API's error taxonomy
// and renders them as JSON responses. Store and token errors never reach the
// caller verbatim; unclassified errors become a generic 500.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is a classified request failure with a caller-safe message.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"detail"`
	// BearerChallenge adds a WWW-Authenticate: Bearer header, set on
	// authentication failures.
	BearerChallenge bool `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Unauthorized returns a 401 with a WWW-Authenticate: Bearer challenge.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message, BearerChallenge: true}
}

// BadRequest returns a 400.
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Forbidden returns a 403.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

// NotFound returns a 404.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Validation returns a 422 for malformed input shape.
func Validation(message string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Message: message}
}

// TooManyRequests returns a 429.
func TooManyRequests(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Message: message}
}

// Internal returns a 500 with a generic message; the underlying detail
// belongs in the operational log, not the response.
func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message}
}

// BadGateway returns a 502 for upstream provider failures.
func BadGateway(message string) *Error {
	return &Error{Status: http.StatusBadGateway, Message: message}
}

// Write renders err as a JSON error response. A non-*Error err is written as
// a generic 500 so internal detail does not leak.
func Write(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal("An unexpected error occurred")
	}
	if e.BearerChallenge {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, e.Status, e)
}

// WriteJSON writes v as a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
