// Package apperr defines the error taxonomy shared by the domain
// packages and its mapping to HTTP status codes. Services wrap one of
// the sentinel values with context; handlers classify with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

// InternalMessage is what clients see for any error outside the
// taxonomy.
const InternalMessage = "internal error, please try again later"

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("operation not permitted in current status")
	ErrConflict        = errors.New("conflict")
)

// Status maps a core error to its HTTP status code. Errors outside the
// taxonomy are internal.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-visible message for an error. Expected
// errors pass through; internal errors collapse to a generic message so
// store internals never leak to clients.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return InternalMessage
	}
	return err.Error()
}

// Expected reports whether the error belongs to the recoverable part of
// the taxonomy (everything except internal).
func Expected(err error) bool {
	return Status(err) != http.StatusInternalServerError
}
