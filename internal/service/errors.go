// Package service implements the shop's use cases on top of the store
// interfaces declared in stores.go.  Errors returned from here are either
// one of the sentinel kinds below (possibly wrapped with a client-facing
// message) or a *ValidationError; anything else is an internal failure.
package service

import (
	"errors"
	"fmt"
)

// Error kinds.  Handlers map them to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// ErrAccountBlocked is returned when an inactive account tries to act.
var ErrAccountBlocked = kindError(ErrForbidden, "Your account has been blocked by admin.")

// Error carries a client-facing message for one of the error kinds.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func kindError(kind error, msg string) error { return &Error{Kind: kind, Msg: msg} }

func notFoundf(format string, args ...any) error {
	return kindError(ErrNotFound, fmt.Sprintf(format, args...))
}

// ValidationError lists invalid input fields with a message each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
