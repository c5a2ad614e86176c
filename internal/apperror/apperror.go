// Package apperror defines the typed errors shared by the store, service
// and handler layers. Each constructor wraps a sentinel so callers can use
// errors.Is; the Message is what the API returns to the client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

type AppError struct {
	Err     error  // sentinel (ErrNotFound, ErrConflict, ...)
	Message string // Human-readable error message, returned to the client
	Field   string // Optional: field causing the error (logged, not returned)
	Key     string // Optional: the id/username that was looked up (logged, not returned)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource. resource is the display name used
// in the message ("User", "Todo"); key is only kept for logging.
func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Key:     key,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation, e.g. a username that is taken.
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists!", resource),
		Key:     key,
	}
}
