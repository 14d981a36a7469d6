package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage returns a NotFound error with a free-form message, for
// cases that aren't "resource X with id Y" shaped (e.g. an empty search
// result or a bulk delete with nothing to delete).
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthenticated returns an AppError for missing or invalid credentials.
// HTTP handlers map this to 401 Unauthorized.
//
// Login deliberately returns the SAME message for "no such user" and "wrong
// password" so a caller can't probe which emails are registered.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}
