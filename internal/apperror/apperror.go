// Package apperror defines the domain errors shared by the service and
// handler layers. Handlers map them to HTTP status codes with errors.Is.
//
// Each constructor returns an *AppError whose Unwrap yields one of the
// sentinels below. That lets a handler ask "is this a not-found?" without
// knowing which resource failed, even after the service wrapped it again:
//
//	err := fmt.Errorf("service/snippet: %w", apperror.NotFound("snippet", id))
//	errors.Is(err, apperror.ErrNotFound) // true
//
// Message is written for API callers, so it never contains SQL or paths.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError carries a human-readable message on top of one of the sentinels.
type AppError struct {
	Err     error  // sentinel the error matches with errors.Is
	Message string // safe to show to API callers
	Field   string // request field at fault, validation errors only
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

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden means the caller is known but may not touch the resource.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the caller could not be identified: bad client
// credentials or a missing/invalid access token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
