package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrEmptyDiff       = errors.New("no changes to submit")
	ErrInvalidState    = errors.New("request is not pending")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("operation is not allowed")
	ErrAlreadyLocked   = errors.New("request is being processed by another reviewer, try again later")
)

// ValidationError carries a human message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return e.Msg
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NetworkError is a failed call to a remote resource that is neither 401 nor 404.
type NetworkError struct {
	StatusCode int
	Message    string
}

func (e NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("remote resource unavailable: %s", e.Message)
	}
	return fmt.Sprintf("remote resource responded with status %d: %s", e.StatusCode, e.Message)
}
