// Package apperr holds the error classes shared by the domain packages and
// translated to HTTP statuses by the api package.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrReferentialIntegrity = errors.New("referenced record does not exist")
	ErrConflict             = errors.New("record already exists")
)

// ValidationError is a business rule rejection with a human readable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func Validation(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFound returns an error for a missing resource that matches ErrNotFound.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
