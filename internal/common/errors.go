// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrValidation marks malformed or out-of-range input. Nothing is mutated.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a report, user or reward id that does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientPoints marks a redemption whose cost exceeds the balance.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrDuplicateEntry marks an insert that collides with an existing row.
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrInvalidTransition marks a forbidden report status change.
	// It is always returned together with ErrValidation.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Validationf builds an error that matches ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds an error that matches ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Describe turns a core error into a short message suitable for CLI or API output.
func Describe(err error) string {
	var userErr *UserError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &userErr):
		return userErr.UserMessage
	case errors.Is(err, ErrInsufficientPoints):
		return "not enough points for this reward"
	case errors.Is(err, ErrInvalidTransition):
		return "that status change is not allowed"
	default:
		return err.Error()
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
