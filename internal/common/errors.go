// Package common defines shared sentinel errors and error types used across
// the board backend. Callers match sentinel values with errors.Is and typed
// errors with errors.As.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
)

// ValidationError reports a malformed field value (name, password, email,
// rank). It is terminal for the operation that raised it; no mutation is
// committed once validation has failed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// AuthorizationError reports a privilege-escalation attempt, e.g. trying to
// grant an access rank above the acting user's own.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "authorization error: " + e.Reason
}

// NewAuthorizationError builds an AuthorizationError from a format string.
func NewAuthorizationError(format string, args ...any) *AuthorizationError {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}
