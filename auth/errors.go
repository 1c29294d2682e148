package auth

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when a persisted session is loaded after
// its ticket or CSRF token has already outlived the configured lifetime.
// Use errors.Is(err, ErrSessionExpired) to detect it.
var ErrSessionExpired = errors.New("persisted session is expired")

// ValidationError describes a malformed ticket or CSRF token string.
type ValidationError struct {
	// Field names the offending value ("ticket" or "csrf_token").
	Field string

	// Message describes the format violation.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError returns true if the error is a token format violation.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
