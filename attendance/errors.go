package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing means no OfficePolicy has been saved yet. It is
	// an expected state: callers should prompt for setup, not retry.
	ErrConfigurationMissing = errors.New("office policy not configured")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError rejects a value before it reaches a store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
