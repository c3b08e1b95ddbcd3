/*
errors.go - Shared error types

PURPOSE:
  Errors that cross package boundaries: date parsing, period validation,
  lookups and persistence failures. The attendance package defines its own
  domain kinds (ConfigurationMissing, ValidationError) on top of these.

ERROR CATEGORIES:
  1. Input errors - malformed dates and periods
  2. Lookup errors - a referenced row does not exist
  3. Store errors - the persistence layer failed

USAGE:
    if errors.Is(err, generic.ErrStoreFailure) {
        // surface as 500, do not retry
    }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date or month string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrNotFound is returned when a referenced row doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would break a store invariant,
	// such as opening a second presence session.
	ErrConflict = errors.New("conflict")

	// ErrStoreFailure marks errors coming from the persistence layer.
	ErrStoreFailure = errors.New("store failure")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// StoreError wraps a persistence failure with the operation that caused it.
// It matches both ErrStoreFailure and the underlying cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreFailure, e.Err}
}

// WrapStore returns nil for a nil err, otherwise a *StoreError.
// Errors that already carry a domain meaning (not found, conflict) are
// passed through untouched.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrStoreFailure) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
