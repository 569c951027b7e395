package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks violated workflow preconditions and missing fields.
	ErrValidation = errors.New("validation error")
	// ErrStoreUnavailable wraps any failure of the backing document store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrPartialFailure marks multi-write workflows that stopped midway.
	ErrPartialFailure = errors.New("partial failure")
)

// NotFound builds a not-found error for a record kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// Unavailable wraps a backend failure as ErrStoreUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// ValidationError describes a rejected input or transition.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PartialFailureError reports a workflow whose earlier writes succeeded
// before a later one failed. Nothing is rolled back.
type PartialFailureError struct {
	Op        string
	Completed []string // descriptions of writes that were applied
	Failed    string   // description of the write that failed
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s partially applied (done: %s; failed: %s): %v",
		e.Op, strings.Join(e.Completed, ", "), e.Failed, e.Err)
}

// Is lets errors.Is match ErrPartialFailure.
func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

func (e *PartialFailureError) Unwrap() error { return e.Err }
