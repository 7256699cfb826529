// Package shared contains common domain types, errors, and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// Scheduling errors
	ErrSchedulingConflict = errors.New("scheduling conflict")

	// ErrEmptyInput names the "no data yet" condition. Analytics never
	// return it: empty input degrades to empty or zero results.
	ErrEmptyInput = errors.New("empty input")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "goal", "progress", "calendar"
	Op      string // Operation that failed, e.g., "New", "Validate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e == t
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Goal domain errors
var (
	ErrGoalNotFound       = NewDomainError("goal", "Find", ErrNotFound, "goal not found")
	ErrGoalAlreadyExists  = NewDomainError("goal", "Add", ErrAlreadyExists, "goal already exists")
	ErrGoalTitleRequired  = NewDomainError("goal", "Validate", ErrEmptyValue, "goal title is required")
	ErrInvalidGoalStatus  = NewDomainError("goal", "SetStatus", ErrInvalidInput, "invalid goal status")
	ErrGoalProgressBounds = NewDomainError("goal", "UpdateProgress", ErrValueOutOfRange, "progress must be between 0 and 100")
)

// Progress domain errors
var (
	ErrEntryNotFound      = NewDomainError("progress", "Find", ErrNotFound, "progress entry not found")
	ErrEntryAlreadyExists = NewDomainError("progress", "Add", ErrAlreadyExists, "progress entry already exists")
	ErrEntryDateRequired  = NewDomainError("progress", "Validate", ErrEmptyValue, "entry date is required")
	ErrEntryGoalRequired  = NewDomainError("progress", "Validate", ErrEmptyValue, "entry must reference a goal")
	ErrNegativeEntryHours = NewDomainError("progress", "Validate", ErrNegativeValue, "hours cannot be negative")
)

// Calendar domain errors
var (
	ErrEventNotFound      = NewDomainError("calendar", "Find", ErrNotFound, "calendar event not found")
	ErrEventAlreadyExists = NewDomainError("calendar", "Add", ErrAlreadyExists, "calendar event already exists")
	ErrEventTitleRequired = NewDomainError("calendar", "Validate", ErrEmptyValue, "event title is required")
	ErrInvalidEventType   = NewDomainError("calendar", "Validate", ErrInvalidInput, "invalid event type")
	ErrInvalidRange       = NewDomainError("calendar", "Validate", ErrValidation, "event end must be after start")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsSchedulingConflict checks if the error reports overlapping sessions.
func IsSchedulingConflict(err error) bool {
	return errors.Is(err, ErrSchedulingConflict)
}
