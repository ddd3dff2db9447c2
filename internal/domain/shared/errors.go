// Package shared contains common domain types, errors and the validator
// pipeline used across all domain packages. Apart from decimal arithmetic
// this package has no external dependencies.
package shared

import (
	"errors"
	"fmt"
	"strings"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "attribution", "effective_class", "learning_unit"
	Op      string // Operation that failed, e.g., "AssignClass", "Create"
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
	if target == ErrBusiness {
		return true
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

// ══════════════════════════════════════════════════════════════════════════════
// BUSINESS ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// ErrBusiness marks every recoverable business-rule violation. Typed business
// errors match it through their Is method.
var ErrBusiness = errors.New("business rule violation")

// BusinessRule is embedded by typed business errors so they match ErrBusiness.
type BusinessRule struct{}

// Is matches ErrBusiness.
func (BusinessRule) Is(target error) bool { return target == ErrBusiness }

// MultipleBusinessErrors carries every violation found during one validation
// run so the caller can report them all at once.
type MultipleBusinessErrors struct {
	Errors []error
}

// Error implements the error interface.
func (m *MultipleBusinessErrors) Error() string {
	msgs := make([]string, 0, len(m.Errors))
	for _, err := range m.Errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultipleBusinessErrors) Unwrap() []error {
	return m.Errors
}

// Is matches ErrBusiness.
func (m *MultipleBusinessErrors) Is(target error) bool {
	return target == ErrBusiness
}

// JoinBusinessErrors flattens errs (nested MultipleBusinessErrors included)
// into one compound error. Nil entries are skipped; it returns nil when
// nothing is left.
func JoinBusinessErrors(errs ...error) error {
	flat := make([]error, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		var multi *MultipleBusinessErrors
		if errors.As(err, &multi) {
			flat = append(flat, multi.Errors...)
			continue
		}
		flat = append(flat, err)
	}
	if len(flat) == 0 {
		return nil
	}
	return &MultipleBusinessErrors{Errors: flat}
}

// BusinessErrors returns the individual errors carried by err. A single
// non-compound error is returned as a one-element slice.
func BusinessErrors(err error) []error {
	if err == nil {
		return nil
	}
	var multi *MultipleBusinessErrors
	if errors.As(err, &multi) {
		return multi.Errors
	}
	return []error{err}
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsBusiness reports whether err is (or contains) a business-rule violation.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrBusiness)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}
