// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Error classes. Every error returned by the core wraps exactly one of these.
var (
	// ErrValidation marks malformed or missing required input. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrLookupMiss marks a reference-table miss. The solver turns it into a warning.
	ErrLookupMiss = errors.New("lookup miss")
	// ErrExternalDependency marks a failed call to an external service.
	ErrExternalDependency = errors.New("external dependency failed")
	// ErrInfeasible marks a computation with no valid answer, e.g. fees summing to 100% of price.
	ErrInfeasible = errors.New("infeasible computation")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError reports an invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// LookupMissError reports a key that was not found in a reference table.
type LookupMissError struct {
	Table string
	Key   string
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("%v: %s %q not found", ErrLookupMiss, e.Table, e.Key)
}

func (e *LookupMissError) Unwrap() error {
	return ErrLookupMiss
}

// NewLookupMiss creates a lookup miss for key in table.
func NewLookupMiss(table, key string) error {
	return &LookupMissError{Table: table, Key: key}
}

// DependencyError wraps a failure from an external service.
type DependencyError struct {
	Err     error
	Service string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrExternalDependency, e.Service, e.Err)
}

// Is matches ErrExternalDependency as well as the wrapped cause.
func (e *DependencyError) Is(target error) bool {
	return target == ErrExternalDependency
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// NewDependencyError wraps err as a failure of service.
func NewDependencyError(service string, err error) error {
	return &DependencyError{Service: service, Err: err}
}

// InfeasibleError reports a computation whose inputs admit no valid answer.
type InfeasibleError struct {
	Reason      string
	Denominator float64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("%v: %s (denominator %.4f)", ErrInfeasible, e.Reason, e.Denominator)
}

func (e *InfeasibleError) Unwrap() error {
	return ErrInfeasible
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

// IsRetryable determines if an error should trigger a retry.
// Validation and infeasibility never do.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrInfeasible) {
		return false
	}

	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
