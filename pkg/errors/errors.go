package errors

import (
	"errors"
	"fmt"
)

// Generic error types shared across layers

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrExternal indicates an upstream API returned an error response
	ErrExternal = errors.New("external API error")

	// ErrRateLimitExceeded indicates API rate limit exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrBusy indicates another run is already in progress
	ErrBusy = errors.New("run already in progress")
)

// Screening errors

var (
	// ErrDataSourceUnavailable indicates the boosted candidate list could not be fetched.
	// The whole screening run fails, no partial result is produced.
	ErrDataSourceUnavailable = errors.New("market data source unavailable")

	// ErrDetailUnavailable indicates a single candidate's pair detail could not be fetched.
	// Absorbed by the pipeline; the candidate is excluded.
	ErrDetailUnavailable = errors.New("pair detail unavailable")
)

// Agent errors

var (
	// ErrModelUnavailable indicates the language model endpoint is unreachable or not found
	ErrModelUnavailable = errors.New("language model unavailable")

	// ErrMalformedToolResult indicates a tool result could not be parsed into tokens
	ErrMalformedToolResult = errors.New("malformed tool result")
)

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets callers match validation failures against ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, dropping nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Mark tags err with a sentinel so that errors.Is matches both
func Mark(err, sentinel error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func New(message string) error {
	return errors.New(message)
}
