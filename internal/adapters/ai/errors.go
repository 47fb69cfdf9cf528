package ai

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"ossy/pkg/errors"
)

// APIError is a failed provider call normalized across SDKs. StatusCode is 0
// when the provider could not be reached.
type APIError struct {
	Provider   ProviderName
	StatusCode int
	Message    string

	kind  error
	cause error
}

func newAPIError(provider ProviderName, status int, message string, cause error) *APIError {
	kind := errors.ErrExternal
	switch status {
	case 0, http.StatusNotFound, http.StatusServiceUnavailable, http.StatusBadGateway:
		kind = errors.ErrModelUnavailable
	case http.StatusTooManyRequests:
		kind = errors.ErrRateLimitExceeded
	}

	return &APIError{
		Provider:   provider,
		StatusCode: status,
		Message:    message,
		kind:       kind,
		cause:      cause,
	}
}

// Error implements error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s unreachable: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap exposes both the sentinel and the SDK error.
func (e *APIError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// IsUnavailable reports whether err means the model cannot be reached or does
// not exist (HTTP 404/502/503 or a connection failure).
func IsUnavailable(err error) bool {
	return errors.Is(err, errors.ErrModelUnavailable)
}

// transportError maps failures that happened before any HTTP status was seen.
// Context cancellation is returned unchanged.
func transportError(provider ProviderName, err error) error {
	if errors.Is(err, context.Canceled) {
		return errors.Wrapf(err, "%s call cancelled", provider)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return newAPIError(provider, 0, err.Error(), err)
	}

	return errors.Wrapf(errors.Mark(err, errors.ErrExternal), "%s call failed", provider)
}

// RateLimitError wraps rate limit related errors with provider context.
type RateLimitError struct {
	Provider ProviderName
	Limit    float64
	Err      error
}

// Error implements error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit error for provider %s (limit: %.0f req/min): %v", e.Provider, e.Limit, e.Err)
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}
