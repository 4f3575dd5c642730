package domain

import (
	"errors"
	"fmt"
)

// ErrAuthenticationMissing means the user has no stored provider access
// token. Terminal: the user must re-link their institution.
var ErrAuthenticationMissing = errors.New("no access token for user")

// ValidationError rejects a malformed request before any work happens.
// Not retryable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single bad field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ProviderError wraps a failure reported by the upstream aggregation
// provider. Carries the provider's code and message so callers can decide
// on retry/backoff; never carries credential values.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("provider error: %s", e.Message)
	}
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
}

// IsProviderError reports whether err wraps a ProviderError and returns it.
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
