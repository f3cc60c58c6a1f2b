// Package errors provides domain-specific error types for ensemble
package errors

import (
	"errors"
	"fmt"
)

// Standard errors that can be used with errors.Is()
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyPrompt indicates a request without a prompt
	ErrEmptyPrompt = errors.New("prompt is required")

	// ErrProviderUnavailable indicates the provider is not available
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrPipelineNotRegistered indicates no pipeline exists for an intent
	ErrPipelineNotRegistered = errors.New("no pipeline registered for intent")

	// ErrClassification indicates the intent classifier call failed
	ErrClassification = errors.New("intent classification failed")

	// ErrAllProvidersFailed indicates both base providers failed
	ErrAllProvidersFailed = errors.New("all base providers failed")

	// ErrRateLimit indicates provider rate limiting
	ErrRateLimit = errors.New("rate limit exceeded")
)

// ProviderError wraps provider-related errors with context
type ProviderError struct {
	// Provider is the name of the provider (e.g., "gemini", "openai")
	Provider string

	// Operation being performed (e.g., "generate_response", "stream")
	Op string

	// Underlying error
	Err error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// New creates a new ProviderError
func New(provider, op string, err error) error {
	return &ProviderError{
		Provider: provider,
		Op:       op,
		Err:      err,
	}
}

// Wrap adds provider context to an existing error
func Wrap(err error, provider, op string) error {
	if err == nil {
		return nil
	}
	return &ProviderError{
		Provider: provider,
		Op:       op,
		Err:      err,
	}
}

// Is enables custom error matching
func (e *ProviderError) Is(target error) bool {
	if errors.Is(e.Err, target) {
		return true
	}

	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}

	// Match on specific fields if provided
	if t.Provider != "" && t.Provider != e.Provider {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}

	if t.Provider != "" || t.Op != "" {
		return true
	}

	return errors.Is(e.Err, t.Err)
}
