package errors

import (
	"errors"
	"testing"
)

func TestProviderError(t *testing.T) {
	baseErr := errors.New("base error")
	err := New("gemini", "generate", baseErr)

	expected := "provider gemini: generate: base error"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != baseErr {
		t.Errorf("Expected unwrapped error %v, got %v", baseErr, unwrapped)
	}

	// errors.Is with standard errors
	rateErr := New("gemini", "generate", ErrRateLimit)
	if !errors.Is(rateErr, ErrRateLimit) {
		t.Error("errors.Is failed with standard error")
	}

	// errors.Is with provider pattern matching
	patternErr := &ProviderError{Provider: "gemini", Op: "", Err: nil}
	if !errors.Is(err, patternErr) {
		t.Error("errors.Is failed with provider pattern matching")
	}

	wrongProvider := &ProviderError{Provider: "openai", Op: "", Err: nil}
	if errors.Is(err, wrongProvider) {
		t.Error("errors.Is incorrectly matched different provider")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "gemini", "generate") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	wrapped := Wrap(ErrProviderUnavailable, "gemini", "generate")
	if !errors.Is(wrapped, ErrProviderUnavailable) {
		t.Error("Wrapped error should match original with errors.Is")
	}

	var provErr *ProviderError
	if !errors.As(wrapped, &provErr) {
		t.Error("Wrapped error should be a ProviderError")
	}

	if provErr.Provider != "gemini" || provErr.Op != "generate" {
		t.Errorf("Expected provider 'gemini' and op 'generate', got %q and %q",
			provErr.Provider, provErr.Op)
	}
}
