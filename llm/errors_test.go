package llm

import (
	"errors"
	"testing"
	"time"
)

func TestIsAuthError(t *testing.T) {
	err := NewAuthError("missing API key", nil)
	if !IsAuthError(err) {
		t.Error("Expected IsAuthError to return true for auth error")
	}
	if IsRetryable(err) {
		t.Error("Auth errors must never be retryable")
	}

	regularErr := NewProviderError("some error", nil)
	if IsAuthError(regularErr) {
		t.Error("Expected IsAuthError to return false for non-auth error")
	}
}

func TestIsRateLimitError(t *testing.T) {
	err := NewRateLimitError("rate limit exceeded", nil, nil)
	if !IsRateLimitError(err) {
		t.Error("Expected IsRateLimitError to return true for rate limit error")
	}

	regularErr := NewProviderError("some error", nil)
	if IsRateLimitError(regularErr) {
		t.Error("Expected IsRateLimitError to return false for non-rate-limit error")
	}
}

func TestIsRetryable(t *testing.T) {
	for _, err := range []*Error{
		NewRateLimitError("rate limit", nil, nil),
		NewTimeoutError("deadline exceeded", nil),
		NewNetworkError("connection reset", nil),
		NewServerError("upstream unavailable", 503, nil),
	} {
		if !IsRetryable(err) {
			t.Errorf("Expected %s error to be retryable", err.Type)
		}
	}

	for _, err := range []*Error{
		NewAuthError("bad key", nil),
		NewInvalidRequestError("malformed prompt", nil),
		NewUnsupportedModelError("no such model", nil),
		NewProviderError("some error", nil),
	} {
		if IsRetryable(err) {
			t.Errorf("Expected %s error to be terminal", err.Type)
		}
	}

	if IsRetryable(errors.New("plain error")) {
		t.Error("Plain errors should not be considered retryable")
	}
}

func TestExtractRetryAfter(t *testing.T) {
	retryAfter := 5 * time.Minute
	err := NewRateLimitError("rate limit", &retryAfter, nil)
	extracted := ExtractRetryAfter(err)
	if extracted == nil {
		t.Fatal("Expected non-nil retry after")
	}
	if *extracted != retryAfter {
		t.Errorf("Expected retry after %v, got %v", retryAfter, *extracted)
	}

	regularErr := NewProviderError("some error", nil)
	if ExtractRetryAfter(regularErr) != nil {
		t.Error("Expected nil retry after for non-rate-limit error")
	}
}

func TestErrorUnwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := NewProviderError("wrapped", originalErr)
	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Expected error to unwrap to original error")
	}
}
