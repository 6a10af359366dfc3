package llm

import (
	"errors"
	"time"
)

// Error represents a provider-neutral LLM error.
type Error struct {
	Type        ErrorType
	Message     string
	Retryable   bool
	RetryAfter  *time.Duration
	StatusCode  int
	ProviderErr error // Original provider-specific error
}

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeAuth             ErrorType = "auth"
	ErrorTypeRateLimit        ErrorType = "rate_limit"
	ErrorTypeTimeout          ErrorType = "timeout"
	ErrorTypeNetwork          ErrorType = "network"
	ErrorTypeServer           ErrorType = "server"
	ErrorTypeInvalidRequest   ErrorType = "invalid_request"
	ErrorTypeUnsupportedModel ErrorType = "unsupported_model"
	ErrorTypeProvider         ErrorType = "provider"
	ErrorTypeUnknown          ErrorType = "unknown"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ProviderErr != nil {
		return e.Message + ": " + e.ProviderErr.Error()
	}
	return e.Message
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.ProviderErr
}

// IsAuthError checks if an error is an authentication/credential error.
func IsAuthError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == ErrorTypeAuth
	}
	return false
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == ErrorTypeRateLimit
	}
	return false
}

// IsRetryable checks if an error is transient and eligible for retry.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// ExtractRetryAfter extracts the retry-after duration from an error.
func ExtractRetryAfter(err error) *time.Duration {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.RetryAfter
	}
	return nil
}

// NewAuthError creates a new authentication error. Never retried.
func NewAuthError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeAuth,
		Message:     message,
		Retryable:   false,
		ProviderErr: providerErr,
	}
}

// NewRateLimitError creates a new rate limit error.
func NewRateLimitError(message string, retryAfter *time.Duration, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeRateLimit,
		Message:     message,
		Retryable:   true,
		RetryAfter:  retryAfter,
		ProviderErr: providerErr,
	}
}

// NewTimeoutError creates a new timeout error. Timeouts are transient.
func NewTimeoutError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeTimeout,
		Message:     message,
		Retryable:   true,
		ProviderErr: providerErr,
	}
}

// NewNetworkError creates a new network/connection error.
func NewNetworkError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeNetwork,
		Message:     message,
		Retryable:   true,
		ProviderErr: providerErr,
	}
}

// NewServerError creates a new server-side (5xx) error.
func NewServerError(message string, statusCode int, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeServer,
		Message:     message,
		Retryable:   true,
		StatusCode:  statusCode,
		ProviderErr: providerErr,
	}
}

// NewInvalidRequestError creates a new bad-request error. Never retried.
func NewInvalidRequestError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeInvalidRequest,
		Message:     message,
		Retryable:   false,
		ProviderErr: providerErr,
	}
}

// NewUnsupportedModelError creates an error for a model the provider does
// not serve. Never retried.
func NewUnsupportedModelError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeUnsupportedModel,
		Message:     message,
		Retryable:   false,
		ProviderErr: providerErr,
	}
}

// NewProviderError creates a new generic provider error.
func NewProviderError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeProvider,
		Message:     message,
		Retryable:   false,
		ProviderErr: providerErr,
	}
}
