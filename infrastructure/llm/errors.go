package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared across providers.
var (
	// ErrEmptyAPIKey indicates a provider was configured without credentials.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")

	// ErrEmptyResponse indicates the provider returned no usable content.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrUnknownProvider indicates the configured provider name has no
	// registered factory.
	ErrUnknownProvider = errors.New("unknown LLM provider")
)

// ErrorType classifies provider failures for logging and retry decisions.
type ErrorType string

const (
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeBadRequest    ErrorType = "bad_request"
	ErrorTypeContentPolicy ErrorType = "content_policy"
	ErrorTypeServer        ErrorType = "server"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeCanceled      ErrorType = "canceled"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// ProviderError is a classified failure from an LLM provider. It preserves
// the underlying SDK error for unwrapping.
type ProviderError struct {
	Provider   string
	Type       ErrorType
	StatusCode int
	Message    string
	Err        error
}

// NewProviderError constructs a classified provider failure.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Type:       errType,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s error (%d): %s", e.Provider, e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Provider, e.Type, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// classifyHTTPError maps an HTTP status code from a provider API onto an
// ErrorType.
func classifyHTTPError(provider string, statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		errType = ErrorTypeAuth
	case statusCode == http.StatusTooManyRequests:
		errType = ErrorTypeRateLimit
	case statusCode == http.StatusBadRequest:
		errType = ErrorTypeBadRequest
	case statusCode >= 500:
		errType = ErrorTypeServer
	default:
		errType = ErrorTypeUnknown
	}
	if message == "" {
		message = "unknown error"
	}
	return NewProviderError(provider, errType, statusCode, message, err)
}

// classifyContextError maps context cancellation and deadline errors.
func classifyContextError(provider string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(provider, ErrorTypeTimeout, 0, "request timed out", err)
	}
	return NewProviderError(provider, ErrorTypeCanceled, 0, "request canceled", err)
}

// isContextError reports whether err is a cancellation or deadline error.
func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
