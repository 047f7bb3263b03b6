package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information.
// Code is 0 for failures that produced no HTTP response.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a transport failure
func NewNetworkError(err error) *Error {
	return &Error{
		Type:    ErrorTypeNetwork,
		Message: fmt.Sprintf("network error: %v", err),
		Err:     err,
	}
}

// FromStatusCode classifies a non-success HTTP status
func FromStatusCode(statusCode int) *Error {
	errType := ErrorTypeUnknown
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		errType = ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		errType = ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		errType = ErrorTypeRateLimit
	case statusCode >= 500:
		errType = ErrorTypeServerError
	}

	return &Error{
		Type:    errType,
		Message: fmt.Sprintf("unexpected status code: %d", statusCode),
		Code:    statusCode,
	}
}

// AuthError is returned when the token endpoint rejects the client credentials.
// Body carries the raw response for diagnostics.
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to get access token: %v", e.Err)
	}
	return fmt.Sprintf("failed to get access token (status %d): %s", e.StatusCode, e.Body)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// DataLoadError is returned when the input table cannot be read.
// Line is 0 when the problem is not tied to a specific row.
type DataLoadError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	msg := fmt.Sprintf("failed to load %s", e.Path)
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500
	}
}
