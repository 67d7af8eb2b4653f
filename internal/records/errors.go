package records

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates an unexpected HTTP status
	ErrTypeHTTP
	// ErrTypeNotFound indicates the record does not exist
	ErrTypeNotFound
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeValidation indicates a record rejected before sending
	ErrTypeValidation
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the store refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeCanceled indicates the caller's context ended the request
	ErrTypeCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeNotFound:
		return "Not Found"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// RecordError represents an error that occurred while talking to the store
type RecordError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the request may be retried
}

// Error implements the error interface
func (e *RecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *RecordError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed error
func ClassifyNetworkError(err error) *RecordError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &RecordError{Type: ErrTypeCanceled, Message: "Request canceled", Err: err}
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &RecordError{Type: ErrTypeTimeout, Message: "Request timed out", Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &RecordError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &RecordError{Type: ErrTypeConnectionRefused, Message: "Connection refused", Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &RecordError{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err, Retryable: true}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *RecordError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &RecordError{Type: ErrTypeNetwork, Message: message, Retryable: true}
	}
	classified.Message = message
	return classified
}

// NewHTTPError creates an error for an unexpected status code.
// 5xx and 429 responses are retryable.
func NewHTTPError(statusCode int, message string) *RecordError {
	if statusCode == http.StatusNotFound {
		return &RecordError{Type: ErrTypeNotFound, Message: message, StatusCode: statusCode}
	}
	return &RecordError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500 || statusCode == http.StatusTooManyRequests,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *RecordError {
	return &RecordError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *RecordError {
	return &RecordError{Type: ErrTypeValidation, Message: message}
}

func typeOf(err error) (ErrorType, bool) {
	var recErr *RecordError
	if errors.As(err, &recErr) {
		return recErr.Type, true
	}
	return 0, false
}

// IsNetworkError checks if an error is a network error (including timeout,
// connection refused and DNS failures)
func IsNetworkError(err error) bool {
	t, ok := typeOf(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsNotFound checks if an error reports a missing record
func IsNotFound(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeNotFound
}

// IsHTTPError checks if an error is an unexpected HTTP status
func IsHTTPError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeHTTP
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeParse
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeValidation
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var recErr *RecordError
	if errors.As(err, &recErr) {
		return recErr.Retryable
	}
	return false
}

// neverSent reports whether a request failed before reaching the store
func neverSent(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeConnectionRefused
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch recErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The record store did not respond in time.",
			"Troubleshooting:",
			"  • Check your internet connection",
			"  • Increase api.timeout_seconds in the config file",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The record store refused the connection.",
			"Troubleshooting:",
			"  • Verify --api-url points at a running service",
			"  • Check that the port is correct",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the record store hostname.",
			"Troubleshooting:",
			"  • Check the spelling of --api-url",
			"  • Check your network DNS settings",
		}, "\n")

	case ErrTypeNotFound:
		return "The record does not exist. Run 'formwizard records list' to see valid ids."

	case ErrTypeHTTP:
		if recErr.StatusCode >= 500 || recErr.StatusCode == http.StatusTooManyRequests {
			return strings.Join([]string{
				fmt.Sprintf("The record store returned HTTP %d.", recErr.StatusCode),
				"The public demo endpoint is rate limited and occasionally unavailable.",
				"Troubleshooting:",
				"  • Wait a minute and retry",
				"  • Point --api-url at your own instance",
			}, "\n")
		}
		return fmt.Sprintf("The record store rejected the request (HTTP %d). Check the record fields.", recErr.StatusCode)

	case ErrTypeParse:
		return "The record store returned an unexpected response. Check that --api-url points at an objects collection."

	case ErrTypeValidation:
		return "The record is invalid. Check the error message for details."

	case ErrTypeCanceled:
		return "The request was canceled."

	default:
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check your network connection",
			"  • Retry in a moment",
		}, "\n")
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		return err.Error()
	}

	switch recErr.Type {
	case ErrTypeTimeout:
		return "Record store not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Record store refused connection"
	case ErrTypeDNS:
		return "Cannot resolve record store hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeNotFound:
		return "Record not found"
	case ErrTypeHTTP:
		return fmt.Sprintf("Record store error (HTTP %d)", recErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse record store response"
	default:
		return recErr.Message
	}
}
