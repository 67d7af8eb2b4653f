package records

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"timeout", timeoutErr{}, ErrTypeTimeout, true},
		{"deadline", context.DeadlineExceeded, ErrTypeTimeout, true},
		{"canceled", context.Canceled, ErrTypeCanceled, false},
		{"dns", &net.DNSError{Name: "api.example", Err: "no such host"}, ErrTypeDNS, false},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, ErrTypeConnectionRefused, true},
		{"url wrapped dns", &url.Error{Op: "Get", URL: "http://x", Err: &net.DNSError{Name: "x"}}, ErrTypeDNS, false},
		{"generic", errors.New("boom"), ErrTypeNetwork, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
		})
	}

	if ClassifyNetworkError(nil) != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestNewHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		wantType  ErrorType
		retryable bool
	}{
		{http.StatusNotFound, ErrTypeNotFound, false},
		{http.StatusBadRequest, ErrTypeHTTP, false},
		{http.StatusTooManyRequests, ErrTypeHTTP, true},
		{http.StatusInternalServerError, ErrTypeHTTP, true},
		{http.StatusServiceUnavailable, ErrTypeHTTP, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := NewHTTPError(tt.status, "x")
			if err.Type != tt.wantType || err.Retryable != tt.retryable {
				t.Errorf("got %v/%v, want %v/%v", err.Type, err.Retryable, tt.wantType, tt.retryable)
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	cause := errors.New("root cause")
	err := fmt.Errorf("listing: %w", NewParseError("bad body", cause))

	if !IsParseError(err) {
		t.Error("IsParseError should see through wrapping")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the root cause")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}

func TestErrorTypeString(t *testing.T) {
	if ErrTypeDNS.String() != "DNS Error" {
		t.Errorf("String() = %s", ErrTypeDNS.String())
	}
	if ErrorType(99).String() != "ErrorType(99)" {
		t.Errorf("String() = %s", ErrorType(99).String())
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&RecordError{Type: ErrTypeTimeout}, "Record store not responding (timeout)"},
		{&RecordError{Type: ErrTypeNotFound}, "Record not found"},
		{NewHTTPError(502, "x"), "Record store error (HTTP 502)"},
		{NewValidationError("record name cannot be empty"), "record name cannot be empty"},
		{errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		if got := GetShortErrorMessage(tt.err); got != tt.want {
			t.Errorf("GetShortErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	if hint := GetTroubleshootingHint(NewHTTPError(503, "x")); !strings.Contains(hint, "rate limited") {
		t.Errorf("5xx hint = %q", hint)
	}
	if hint := GetTroubleshootingHint(&RecordError{Type: ErrTypeNotFound}); !strings.Contains(hint, "records list") {
		t.Errorf("not found hint = %q", hint)
	}
	if hint := GetTroubleshootingHint(errors.New("x")); hint == "" {
		t.Error("hint should never be empty")
	}
}
