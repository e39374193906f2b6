package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrMissingKey is returned when a publish or subscribe key is not configured.
	ErrMissingKey = errors.New("missing key")

	// ErrMissingChannel is returned when no channel was given and no default is configured.
	ErrMissingChannel = errors.New("missing channel")

	// ErrNoHandler is returned when an inbound channel has no handler and no default.
	ErrNoHandler = errors.New("cannot route channel")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// ConfigurationError reports a missing or invalid client setting detected
// before any request was issued.
type ConfigurationError struct {
	*BaseError
	Field string
}

// NewConfigurationError creates a new configuration error for the given field.
func NewConfigurationError(field, message string) *ConfigurationError {
	var cause error
	switch field {
	case "publish_key", "subscribe_key":
		cause = ErrMissingKey
	case "channel":
		cause = ErrMissingChannel
	}
	return &ConfigurationError{
		BaseError: &BaseError{
			code:    CodeConfiguration,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Field: field,
	}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("configuration error: %s", e.message)
}

// TransportError reports a connectivity failure, an inactivity timeout, or a
// non-2xx response. StatusCode is zero when no response was received.
type TransportError struct {
	*BaseError
	URL        string
	StatusCode int
}

// NewTransportError wraps a failure that happened before a response arrived.
func NewTransportError(url string, cause error) *TransportError {
	return &TransportError{
		BaseError: &BaseError{
			code:    CodeTransport,
			message: "request failed",
			cause:   cause,
			stack:   captureStack(1),
		},
		URL: url,
	}
}

// NewStatusError records a response whose status code was not 2xx.
func NewStatusError(url string, statusCode int, body []byte) *TransportError {
	message := fmt.Sprintf("unexpected status %d", statusCode)
	if snippet := truncate(body, 128); snippet != "" {
		message = fmt.Sprintf("%s: %s", message, snippet)
	}
	return &TransportError{
		BaseError: &BaseError{
			code:    CodeTransport,
			message: message,
			stack:   captureStack(1),
		},
		URL:        url,
		StatusCode: statusCode,
	}
}

// Temporary reports whether the failure is the kind a retry would plausibly
// fix: no response at all, 408, 429 or any 5xx.
func (e *TransportError) Temporary() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// DecodeError reports a response body that could not be parsed. Body keeps a
// truncated copy for diagnostics.
type DecodeError struct {
	*BaseError
	Body string
}

// NewDecodeError creates a new decode error.
func NewDecodeError(message string, body []byte, cause error) *DecodeError {
	if message == "" {
		message = "malformed response"
	}
	return &DecodeError{
		BaseError: &BaseError{
			code:    CodeDecode,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Body: truncate(body, 256),
	}
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("decode error: %s: %v", e.message, e.cause)
	}
	return fmt.Sprintf("decode error: %s", e.message)
}

// RoutingError reports an inbound channel with no matching handler and no
// default handler.
type RoutingError struct {
	*BaseError
	Channel string
}

// NewRoutingError creates a new routing error.
func NewRoutingError(channel string) *RoutingError {
	return &RoutingError{
		BaseError: &BaseError{
			code:    CodeRouting,
			message: fmt.Sprintf("no handler for channel %q", channel),
			cause:   ErrNoHandler,
			stack:   captureStack(1),
		},
		Channel: channel,
	}
}

// Error implements the error interface.
func (e *RoutingError) Error() string {
	return fmt.Sprintf("%s %q: no handler and no default", ErrNoHandler.Error(), e.Channel)
}

// Wrap wraps an error with additional context, preserving the code of typed
// errors. Plain errors are returned unchanged under a generic code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	code := CodeUnknown
	if e, ok := err.(Error); ok {
		code = e.Code()
	}
	return &BaseError{
		code:    code,
		message: message,
		cause:   err,
		stack:   captureStack(1),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

func truncate(body []byte, max int) string {
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
