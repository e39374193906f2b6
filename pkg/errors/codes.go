package errors

// Error codes for categorizing errors.
const (
	// CodeUnknown indicates an error that did not come from this package.
	CodeUnknown = "UNKNOWN"

	// CodeConfiguration indicates a missing key or channel, raised before any
	// network call.
	CodeConfiguration = "CONFIGURATION"

	// CodeTransport indicates a connectivity failure, timeout or non-2xx status.
	CodeTransport = "TRANSPORT"

	// CodeDecode indicates a response body that could not be parsed.
	CodeDecode = "DECODE"

	// CodeRouting indicates an inbound channel that no handler accepts.
	CodeRouting = "ROUTING"
)

// Retryable reports whether the subscribe loop retries errors with this code.
// Only transport failures are retried; everything else is terminal.
func Retryable(code string) bool {
	return code == CodeTransport
}
