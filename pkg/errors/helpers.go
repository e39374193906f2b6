package errors

import (
	"context"
	"errors"
)

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool {
	if err == nil {
		return false
	}

	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsDecode checks if an error is a decode error.
func IsDecode(err error) bool {
	if err == nil {
		return false
	}

	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

// IsRouting checks if an error is a routing error.
func IsRouting(err error) bool {
	if err == nil {
		return false
	}

	var routingErr *RoutingError
	return errors.As(err, &routingErr) || errors.Is(err, ErrNoHandler)
}

// IsCancelled checks if an error came from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// GetCode extracts the error code from an error.
func GetCode(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}
	return CodeUnknown
}

// StatusCode returns the HTTP status carried by a transport error, or zero.
func StatusCode(err error) int {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode
	}
	return 0
}

// Is and As re-export the standard library helpers so callers importing this
// package under the name errors keep them.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }
