package client

import (
	"errors"
	"fmt"
)

// Common client errors
var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("client closed")

	// ErrInvalidConfig indicates the client configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ClientError records which client operation failed. Typed errors from
// pkg/errors stay reachable through Unwrap.
type ClientError struct {
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError creates a new ClientError
func NewClientError(op, message string, err error) *ClientError {
	return &ClientError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
