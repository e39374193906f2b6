// Package transport issues the HTTP GET requests the client engine is built on.
//
// Port is the seam between the engine and the network: the publish pipeline
// uses GetAsync, the subscribe loop and one-shot queries use Get. HTTPPort is
// the production implementation; tests substitute their own Port.
package transport

import (
	"context"
	"net/http"
)

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Port issues GET requests. Implementations must be safe for concurrent use.
//
// A non-2xx status, a connection failure or an inactivity timeout is reported
// as an *errors.TransportError. Cancellation of ctx is reported as ctx.Err().
type Port interface {
	Get(ctx context.Context, url string) (*Response, error)

	// GetAsync issues the request in the background and calls done exactly
	// once, from an arbitrary goroutine, when it completes.
	GetAsync(ctx context.Context, url string, done func(*Response, error))
}

// IdleCloser is implemented by ports that pool connections.
type IdleCloser interface {
	CloseIdleConnections()
}
