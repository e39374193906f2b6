package client

import (
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pollbus/pkg/clock"
	"github.com/DeBrosOfficial/pollbus/pkg/transport"
)

// Option customizes a Client beyond what ClientConfig covers.
type Option func(*options)

type options struct {
	logger *zap.Logger
	port   transport.Port
	clock  clock.Clock
}

// WithLogger replaces the logger derived from QuietMode.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPort replaces the HTTP transport, for tests and custom stacks. The same
// port serves publish, history and the long-poll, so its own timeouts apply.
func WithPort(port transport.Port) Option {
	return func(o *options) { o.port = port }
}

// WithClock replaces the clock used for subscribe retry backoff.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}
