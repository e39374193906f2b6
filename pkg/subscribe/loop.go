// Package subscribe runs the long-poll loop that keeps a subscription open.
//
// Each iteration issues one subscribe request with the current cursor,
// dispatches whatever arrived, and advances the cursor to the token the bus
// returned. Transport failures are retried forever with the same cursor after
// a fixed delay; decode and routing failures end the loop.
package subscribe

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pollbus/pkg/clock"
	"github.com/DeBrosOfficial/pollbus/pkg/codec"
	"github.com/DeBrosOfficial/pollbus/pkg/dispatch"
	"github.com/DeBrosOfficial/pollbus/pkg/errors"
	"github.com/DeBrosOfficial/pollbus/pkg/transport"
)

// Options tunes a Loop. A nil Clock or Logger picks the real clock and a
// no-op logger.
type Options struct {
	RetryDelay time.Duration // pause before retrying a failed request; zero retries at once
	Clock      clock.Clock
	Logger     *zap.Logger
}

// Stats is a snapshot of a loop's progress.
type Stats struct {
	Requests  int
	Retries   int
	Batches   int
	Messages  int
	TimeToken string // cursor of the last dispatched batch
}

// Loop is a subscribe loop bound to one port and account. A Loop may be Run
// more than once, but not concurrently.
type Loop struct {
	port         transport.Port
	origin       string
	subscribeKey string
	retryDelay   time.Duration
	clock        clock.Clock
	logger       *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// NewLoop creates a loop subscribing through port.
func NewLoop(port transport.Port, origin, subscribeKey string, opts Options) *Loop {
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Loop{
		port:         port,
		origin:       origin,
		subscribeKey: subscribeKey,
		retryDelay:   opts.RetryDelay,
		clock:        opts.Clock,
		logger:       opts.Logger,
	}
}

// Run subscribes to channels starting at resume (the zero TimeToken means
// "now") and dispatches every batch through table.
//
// It returns nil when a handler asks to stop, ctx.Err() when ctx is done, a
// ConfigurationError for bad arguments, and a DecodeError or RoutingError
// when a batch cannot be delivered.
func (l *Loop) Run(ctx context.Context, channels []string, table *dispatch.Table, resume codec.TimeToken) error {
	if table == nil {
		return errors.NewConfigurationError("handler", "a dispatch table is required")
	}

	cursor := resume
	if cursor.Token == "" {
		cursor = codec.Zero()
	}
	subscription := strings.Join(channels, ",")
	logger := l.logger.With(zap.String("channel", subscription))

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		url, err := codec.SubscribeURL(l.origin, l.subscribeKey, channels, cursor)
		if err != nil {
			return err
		}

		l.update(func(s *Stats) { s.Requests++ })
		resp, err := l.port.Get(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Retryable(errors.GetCode(err)) {
				return err
			}

			failures++
			l.update(func(s *Stats) { s.Retries++ })
			logger.Warn("Subscribe request failed, retrying",
				zap.String("timetoken", cursor.Token),
				zap.Int("attempt", failures),
				zap.Duration("delay", l.retryDelay),
				zap.Error(err))

			if ic, ok := l.port.(transport.IdleCloser); ok {
				ic.CloseIdleConnections()
			}
			if err := l.backoff(ctx); err != nil {
				return err
			}
			continue
		}

		if failures > 0 {
			logger.Info("Subscribe recovered", zap.Int("failed_attempts", failures))
			failures = 0
		}

		next, envelopes, err := codec.DecodeSubscribe(resp.Body, subscription)
		if err != nil {
			logger.Error("Subscribe response could not be decoded", zap.Error(err))
			return err
		}

		batch := dispatch.Demux(envelopes)
		logger.Debug("Batch received",
			zap.String("timetoken", next.Token),
			zap.Int("messages", len(envelopes)),
			zap.Strings("channels", batch.Channels))

		cont, err := dispatch.Dispatch(batch, next, table)
		l.update(func(s *Stats) {
			s.Batches++
			s.Messages += len(envelopes)
			s.TimeToken = next.Token
		})
		if err != nil {
			logger.Error("Batch could not be routed", zap.Error(err))
			return err
		}
		if !cont {
			logger.Debug("Handler stopped the subscription", zap.String("timetoken", next.Token))
			return nil
		}

		cursor = next
	}
}

// Stats returns a snapshot of the loop's counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Loop) update(fn func(*Stats)) {
	l.mu.Lock()
	fn(&l.stats)
	l.mu.Unlock()
}

func (l *Loop) backoff(ctx context.Context) error {
	if l.retryDelay == 0 {
		return ctx.Err()
	}
	select {
	case <-l.clock.After(l.retryDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
