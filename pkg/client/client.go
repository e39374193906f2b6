// Package client is the entry point for applications talking to the bus:
// it wires configuration, transport, the publish pipeline and the subscribe
// loop behind one Client.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pollbus/pkg/clock"
	"github.com/DeBrosOfficial/pollbus/pkg/codec"
	"github.com/DeBrosOfficial/pollbus/pkg/config"
	"github.com/DeBrosOfficial/pollbus/pkg/dispatch"
	pberrors "github.com/DeBrosOfficial/pollbus/pkg/errors"
	"github.com/DeBrosOfficial/pollbus/pkg/publish"
	"github.com/DeBrosOfficial/pollbus/pkg/subscribe"
	"github.com/DeBrosOfficial/pollbus/pkg/transport"
)

// Client implements PubSubClient over HTTP long-polling. It is safe for
// concurrent use; any number of Publish and Subscribe calls may run at once
// and share one connection pool.
type Client struct {
	config config.ClientConfig
	origin string
	keys   codec.Keys
	logger *zap.Logger

	port     transport.Port // publish, history, time
	longPoll transport.Port // subscribe
	clock    clock.Clock
	pipeline *publish.Pipeline

	startTime time.Time
	mu        sync.RWMutex
	closed    bool
}

// NewClient validates cfg and builds a client. Keys and channel are checked
// per call, so a subscribe-only client needs no publish key.
func NewClient(cfg config.ClientConfig, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = newClientLogger(cfg.QuietMode)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}
	if o.clock == nil {
		o.clock = clock.Real()
	}

	c := &Client{
		config:    cfg,
		origin:    cfg.Origin(),
		keys:      codec.Keys{Publish: cfg.PublishKey, Subscribe: cfg.SubscribeKey},
		logger:    logger,
		clock:     o.clock,
		startTime: time.Now(),
	}

	if o.port != nil {
		c.port, c.longPoll = o.port, o.port
	} else {
		hp, err := transport.NewHTTPPort(transport.Options{
			IdleTimeout:    cfg.RequestTimeout,
			MaxConnections: cfg.MaxConnections,
			Proxy:          cfg.Proxy,
			Logger:         logger.Named("transport"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create transport: %w", err)
		}
		c.port = hp
		c.longPoll = hp.WithIdleTimeout(cfg.SubscribeTimeout)
	}

	c.pipeline = publish.NewPipeline(c.port, c.origin, c.keys, logger.Named("publish"))

	logger.Debug("Client created",
		zap.String("origin", c.origin),
		zap.Int("max_connections", cfg.MaxConnections),
		zap.Duration("subscribe_timeout", cfg.SubscribeTimeout))
	return c, nil
}

// Config returns a snapshot copy of the client's configuration
func (c *Client) Config() config.ClientConfig {
	return c.config
}

// Publish sends msgs to channel (the configured default channel when empty).
// See publish.Pipeline.Publish for the delivery contract.
func (c *Client) Publish(ctx context.Context, msgs []*Message, channel string, params PublishParams, cb PublishCallback) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.pipeline.Publish(ctx, msgs, c.channelOr(channel), params, cb)
}

// Subscribe delivers every message on channel to handler. channel may list
// several channels separated by commas; handler then sees each one's messages
// separately. An empty channel means the configured default.
func (c *Client) Subscribe(ctx context.Context, channel string, handler Handler, resume TimeToken) error {
	if handler == nil {
		return pberrors.NewConfigurationError("handler", "a handler is required")
	}
	return c.run(ctx, splitChannels(c.channelOr(channel)), dispatch.Routes(nil, dispatch.WithDefault(handler)), resume)
}

// SubscribeMulti subscribes to channels starting now and routes each batch
// through table, built with dispatch.Single or dispatch.Routes.
//
// A legacy two-element response carries no channel names, so with more than
// one channel its messages are keyed by the joined list ("a,b"). A Routes
// table then needs a default handler, or the subscription fails with a
// RoutingError.
func (c *Client) SubscribeMulti(ctx context.Context, channels []string, table *Table) error {
	return c.run(ctx, channels, table, TimeToken{})
}

// SubscribeMultiFrom is SubscribeMulti resuming at a previous cursor.
func (c *Client) SubscribeMultiFrom(ctx context.Context, channels []string, table *Table, resume TimeToken) error {
	return c.run(ctx, channels, table, resume)
}

func (c *Client) run(ctx context.Context, channels []string, table *Table, resume TimeToken) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	loop := subscribe.NewLoop(c.longPoll, c.origin, c.keys.Subscribe, subscribe.Options{
		RetryDelay: c.config.RetryDelay,
		Clock:      c.clock,
		Logger:     c.logger.Named("subscribe"),
	})

	err := loop.Run(ctx, channels, table, resume)
	stats := loop.Stats()
	c.logger.Debug("Subscription ended",
		zap.Strings("channels", channels),
		zap.Int("requests", stats.Requests),
		zap.Int("retries", stats.Retries),
		zap.Int("messages", stats.Messages),
		zap.String("timetoken", stats.TimeToken),
		zap.Error(err))

	if err != nil && !pberrors.IsCancelled(err) && !pberrors.IsConfiguration(err) {
		return NewClientError("subscribe", strings.Join(channels, ","), err)
	}
	return err
}

// Close releases pooled connections. Subscriptions already running are not
// interrupted; cancel their contexts for that.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if ic, ok := c.port.(transport.IdleCloser); ok {
		ic.CloseIdleConnections()
	}
	c.logger.Debug("Client closed", zap.Duration("uptime", time.Since(c.startTime)))
	return nil
}

func (c *Client) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *Client) channelOr(channel string) string {
	if channel != "" {
		return channel
	}
	return c.config.Channel
}

func splitChannels(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, ch := range strings.Split(s, ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			out = append(out, ch)
		}
	}
	return out
}
