// Package publish sends a batch of messages to one channel concurrently and
// reports each outcome back to the caller.
package publish

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pollbus/pkg/codec"
	"github.com/DeBrosOfficial/pollbus/pkg/transport"
)

// Callback receives the outcome of one message. It is called once per
// message, never concurrently, on the goroutine that called Publish.
type Callback func(result *codec.PublishResult, err error, msg *codec.OutboundMessage)

// Pipeline encodes, sends and collects publish requests.
type Pipeline struct {
	port   transport.Port
	origin string
	keys   codec.Keys
	logger *zap.Logger
}

// NewPipeline creates a pipeline that publishes to origin through port.
func NewPipeline(port transport.Port, origin string, keys codec.Keys, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		port:   port,
		origin: origin,
		keys:   keys,
		logger: logger,
	}
}

type completion struct {
	req  *codec.PublishRequest
	resp *transport.Response
	err  error
}

// Publish sends every message in msgs to channel and blocks until each one
// has completed and been reported to cb.
//
// All messages are encoded before anything is sent; if any of them is invalid
// the ConfigurationError is returned and nothing goes on the wire. After that
// each message succeeds or fails on its own: a failed send is handed to cb as
// that message's error and is not retried.
func (p *Pipeline) Publish(ctx context.Context, msgs []*codec.OutboundMessage, channel string, params codec.PublishParams, cb Callback) error {
	if len(msgs) == 0 {
		return nil
	}
	if cb == nil {
		cb = func(*codec.PublishResult, error, *codec.OutboundMessage) {}
	}

	reqs := make([]*codec.PublishRequest, 0, len(msgs))
	for _, msg := range msgs {
		req, err := codec.EncodePublish(p.origin, p.keys, channel, msg, params)
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
	}

	start := time.Now()
	done := make(chan completion, len(reqs))
	for _, req := range reqs {
		req := req
		p.logger.Debug("Publishing message",
			zap.String("request_id", req.ID),
			zap.String("channel", channel))
		p.port.GetAsync(ctx, req.URL, func(resp *transport.Response, err error) {
			done <- completion{req: req, resp: resp, err: err}
		})
	}

	failed := 0
	for range reqs {
		c := <-done
		result, err := p.complete(c)
		if err != nil {
			failed++
			p.logger.Warn("Publish failed",
				zap.String("request_id", c.req.ID),
				zap.String("channel", channel),
				zap.Error(err))
		}
		cb(result, err, c.req.Message)
	}

	p.logger.Debug("Publish batch finished",
		zap.String("channel", channel),
		zap.Int("messages", len(reqs)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (p *Pipeline) complete(c completion) (*codec.PublishResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	return codec.DecodePublishResult(c.resp.Body)
}
