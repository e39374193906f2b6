package client

import (
	"context"

	"github.com/DeBrosOfficial/pollbus/pkg/codec"
	"github.com/DeBrosOfficial/pollbus/pkg/config"
	"github.com/DeBrosOfficial/pollbus/pkg/dispatch"
	"github.com/DeBrosOfficial/pollbus/pkg/publish"
)

// PubSubClient is the caller-facing API of the bus client.
type PubSubClient interface {
	// Publish sends msgs to channel concurrently and reports each outcome to
	// cb before returning.
	Publish(ctx context.Context, msgs []*Message, channel string, params PublishParams, cb PublishCallback) error

	// Subscribe long-polls channel until handler returns false, ctx is done,
	// or a fatal error occurs.
	Subscribe(ctx context.Context, channel string, handler Handler, resume TimeToken) error

	// SubscribeMulti long-polls several channels and routes each batch
	// through table.
	SubscribeMulti(ctx context.Context, channels []string, table *Table) error

	// History fetches stored messages for a channel.
	History(ctx context.Context, channel string, opts HistoryOptions) (*HistoryResult, error)

	// Time returns the bus's current time-token.
	Time(ctx context.Context) (string, error)

	// Config access (snapshot copy)
	Config() config.ClientConfig

	Close() error
}

// Types re-exported so most callers only import this package.
type (
	Message         = codec.OutboundMessage
	PublishParams   = codec.PublishParams
	PublishResult   = codec.PublishResult
	PublishCallback = publish.Callback
	TimeToken       = codec.TimeToken
	Envelope        = codec.Envelope
	HistoryOptions  = codec.HistoryOptions
	HistoryResult   = codec.HistoryResult
	Handler         = dispatch.Handler
	CatchAll        = dispatch.CatchAll
	Table           = dispatch.Table
)

var _ PubSubClient = (*Client)(nil)
