// Package dispatch groups decoded messages by channel and delivers them to
// the caller's handlers.
package dispatch

import (
	"encoding/json"

	"github.com/DeBrosOfficial/pollbus/pkg/codec"
)

// Handler receives one channel's messages from a batch, in arrival order.
// Returning false stops the subscription.
type Handler func(payloads []json.RawMessage, timetoken string, channel string) bool

// CatchAll receives every envelope of a batch, ungrouped. Empty batches are
// delivered too, as an empty slice.
// Returning false stops the subscription.
type CatchAll func(envelopes []codec.Envelope, timetoken string) bool

// ConnectHandler is told the time-token of each batch that carried no messages.
type ConnectHandler func(timetoken string)

// Table decides which handler sees which channel. It is either a single
// catch-all or a route map with optional default and connect handlers.
// A Table is immutable once built.
type Table struct {
	catchAll  CatchAll
	routes    map[string]Handler
	fallback  Handler
	onConnect ConnectHandler
}

// Option configures a route table.
type Option func(*Table)

// Single builds a table that hands every batch to h.
func Single(h CatchAll) *Table {
	return &Table{catchAll: h}
}

// Routes builds a table from exact channel routes. The map is copied.
func Routes(routes map[string]Handler, opts ...Option) *Table {
	t := &Table{routes: make(map[string]Handler, len(routes))}
	for ch, h := range routes {
		if h != nil {
			t.routes[ch] = h
		}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithDefault routes channels that have no exact route to h.
func WithDefault(h Handler) Option {
	return func(t *Table) { t.fallback = h }
}

// WithConnect registers h for empty batches.
func WithConnect(h ConnectHandler) Option {
	return func(t *Table) { t.onConnect = h }
}

// IsSingle reports whether the table is a single catch-all.
func (t *Table) IsSingle() bool {
	return t.catchAll != nil
}

// Lookup returns the handler for channel: the exact route, else the default.
func (t *Table) Lookup(channel string) (Handler, bool) {
	if h, ok := t.routes[channel]; ok {
		return h, true
	}
	if t.fallback != nil {
		return t.fallback, true
	}
	return nil, false
}
