package dispatch

import (
	"github.com/DeBrosOfficial/pollbus/pkg/codec"
	"github.com/DeBrosOfficial/pollbus/pkg/errors"
)

// Dispatch delivers batch to the handlers in table and returns whether the
// subscription should continue.
//
// A single catch-all sees every batch, empty ones included, and its return
// value is the decision. For route tables an empty batch goes to the connect
// handler and always continues.
//
// Channels are visited in first-appearance order and the decision of the last
// handler invoked wins. A channel with neither a route nor a default aborts
// the dispatch with a RoutingError; handlers already invoked for earlier
// channels have run, but their decisions are discarded.
func Dispatch(batch *Batch, cursor codec.TimeToken, table *Table) (bool, error) {
	token := cursor.Token

	if table.IsSingle() {
		raw := batch.Raw()
		if raw == nil {
			raw = []codec.Envelope{}
		}
		return table.catchAll(raw, token), nil
	}

	if len(batch.Channels) == 0 {
		if table.onConnect != nil {
			table.onConnect(token)
		}
		return true, nil
	}

	decision := true
	for _, ch := range batch.Channels {
		h, ok := table.Lookup(ch)
		if !ok {
			return false, errors.NewRoutingError(ch)
		}
		decision = h(batch.Payloads(ch), token, ch)
	}
	return decision, nil
}
