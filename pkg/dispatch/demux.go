package dispatch

import (
	"encoding/json"

	"github.com/DeBrosOfficial/pollbus/pkg/codec"
)

// Batch is one subscribe response grouped by channel. Channels lists each
// channel once, in order of first appearance.
type Batch struct {
	Channels []string
	groups   map[string][]codec.Envelope
	raw      []codec.Envelope
}

// Demux groups envelopes by RouteKey, keeping arrival order across and within
// channels. Envelopes with no channel attribution are left out of the groups
// but kept in the raw sequence.
func Demux(envelopes []codec.Envelope) *Batch {
	b := &Batch{
		groups: make(map[string][]codec.Envelope),
		raw:    envelopes,
	}
	for _, env := range envelopes {
		key := env.RouteKey()
		if key == "" {
			continue
		}
		if _, seen := b.groups[key]; !seen {
			b.Channels = append(b.Channels, key)
		}
		b.groups[key] = append(b.groups[key], env)
	}
	return b
}

// Envelopes returns the grouped envelopes for channel.
func (b *Batch) Envelopes(channel string) []codec.Envelope {
	return b.groups[channel]
}

// Payloads returns the payloads for channel in arrival order.
func (b *Batch) Payloads(channel string) []json.RawMessage {
	envs := b.groups[channel]
	out := make([]json.RawMessage, len(envs))
	for i, env := range envs {
		out[i] = env.Payload
	}
	return out
}

// Raw returns every decoded envelope, ungrouped.
func (b *Batch) Raw() []codec.Envelope {
	return b.raw
}

// Len is the number of grouped messages.
func (b *Batch) Len() int {
	n := 0
	for _, envs := range b.groups {
		n += len(envs)
	}
	return n
}
