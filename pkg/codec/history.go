package codec

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/DeBrosOfficial/pollbus/pkg/errors"
)

// HistoryOptions narrows a history query. Zero values are omitted.
type HistoryOptions struct {
	Count   int    // maximum messages to return; the bus default applies when zero
	Reverse bool   // oldest first
	Start   string // exclusive lower time-token bound
	End     string // inclusive upper time-token bound
}

// HistoryResult is a page of stored messages plus the time-token range it covers.
type HistoryResult struct {
	Messages []json.RawMessage
	Start    string
	End      string
}

// HistoryURL builds the history query URL for a single channel.
func HistoryURL(origin, subscribeKey, channel string, opts HistoryOptions) (string, error) {
	if subscribeKey == "" {
		return "", errors.NewConfigurationError("subscribe_key", "subscribe key is required")
	}
	if channel == "" {
		return "", errors.NewConfigurationError("channel", "channel is required")
	}
	if opts.Count < 0 {
		return "", errors.NewConfigurationError("count", "count must not be negative")
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(origin, "/"))
	b.WriteString("/v2/history/sub-key/")
	b.WriteString(Escape(subscribeKey))
	b.WriteString("/channel/")
	b.WriteString(Escape(channel))

	var q query
	if opts.Count > 0 {
		q.add("count", strconv.Itoa(opts.Count))
	}
	if opts.Reverse {
		q.add("reverse", "true")
	}
	if opts.Start != "" {
		q.add("start", opts.Start)
	}
	if opts.End != "" {
		q.add("end", opts.End)
	}
	b.WriteString(q.encode())
	return b.String(), nil
}

// DecodeHistory parses [messages, start, end].
func DecodeHistory(body []byte) (*HistoryResult, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, errors.NewDecodeError("", body, err)
	}
	if len(parts) < 3 {
		return nil, errors.NewDecodeError("history response needs 3 elements", body, nil)
	}

	result := &HistoryResult{}
	if err := json.Unmarshal(parts[0], &result.Messages); err != nil {
		return nil, errors.NewDecodeError("history message list is not an array", body, err)
	}
	if result.Messages == nil {
		result.Messages = []json.RawMessage{}
	}

	var err error
	if result.Start, err = parseToken(parts[1]); err != nil {
		return nil, errors.NewDecodeError("invalid history start", body, err)
	}
	if result.End, err = parseToken(parts[2]); err != nil {
		return nil, errors.NewDecodeError("invalid history end", body, err)
	}
	return result, nil
}

// EncodeHistory renders a history response body.
func EncodeHistory(result *HistoryResult) ([]byte, error) {
	messages := result.Messages
	if messages == nil {
		messages = []json.RawMessage{}
	}
	return MarshalCompact([]any{messages, result.Start, result.End})
}
