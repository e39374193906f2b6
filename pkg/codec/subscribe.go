package codec

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/DeBrosOfficial/pollbus/pkg/errors"
)

// Envelope is one inbound message with its routing attributes.
type Envelope struct {
	Channel      string          `json:"c,omitempty"`
	Subscription string          `json:"b,omitempty"`
	Payload      json.RawMessage `json:"d"`
	Publish      *TimeToken      `json:"p,omitempty"`
	Origination  *TimeToken      `json:"o,omitempty"`
	Meta         json.RawMessage `json:"u,omitempty"`
	Sequence     int64           `json:"s,omitempty"`
	Issuer       string          `json:"i,omitempty"`
}

// RouteKey is the channel the envelope is delivered under: the actual
// channel, else the subscription that matched it. Empty means unattributable.
func (e Envelope) RouteKey() string {
	if e.Channel != "" {
		return e.Channel
	}
	return e.Subscription
}

// SubscribeURL builds the long-poll URL for channels resuming at cursor.
func SubscribeURL(origin, subscribeKey string, channels []string, cursor TimeToken) (string, error) {
	if subscribeKey == "" {
		return "", errors.NewConfigurationError("subscribe_key", "subscribe key is required")
	}
	if len(channels) == 0 {
		return "", errors.NewConfigurationError("channel", "at least one channel is required")
	}
	for _, ch := range channels {
		if ch == "" {
			return "", errors.NewConfigurationError("channel", "channel names must not be empty")
		}
	}

	token := cursor.Token
	if token == "" {
		token = ZeroToken
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(origin, "/"))
	b.WriteString("/v2/subscribe/")
	b.WriteString(Escape(subscribeKey))
	b.WriteByte('/')
	b.WriteString(EscapeChannels(channels))
	b.WriteString("/0")

	q := query{}
	q.add("tt", token)
	if cursor.Region != 0 {
		q.add("tr", strconv.Itoa(cursor.Region))
	}
	b.WriteString(q.encode())
	return b.String(), nil
}

// DecodeSubscribe parses a subscribe response body. channel is the
// subscription string used for the request; legacy responses without a
// channel list are attributed to it.
func DecodeSubscribe(body []byte, channel string) (TimeToken, []Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return TimeToken{}, nil, errors.NewDecodeError("empty response", body, nil)
	}

	switch trimmed[0] {
	case '[':
		return decodeLegacy(trimmed, channel)
	case '{':
		return decodeEnvelopes(trimmed)
	default:
		return TimeToken{}, nil, errors.NewDecodeError("unrecognized response shape", body, nil)
	}
}

func decodeLegacy(body []byte, channel string) (TimeToken, []Envelope, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return TimeToken{}, nil, errors.NewDecodeError("", body, err)
	}
	if len(parts) < 2 {
		return TimeToken{}, nil, errors.NewDecodeError("legacy response needs at least 2 elements", body, nil)
	}

	var messages []json.RawMessage
	if err := json.Unmarshal(parts[0], &messages); err != nil {
		return TimeToken{}, nil, errors.NewDecodeError("legacy message list is not an array", body, err)
	}

	token, err := parseToken(parts[1])
	if err != nil {
		return TimeToken{}, nil, errors.NewDecodeError("", body, err)
	}

	var channels []string
	if len(parts) > 2 {
		var list string
		if err := json.Unmarshal(parts[2], &list); err != nil {
			return TimeToken{}, nil, errors.NewDecodeError("legacy channel list is not a string", body, err)
		}
		if list != "" {
			channels = strings.Split(list, ",")
		}
		if len(messages) > 0 && len(channels) != len(messages) {
			return TimeToken{}, nil, errors.NewDecodeError(
				"legacy channel list does not match message count", body, nil)
		}
	}

	envelopes := make([]Envelope, 0, len(messages))
	for i, m := range messages {
		env := Envelope{Payload: m}
		switch {
		case channels != nil:
			env.Channel = channels[i]
		case strings.Contains(channel, ","):
			env.Subscription = channel
		default:
			env.Channel = channel
		}
		envelopes = append(envelopes, env)
	}
	return TimeToken{Token: token}, envelopes, nil
}

func decodeEnvelopes(body []byte) (TimeToken, []Envelope, error) {
	var resp struct {
		T *TimeToken `json:"t"`
		M []Envelope `json:"m"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return TimeToken{}, nil, errors.NewDecodeError("", body, err)
	}
	if resp.T == nil || resp.T.Token == "" {
		return TimeToken{}, nil, errors.NewDecodeError("missing timetoken", body, nil)
	}
	if resp.M == nil {
		resp.M = []Envelope{}
	}
	return *resp.T, resp.M, nil
}

// EncodeEnvelopes renders the multi-channel response shape. It is the
// inverse of DecodeSubscribe for servers and tests.
func EncodeEnvelopes(cursor TimeToken, envelopes []Envelope) ([]byte, error) {
	if envelopes == nil {
		envelopes = []Envelope{}
	}
	return MarshalCompact(struct {
		T TimeToken  `json:"t"`
		M []Envelope `json:"m"`
	}{cursor, envelopes})
}

// EncodeLegacy renders the legacy multiplexed array shape.
func EncodeLegacy(cursor TimeToken, envelopes []Envelope) ([]byte, error) {
	payloads := make([]json.RawMessage, 0, len(envelopes))
	channels := make([]string, 0, len(envelopes))
	for _, env := range envelopes {
		payloads = append(payloads, env.Payload)
		channels = append(channels, env.RouteKey())
	}
	parts := []any{payloads, cursor.Token}
	if len(envelopes) > 0 {
		parts = append(parts, strings.Join(channels, ","))
	}
	return MarshalCompact(parts)
}
