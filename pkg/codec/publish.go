package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/DeBrosOfficial/pollbus/pkg/errors"
)

// OutboundMessage is one message handed to Publish. Optional fields are only
// encoded when set; a nil field falls back to the shared PublishParams.
type OutboundMessage struct {
	Payload     any
	Origination *TimeToken
	Meta        any
	ReadOnce    *bool
	Sequence    *int64
}

// PublishParams are defaults applied to every message of a Publish call.
type PublishParams struct {
	Origination *TimeToken
	Meta        any
	ReadOnce    *bool
	Sequence    *int64
}

// Keys identifies the account on the bus.
type Keys struct {
	Publish   string
	Subscribe string
}

// PublishRequest is an encoded message ready to be issued as a GET.
type PublishRequest struct {
	ID      string // correlation ID for logs, never sent
	URL     string
	Message *OutboundMessage
}

// PublishResult is the decoded body of a publish response, e.g. [1,"Sent","17000000000000000"].
type PublishResult struct {
	Status      int
	Description string
	TimeToken   string
}

// OK reports whether the bus accepted the message.
func (r *PublishResult) OK() bool {
	return r != nil && r.Status == 1
}

// EncodePublish validates msg and builds its publish URL under origin.
func EncodePublish(origin string, keys Keys, channel string, msg *OutboundMessage, params PublishParams) (*PublishRequest, error) {
	if keys.Publish == "" {
		return nil, errors.NewConfigurationError("publish_key", "publish key is required")
	}
	if keys.Subscribe == "" {
		return nil, errors.NewConfigurationError("subscribe_key", "subscribe key is required")
	}
	if channel == "" {
		return nil, errors.NewConfigurationError("channel", "channel is required")
	}
	if msg == nil || msg.Payload == nil {
		return nil, errors.NewConfigurationError("payload", "payload is required")
	}

	payload, err := MarshalCompact(msg.Payload)
	if err != nil {
		return nil, errors.NewConfigurationError("payload", fmt.Sprintf("payload is not JSON encodable: %v", err))
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(origin, "/"))
	b.WriteString("/publish/")
	b.WriteString(Escape(keys.Publish))
	b.WriteByte('/')
	b.WriteString(Escape(keys.Subscribe))
	b.WriteString("/0/")
	b.WriteString(Escape(channel))
	b.WriteString("/0/")
	b.WriteString(Escape(string(payload)))

	var q query
	if meta := pick(msg.Meta, params.Meta); meta != nil {
		data, err := MarshalCompact(meta)
		if err != nil {
			return nil, errors.NewConfigurationError("meta", fmt.Sprintf("meta is not JSON encodable: %v", err))
		}
		q.add("meta", string(data))
	}
	if origination := pickPtr(msg.Origination, params.Origination); origination != nil {
		data, err := json.Marshal(origination)
		if err != nil {
			return nil, errors.NewConfigurationError("origination", err.Error())
		}
		q.add("o", string(data))
	}
	if ear := pickPtr(msg.ReadOnce, params.ReadOnce); ear != nil {
		q.add("ear", strconv.FormatBool(*ear))
	}
	if seqn := pickPtr(msg.Sequence, params.Sequence); seqn != nil {
		q.add("seqn", strconv.FormatInt(*seqn, 10))
	}
	b.WriteString(q.encode())

	return &PublishRequest{
		ID:      uuid.NewString(),
		URL:     b.String(),
		Message: msg,
	}, nil
}

// DecodePublishResult parses a publish response body.
func DecodePublishResult(body []byte) (*PublishResult, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, errors.NewDecodeError("", body, err)
	}
	if len(parts) < 2 {
		return nil, errors.NewDecodeError("publish response needs at least 2 elements", body, nil)
	}

	result := &PublishResult{}
	if err := json.Unmarshal(parts[0], &result.Status); err != nil {
		return nil, errors.NewDecodeError("invalid publish status", body, err)
	}
	if err := json.Unmarshal(parts[1], &result.Description); err != nil {
		return nil, errors.NewDecodeError("invalid publish description", body, err)
	}
	if len(parts) > 2 {
		token, err := parseToken(parts[2])
		if err != nil {
			return nil, errors.NewDecodeError("", body, err)
		}
		result.TimeToken = token
	}
	return result, nil
}

func pick(own, shared any) any {
	if own != nil {
		return own
	}
	return shared
}

func pickPtr[T any](own, shared *T) *T {
	if own != nil {
		return own
	}
	return shared
}
