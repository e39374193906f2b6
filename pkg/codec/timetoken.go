package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ZeroToken is the cursor value meaning "start of time". A subscribe with the
// zero token returns immediately with the current token and no messages.
const ZeroToken = "0"

// TimeToken is an opaque position in the message stream plus an optional
// region. Region zero means "unset" and is never sent.
type TimeToken struct {
	Token  string `json:"t"`
	Region int    `json:"r"`
}

// Zero returns the start-of-time cursor.
func Zero() TimeToken {
	return TimeToken{Token: ZeroToken}
}

// IsZero reports whether the token is empty or the start-of-time token.
func (t TimeToken) IsZero() bool {
	return t.Token == "" || t.Token == ZeroToken
}

func (t TimeToken) String() string {
	if t.Region != 0 {
		return fmt.Sprintf("%s@%d", t.Token, t.Region)
	}
	return t.Token
}

// UnmarshalJSON accepts {"t": token, "r": region} where token is a JSON
// string or number, and also a bare string or number token.
func (t *TimeToken) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var raw struct {
			T json.RawMessage `json:"t"`
			R int             `json:"r"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		token, err := parseToken(raw.T)
		if err != nil {
			return err
		}
		t.Token, t.Region = token, raw.R
		return nil
	}

	token, err := parseToken(data)
	if err != nil {
		return err
	}
	t.Token, t.Region = token, 0
	return nil
}

// parseToken reads a time-token written either as a JSON string or a JSON
// number. Numbers are kept verbatim so 17-digit tokens do not lose precision.
func parseToken(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("missing timetoken")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid timetoken: %w", err)
		}
		if s == "" {
			return "", fmt.Errorf("empty timetoken")
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid timetoken %s: %w", truncateRaw(raw), err)
	}
	return n.String(), nil
}

func truncateRaw(raw []byte) string {
	if len(raw) > 32 {
		return string(raw[:32]) + "..."
	}
	return string(raw)
}
