package codec

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// Escape percent-encodes every byte of s except the RFC 3986 unreserved
// characters (A-Z a-z 0-9 - . _ ~). Unlike url.PathEscape it also encodes
// sub-delimiters such as ',', ':', '@' and '=' which appear in JSON.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EscapeChannels escapes each channel and joins them with a literal comma,
// which the subscribe endpoint uses as the channel separator.
func EscapeChannels(channels []string) string {
	escaped := make([]string, 0, len(channels))
	for _, ch := range channels {
		escaped = append(escaped, Escape(ch))
	}
	return strings.Join(escaped, ",")
}

// MarshalCompact renders v as compact JSON without HTML escaping, so "<" and
// "&" in payloads reach the bus as written.
func MarshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// query accumulates key=value pairs in insertion order.
type query []string

func (q *query) add(key, value string) {
	*q = append(*q, key+"="+Escape(value))
}

func (q query) encode() string {
	if len(q) == 0 {
		return ""
	}
	return "?" + strings.Join(q, "&")
}
