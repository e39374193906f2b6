package codec

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/DeBrosOfficial/pollbus/pkg/errors"
)

func TestSubscribeURL(t *testing.T) {
	tests := []struct {
		name     string
		channels []string
		cursor   TimeToken
		want     string
	}{
		{
			name:     "initial",
			channels: []string{"news"},
			cursor:   Zero(),
			want:     "http://bus.local/v2/subscribe/demo-sub/news/0?tt=0",
		},
		{
			name:     "empty cursor means zero",
			channels: []string{"news"},
			want:     "http://bus.local/v2/subscribe/demo-sub/news/0?tt=0",
		},
		{
			name:     "multi with region",
			channels: []string{"a b", "c,d"},
			cursor:   TimeToken{Token: "17000000000000001", Region: 12},
			want:     "http://bus.local/v2/subscribe/demo-sub/a%20b,c%2Cd/0?tt=17000000000000001&tr=12",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubscribeURL("http://bus.local", "demo-sub", tt.channels, tt.cursor)
			if err != nil {
				t.Fatalf("SubscribeURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := SubscribeURL("http://bus.local", "demo-sub", nil, Zero()); !errors.Is(err, errors.ErrMissingChannel) {
		t.Errorf("Expected missing channel error, got %v", err)
	}
	if _, err := SubscribeURL("http://bus.local", "", []string{"a"}, Zero()); !errors.Is(err, errors.ErrMissingKey) {
		t.Errorf("Expected missing key error, got %v", err)
	}
}

func TestDecodeLegacy(t *testing.T) {
	cursor, envs, err := DecodeSubscribe([]byte(`[["hello",{"x":1}],"15000000000000000"]`), "news")
	if err != nil {
		t.Fatalf("DecodeSubscribe: %v", err)
	}
	if cursor.Token != "15000000000000000" || cursor.Region != 0 {
		t.Errorf("unexpected cursor %+v", cursor)
	}
	if len(envs) != 2 {
		t.Fatalf("Expected 2 envelopes, got %d", len(envs))
	}
	for _, env := range envs {
		if env.Channel != "news" {
			t.Errorf("Expected channel news, got %q", env.Channel)
		}
	}
	if string(envs[1].Payload) != `{"x":1}` {
		t.Errorf("unexpected payload %s", envs[1].Payload)
	}
}

func TestDecodeLegacyMultiplexed(t *testing.T) {
	_, envs, err := DecodeSubscribe([]byte(`[[1,2,3],"16","a,b,a"]`), "a,b")
	if err != nil {
		t.Fatalf("DecodeSubscribe: %v", err)
	}
	got := []string{envs[0].Channel, envs[1].Channel, envs[2].Channel}
	if !reflect.DeepEqual(got, []string{"a", "b", "a"}) {
		t.Errorf("unexpected channels %v", got)
	}
}

func TestDecodeLegacyWithoutChannelListOnMultiSubscription(t *testing.T) {
	_, envs, err := DecodeSubscribe([]byte(`[[1],"16"]`), "a,b")
	if err != nil {
		t.Fatalf("DecodeSubscribe: %v", err)
	}
	if envs[0].Channel != "" || envs[0].Subscription != "a,b" {
		t.Errorf("Expected attribution to the subscription, got %+v", envs[0])
	}
}

func TestDecodeEmptyBatchKeepsCursor(t *testing.T) {
	cursor, envs, err := DecodeSubscribe([]byte(` [[],17000000000000001] `), "news")
	if err != nil {
		t.Fatalf("DecodeSubscribe: %v", err)
	}
	if len(envs) != 0 {
		t.Errorf("Expected no envelopes, got %d", len(envs))
	}
	if cursor.Token != "17000000000000001" {
		t.Errorf("Expected numeric token kept verbatim, got %q", cursor.Token)
	}
}

func TestDecodeEnvelopes(t *testing.T) {
	body := `{"t":{"t":"17","r":4},"m":[` +
		`{"c":"a","d":"x","p":{"t":"16","r":4},"u":{"k":"v"},"s":3,"i":"pub-1"},` +
		`{"c":"b","b":"b.*","d":2,"o":{"t":15}}]}`

	cursor, envs, err := DecodeSubscribe([]byte(body), "ignored")
	if err != nil {
		t.Fatalf("DecodeSubscribe: %v", err)
	}
	if cursor != (TimeToken{Token: "17", Region: 4}) {
		t.Errorf("unexpected cursor %+v", cursor)
	}
	if len(envs) != 2 {
		t.Fatalf("Expected 2 envelopes, got %d", len(envs))
	}

	first := envs[0]
	if first.Channel != "a" || string(first.Payload) != `"x"` || first.Sequence != 3 || first.Issuer != "pub-1" {
		t.Errorf("unexpected first envelope %+v", first)
	}
	if first.Publish == nil || first.Publish.Token != "16" {
		t.Errorf("unexpected publish token %+v", first.Publish)
	}
	if string(first.Meta) != `{"k":"v"}` {
		t.Errorf("unexpected meta %s", first.Meta)
	}

	second := envs[1]
	if second.Subscription != "b.*" || second.Origination == nil || second.Origination.Token != "15" {
		t.Errorf("unexpected second envelope %+v", second)
	}
}

func TestDecodeSubscribeErrors(t *testing.T) {
	bodies := map[string]string{
		"empty":              ``,
		"not json":           `<html>`,
		"truncated":          `[[1,2`,
		"scalar":             `"hello"`,
		"short array":        `[[]]`,
		"messages not array": `[1,"16"]`,
		"null token":         `[[],null]`,
		"count mismatch":     `[[1,2],"16","a"]`,
		"missing token":      `{"m":[]}`,
		"empty token":        `{"t":{"t":""},"m":[]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeSubscribe([]byte(body), "c")
			if !errors.IsDecode(err) {
				t.Errorf("Expected DecodeError, got %v", err)
			}
		})
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	cursor := TimeToken{Token: "18", Region: 1}
	envs := []Envelope{
		{Channel: "a", Payload: json.RawMessage(`1`)},
		{Channel: "b", Payload: json.RawMessage(`{"n":2}`), Publish: &TimeToken{Token: "17", Region: 1}},
		{Channel: "a", Payload: json.RawMessage(`"three"`), Issuer: "x"},
	}

	t.Run("envelope shape", func(t *testing.T) {
		body, err := EncodeEnvelopes(cursor, envs)
		if err != nil {
			t.Fatalf("EncodeEnvelopes: %v", err)
		}
		gotCursor, got, err := DecodeSubscribe(body, "a,b")
		if err != nil {
			t.Fatalf("DecodeSubscribe: %v", err)
		}
		if gotCursor != cursor {
			t.Errorf("Expected cursor %+v, got %+v", cursor, gotCursor)
		}
		if !reflect.DeepEqual(got, envs) {
			t.Errorf("Expected %+v, got %+v", envs, got)
		}
	})

	t.Run("legacy shape", func(t *testing.T) {
		body, err := EncodeLegacy(cursor, envs)
		if err != nil {
			t.Fatalf("EncodeLegacy: %v", err)
		}
		_, got, err := DecodeSubscribe(body, "a,b")
		if err != nil {
			t.Fatalf("DecodeSubscribe: %v", err)
		}
		for i := range envs {
			if got[i].Channel != envs[i].Channel || string(got[i].Payload) != string(envs[i].Payload) {
				t.Errorf("envelope %d: expected %s on %s, got %s on %s",
					i, envs[i].Payload, envs[i].Channel, got[i].Payload, got[i].Channel)
			}
		}
	})
}
