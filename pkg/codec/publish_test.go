package codec

import (
	"strings"
	"testing"

	"github.com/DeBrosOfficial/pollbus/pkg/errors"
)

var testKeys = Keys{Publish: "demo-pub", Subscribe: "demo-sub"}

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain-Name_1.~", "plain-Name_1.~"},
		{"my channel", "my%20channel"},
		{`{"text":"a+b"}`, "%7B%22text%22%3A%22a%2Bb%22%7D"},
		{"a,b/c?d=e&f@g", "a%2Cb%2Fc%3Fd%3De%26f%40g"},
		{"ü", "%C3%BC"},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodePublish(t *testing.T) {
	req, err := EncodePublish("http://bus.local/", testKeys, "my channel",
		&OutboundMessage{Payload: map[string]int{"n": 1}}, PublishParams{})
	if err != nil {
		t.Fatalf("EncodePublish: %v", err)
	}

	want := "http://bus.local/publish/demo-pub/demo-sub/0/my%20channel/0/%7B%22n%22%3A1%7D"
	if req.URL != want {
		t.Errorf("Expected URL\n  %s\ngot\n  %s", want, req.URL)
	}
	if req.ID == "" {
		t.Error("Expected a request ID")
	}
	if req.Message == nil || req.Message.Payload == nil {
		t.Error("Expected descriptor to point back at the message")
	}
}

func TestEncodePublishDoesNotEscapeHTML(t *testing.T) {
	req, err := EncodePublish("http://bus.local", testKeys, "c",
		&OutboundMessage{Payload: "<b>&"}, PublishParams{})
	if err != nil {
		t.Fatalf("EncodePublish: %v", err)
	}
	if !strings.HasSuffix(req.URL, "/0/%22%3Cb%3E%26%22") {
		t.Errorf("unexpected payload encoding: %s", req.URL)
	}
}

func TestEncodePublishQueryParams(t *testing.T) {
	yes, no := true, false
	seqn := int64(7)

	params := PublishParams{
		Meta:     map[string]string{"k": "v"},
		ReadOnce: &yes,
		Sequence: &seqn,
	}
	msg := &OutboundMessage{
		Payload:     1,
		Origination: &TimeToken{Token: "123", Region: 2},
		ReadOnce:    &no,
	}

	req, err := EncodePublish("http://bus.local", testKeys, "c", msg, params)
	if err != nil {
		t.Fatalf("EncodePublish: %v", err)
	}

	_, query, found := strings.Cut(req.URL, "?")
	if !found {
		t.Fatalf("Expected a query string in %s", req.URL)
	}
	want := "meta=%7B%22k%22%3A%22v%22%7D" +
		"&o=%7B%22t%22%3A%22123%22%2C%22r%22%3A2%7D" +
		"&ear=false" +
		"&seqn=7"
	if query != want {
		t.Errorf("Expected query\n  %s\ngot\n  %s", want, query)
	}
}

func TestEncodePublishOmitsUnsetParams(t *testing.T) {
	req, err := EncodePublish("http://bus.local", testKeys, "c", &OutboundMessage{Payload: "x"}, PublishParams{})
	if err != nil {
		t.Fatalf("EncodePublish: %v", err)
	}
	if strings.Contains(req.URL, "?") {
		t.Errorf("Expected no query string, got %s", req.URL)
	}
}

func TestEncodePublishValidation(t *testing.T) {
	tests := []struct {
		name    string
		keys    Keys
		channel string
		msg     *OutboundMessage
		field   string
	}{
		{"missing publish key", Keys{Subscribe: "s"}, "c", &OutboundMessage{Payload: 1}, "publish_key"},
		{"missing subscribe key", Keys{Publish: "p"}, "c", &OutboundMessage{Payload: 1}, "subscribe_key"},
		{"missing channel", testKeys, "", &OutboundMessage{Payload: 1}, "channel"},
		{"missing payload", testKeys, "c", &OutboundMessage{}, "payload"},
		{"nil message", testKeys, "c", nil, "payload"},
		{"unencodable payload", testKeys, "c", &OutboundMessage{Payload: make(chan int)}, "payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodePublish("http://bus.local", tt.keys, tt.channel, tt.msg, PublishParams{})
			var cfgErr *errors.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestDecodePublishResult(t *testing.T) {
	res, err := DecodePublishResult([]byte(`[1,"Sent","17000000000000001"]`))
	if err != nil {
		t.Fatalf("DecodePublishResult: %v", err)
	}
	if !res.OK() || res.Description != "Sent" || res.TimeToken != "17000000000000001" {
		t.Errorf("unexpected result %+v", res)
	}

	res, err = DecodePublishResult([]byte(`[0,"Invalid Key"]`))
	if err != nil {
		t.Fatalf("DecodePublishResult: %v", err)
	}
	if res.OK() {
		t.Error("Expected status 0 not to be OK")
	}

	for _, body := range []string{`{}`, `[1]`, `["x","Sent"]`, `nope`} {
		if _, err := DecodePublishResult([]byte(body)); !errors.IsDecode(err) {
			t.Errorf("body %s: expected DecodeError, got %v", body, err)
		}
	}
}
