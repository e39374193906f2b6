package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestConfigurationError(t *testing.T) {
	tests := []struct {
		name          string
		field         string
		message       string
		expectedError string
		sentinel      error
	}{
		{
			name:          "publish key",
			field:         "publish_key",
			message:       "publish key is required",
			expectedError: "configuration error: publish_key: publish key is required",
			sentinel:      ErrMissingKey,
		},
		{
			name:          "channel",
			field:         "channel",
			message:       "channel is required",
			expectedError: "configuration error: channel: channel is required",
			sentinel:      ErrMissingChannel,
		},
		{
			name:          "without field",
			field:         "",
			message:       "bad origin",
			expectedError: "configuration error: bad origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigurationError(tt.field, tt.message)
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error %q, got %q", tt.expectedError, err.Error())
			}
			if err.Code() != CodeConfiguration {
				t.Errorf("Expected code %q, got %q", CodeConfiguration, err.Code())
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("Expected error to match sentinel %v", tt.sentinel)
			}
			if !IsConfiguration(err) {
				t.Error("Expected IsConfiguration to be true")
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Run("wraps cause", func(t *testing.T) {
		err := NewTransportError("http://bus/x", io.ErrUnexpectedEOF)
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Error("Expected cause to be unwrappable")
		}
		if err.StatusCode != 0 {
			t.Errorf("Expected status 0, got %d", err.StatusCode)
		}
		if !err.Temporary() {
			t.Error("Expected connection failure to be temporary")
		}
		if !IsTransport(fmt.Errorf("subscribe: %w", err)) {
			t.Error("Expected IsTransport through fmt wrapping")
		}
	})

	t.Run("status classification", func(t *testing.T) {
		tests := []struct {
			status    int
			temporary bool
		}{
			{400, false},
			{403, false},
			{408, true},
			{429, true},
			{500, true},
			{503, true},
		}
		for _, tt := range tests {
			err := NewStatusError("http://bus/x", tt.status, nil)
			if err.Temporary() != tt.temporary {
				t.Errorf("status %d: expected temporary=%v", tt.status, tt.temporary)
			}
			if StatusCode(err) != tt.status {
				t.Errorf("Expected StatusCode %d, got %d", tt.status, StatusCode(err))
			}
		}
	})

	t.Run("long body is truncated", func(t *testing.T) {
		err := NewStatusError("http://bus/x", 500, []byte(strings.Repeat("x", 1000)))
		if len(err.Error()) > 200 {
			t.Errorf("Expected truncated message, got %d bytes", len(err.Error()))
		}
	})
}

func TestDecodeError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewDecodeError("", []byte(`[[1,2`), cause)

	if err.Error() != "decode error: malformed response: unexpected end of JSON input" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if err.Body != "[[1,2" {
		t.Errorf("Expected body snippet to be kept, got %q", err.Body)
	}
	if !IsDecode(err) || IsTransport(err) {
		t.Error("decode error must be distinct from transport error")
	}
	if Retryable(GetCode(err)) {
		t.Error("decode errors must not be retryable")
	}
}

func TestRoutingError(t *testing.T) {
	err := NewRoutingError("alerts")
	if err.Channel != "alerts" {
		t.Errorf("Expected channel alerts, got %q", err.Channel)
	}
	if !errors.Is(err, ErrNoHandler) {
		t.Error("Expected routing error to match ErrNoHandler")
	}
	if GetCode(err) != CodeRouting {
		t.Errorf("Expected code %q, got %q", CodeRouting, GetCode(err))
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) must be nil")
	}

	plain := Wrap(errors.New("boom"), "ctx")
	if GetCode(plain) != CodeUnknown {
		t.Errorf("Expected code %q, got %q", CodeUnknown, GetCode(plain))
	}

	typed := Wrapf(NewTransportError("u", io.EOF), "attempt %d", 3)
	if GetCode(typed) != CodeTransport {
		t.Errorf("Expected code %q, got %q", CodeTransport, GetCode(typed))
	}
	if !strings.HasPrefix(typed.Error(), "attempt 3: ") {
		t.Errorf("unexpected message: %q", typed.Error())
	}
	if !Retryable(GetCode(typed)) {
		t.Error("Expected wrapped transport error to stay retryable")
	}
}

func TestStackTrace(t *testing.T) {
	err := NewRoutingError("x")
	if len(err.Stack()) == 0 {
		t.Fatal("Expected captured stack")
	}
	if !strings.Contains(err.StackTrace(), "TestStackTrace") {
		t.Errorf("Expected stack trace to mention the caller, got:\n%s", err.StackTrace())
	}
}
