package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if errs := DefaultConfig().Validate(); len(errs) != 0 {
		t.Fatalf("expected default config to validate, got %v", errs)
	}
}

func TestValidateClient(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *ClientConfig)
		wantPath string
	}{
		{"empty host", func(c *ClientConfig) { c.Host = "" }, "client.host"},
		{"host with path", func(c *ClientConfig) { c.Host = "bus.local/x" }, "client.host"},
		{"bad origin scheme", func(c *ClientConfig) { c.Host = "ftp://bus.local" }, "client.host"},
		{"port too large", func(c *ClientConfig) { c.Port = 70000 }, "client.port"},
		{"origin with port", func(c *ClientConfig) { c.Host = "http://bus.local:8090"; c.Port = 9000 }, "client.port"},
		{"http origin with ssl", func(c *ClientConfig) { c.Host = "http://bus.local"; c.SSL = true }, "client.ssl"},
		{"zero request timeout", func(c *ClientConfig) { c.RequestTimeout = 0 }, "client.request_timeout"},
		{"zero subscribe timeout", func(c *ClientConfig) { c.SubscribeTimeout = 0 }, "client.subscribe_timeout"},
		{"no connections", func(c *ClientConfig) { c.MaxConnections = 0 }, "client.max_connections"},
		{"negative retry", func(c *ClientConfig) { c.RetryDelay = -time.Second }, "client.retry_delay"},
		{"bad proxy", func(c *ClientConfig) { c.Proxy = "::nope" }, "client.proxy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.mutate(&cfg)
			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatalf("expected a validation error for %s", tt.wantPath)
			}
			if !strings.HasPrefix(errs[0].Error(), tt.wantPath) {
				t.Errorf("expected error on %s, got %v", tt.wantPath, errs[0])
			}
		})
	}
}

func TestValidateAcceptsHTTPSOriginWithSSL(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.Host = "https://bus.local:8443"
	cfg.SSL = true
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidateAggregates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Client.Host = ""
	cfg.Logging.Level = "loud"
	cfg.MockBus.ListenAddr = "nowhere"

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		cfg  ClientConfig
		want string
	}{
		{ClientConfig{Host: "bus.local"}, "http://bus.local"},
		{ClientConfig{Host: "bus.local", SSL: true}, "https://bus.local"},
		{ClientConfig{Host: "bus.local", Port: 8080}, "http://bus.local:8080"},
		{ClientConfig{Host: "::1", Port: 8080}, "http://[::1]:8080"},
		{ClientConfig{Host: "http://127.0.0.1:4000/", Port: 9999, SSL: true}, "http://127.0.0.1:4000"},
	}
	for _, tt := range tests {
		if got := tt.cfg.Origin(); got != tt.want {
			t.Errorf("Origin(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := ClientConfig{Host: "bus.local", RetryDelay: -1}.WithDefaults()
	if cfg.RequestTimeout != DefaultRequestTimeout || cfg.SubscribeTimeout != DefaultSubscribeTimeout {
		t.Errorf("timeouts not defaulted: %+v", cfg)
	}
	if cfg.MaxConnections != DefaultMaxConnections {
		t.Errorf("expected max connections %d, got %d", DefaultMaxConnections, cfg.MaxConnections)
	}
	if cfg.RetryDelay != 0 {
		t.Errorf("expected negative retry delay to clamp to 0, got %v", cfg.RetryDelay)
	}
}
