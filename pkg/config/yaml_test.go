package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
client:
  host: bus.example.com
  ssl: true
  publish_key: pub-123
  subscribe_key: sub-456
  channel: lobby
  retry_delay: 250ms
logging:
  level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Client.Origin() != "https://bus.example.com" {
		t.Errorf("unexpected origin %q", cfg.Client.Origin())
	}
	if cfg.Client.PublishKey != "pub-123" || cfg.Client.SubscribeKey != "sub-456" {
		t.Errorf("keys not loaded: %+v", cfg.Client)
	}
	if cfg.Client.RetryDelay != 250*time.Millisecond {
		t.Errorf("expected retry delay 250ms, got %v", cfg.Client.RetryDelay)
	}
	if cfg.Client.SubscribeTimeout != DefaultSubscribeTimeout {
		t.Errorf("expected default subscribe timeout to survive, got %v", cfg.Client.SubscribeTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadFileRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "client:\n  hots: typo.example.com\n")
	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadFileEmpty(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("empty file should load defaults: %v", err)
	}
	if cfg.Client.Host != DefaultHost {
		t.Errorf("expected default host, got %q", cfg.Client.Host)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("POLLBUS_HOST", "env.example.com")
	t.Setenv("POLLBUS_PORT", "8443")
	t.Setenv("POLLBUS_SSL", "yes")
	t.Setenv("POLLBUS_PUBLISH_KEY", "pub-env")
	t.Setenv("POLLBUS_RETRY_DELAY", "2s")
	t.Setenv("POLLBUS_QUIET", "not-a-bool")
	t.Setenv("MOCKBUS_HOLD", "5s")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Client.Origin() != "https://env.example.com:8443" {
		t.Errorf("unexpected origin %q", cfg.Client.Origin())
	}
	if cfg.Client.PublishKey != "pub-env" {
		t.Errorf("expected publish key from env, got %q", cfg.Client.PublishKey)
	}
	if cfg.Client.RetryDelay != 2*time.Second {
		t.Errorf("expected 2s retry delay, got %v", cfg.Client.RetryDelay)
	}
	if cfg.Client.QuietMode {
		t.Error("unparseable bool should keep the default")
	}
	if cfg.MockBus.HoldTimeout != 5*time.Second {
		t.Errorf("expected 5s hold, got %v", cfg.MockBus.HoldTimeout)
	}
}

func TestDefaultPath(t *testing.T) {
	path, ok, err := DefaultPath("/etc/pollbus.yaml")
	if err != nil || !ok || path != "/etc/pollbus.yaml" {
		t.Fatalf("explicit path should win: %q %v %v", path, ok, err)
	}

	t.Setenv("POLLBUS_CONFIG", "/tmp/from-env.yaml")
	path, ok, err = DefaultPath("")
	if err != nil || !ok || path != "/tmp/from-env.yaml" {
		t.Fatalf("env path should be used: %q %v %v", path, ok, err)
	}
}
