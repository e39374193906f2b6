package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is the top-level configuration file layout.
type Config struct {
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
	MockBus MockBusConfig `yaml:"mockbus"`
}

// ClientConfig holds everything the client engine needs to reach the bus.
// It is treated as immutable once a client has been built from it.
type ClientConfig struct {
	// Host is a bare host name, or a full origin such as
	// http://127.0.0.1:8080. An origin carries its own scheme and port, so
	// Port must then be 0 and SSL may only be set with https.
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"` // 0 means the scheme default
	SSL          bool   `yaml:"ssl"`
	PublishKey   string `yaml:"publish_key"`
	SubscribeKey string `yaml:"subscribe_key"`
	Channel      string `yaml:"channel"` // default channel for publish/subscribe/history

	RequestTimeout   time.Duration `yaml:"request_timeout"`   // inactivity timeout for publish, history, time
	SubscribeTimeout time.Duration `yaml:"subscribe_timeout"` // inactivity timeout for the long-poll
	MaxConnections   int           `yaml:"max_connections"`   // bound on simultaneously open requests
	RetryDelay       time.Duration `yaml:"retry_delay"`       // subscribe backoff after a transport failure

	Proxy     string `yaml:"proxy"`      // explicit proxy URL; empty uses HTTP(S)_PROXY / NO_PROXY
	QuietMode bool   `yaml:"quiet_mode"` // suppress debug/info logs
}

// MockBusConfig configures the local mock bus server.
type MockBusConfig struct {
	ListenAddr  string        `yaml:"listen_addr"`
	HoldTimeout time.Duration `yaml:"hold_timeout"` // how long a subscribe is held open with no messages
	Legacy      bool          `yaml:"legacy"`       // answer subscribes with the legacy array shape
}

const (
	DefaultHost             = "pubsub.pollbus.dev"
	DefaultRequestTimeout   = 10 * time.Second
	DefaultSubscribeTimeout = 310 * time.Second
	DefaultMaxConnections   = 100
	DefaultRetryDelay       = time.Second
)

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return &Config{
		Client: DefaultClientConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Colors: true,
		},
		MockBus: MockBusConfig{
			ListenAddr:  ":8090",
			HoldTimeout: 30 * time.Second,
		},
	}
}

// DefaultClientConfig returns a client configuration with no keys set.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:             DefaultHost,
		RequestTimeout:   DefaultRequestTimeout,
		SubscribeTimeout: DefaultSubscribeTimeout,
		MaxConnections:   DefaultMaxConnections,
		RetryDelay:       DefaultRetryDelay,
	}
}

// WithDefaults fills zero-valued tunables with their defaults. Keys, channel
// and host are left alone.
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.SubscribeTimeout <= 0 {
		c.SubscribeTimeout = DefaultSubscribeTimeout
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// Origin returns scheme://host[:port] with no trailing slash.
func (c ClientConfig) Origin() string {
	host := strings.TrimRight(strings.TrimSpace(c.Host), "/")
	if strings.Contains(host, "://") {
		return host
	}

	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	if c.Port > 0 {
		return fmt.Sprintf("%s://%s", scheme, joinHostPort(host, c.Port))
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}

func joinHostPort(host string, port int) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host + ":" + strconv.Itoa(port)
}
