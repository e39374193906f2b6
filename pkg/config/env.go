package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getEnvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// ApplyEnv overlays POLLBUS_* and MOCKBUS_* environment variables.
// Priority for callers: flags > env > file > defaults.
func (c *Config) ApplyEnv() {
	cc := &c.Client
	cc.Host = getEnvDefault("POLLBUS_HOST", cc.Host)
	cc.Port = getEnvIntDefault("POLLBUS_PORT", cc.Port)
	cc.SSL = getEnvBoolDefault("POLLBUS_SSL", cc.SSL)
	cc.PublishKey = getEnvDefault("POLLBUS_PUBLISH_KEY", cc.PublishKey)
	cc.SubscribeKey = getEnvDefault("POLLBUS_SUBSCRIBE_KEY", cc.SubscribeKey)
	cc.Channel = getEnvDefault("POLLBUS_CHANNEL", cc.Channel)
	cc.Proxy = getEnvDefault("POLLBUS_PROXY", cc.Proxy)
	cc.QuietMode = getEnvBoolDefault("POLLBUS_QUIET", cc.QuietMode)
	cc.RetryDelay = getEnvDurationDefault("POLLBUS_RETRY_DELAY", cc.RetryDelay)

	c.Logging.Level = getEnvDefault("POLLBUS_LOG_LEVEL", c.Logging.Level)

	c.MockBus.ListenAddr = getEnvDefault("MOCKBUS_ADDR", c.MockBus.ListenAddr)
	c.MockBus.HoldTimeout = getEnvDurationDefault("MOCKBUS_HOLD", c.MockBus.HoldTimeout)
	c.MockBus.Legacy = getEnvBoolDefault("MOCKBUS_LEGACY", c.MockBus.Legacy)
}
