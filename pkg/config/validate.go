package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "client.max_connections"
	Message string // e.g., "must be at least 1"
	Hint    string // e.g., "the transport queues requests beyond this bound"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
// Keys and channel are not required here: they are checked per call, since a
// subscribe-only client has no publish key.
func (c *Config) Validate() []error {
	var errs []error
	errs = append(errs, c.Client.Validate()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateMockBus()...)
	return errs
}

// Validate checks the client section on its own.
func (c ClientConfig) Validate() []error {
	var errs []error

	host := strings.TrimSpace(c.Host)
	switch {
	case host == "":
		errs = append(errs, ValidationError{
			Path:    "client.host",
			Message: "must not be empty",
		})
	case strings.Contains(host, "://"):
		u, err := url.Parse(host)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, ValidationError{
				Path:    "client.host",
				Message: fmt.Sprintf("invalid origin %q", host),
				Hint:    "expected http://host[:port] or a bare host name",
			})
		}
		if err == nil && c.Port != 0 {
			errs = append(errs, ValidationError{
				Path:    "client.port",
				Message: fmt.Sprintf("must be 0 when host is a full origin, got %d", c.Port),
				Hint:    "put the port in the origin, e.g. http://host:8090",
			})
		}
		if err == nil && c.SSL && u.Scheme == "http" {
			errs = append(errs, ValidationError{
				Path:    "client.ssl",
				Message: fmt.Sprintf("conflicts with origin %q", host),
				Hint:    "use an https:// origin or a bare host name",
			})
		}
	case strings.ContainsAny(host, "/?#"):
		errs = append(errs, ValidationError{
			Path:    "client.host",
			Message: fmt.Sprintf("invalid host %q", host),
			Hint:    "path and query belong to the request, not the host",
		})
	}

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, ValidationError{
			Path:    "client.port",
			Message: fmt.Sprintf("must be between 0 and 65535, got %d", c.Port),
		})
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "client.request_timeout",
			Message: "must be positive",
		})
	}
	if c.SubscribeTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "client.subscribe_timeout",
			Message: "must be positive",
			Hint:    "the bus holds long-polls for several minutes; 310s is typical",
		})
	}
	if c.MaxConnections < 1 {
		errs = append(errs, ValidationError{
			Path:    "client.max_connections",
			Message: "must be at least 1",
			Hint:    "the transport queues requests beyond this bound",
		})
	}
	if c.RetryDelay < 0 {
		errs = append(errs, ValidationError{
			Path:    "client.retry_delay",
			Message: "must not be negative",
		})
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Host == "" {
			errs = append(errs, ValidationError{
				Path:    "client.proxy",
				Message: fmt.Sprintf("invalid proxy URL %q", c.Proxy),
				Hint:    "expected http://proxy:3128 or socks5://proxy:1080",
			})
		}
	}
	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
			Hint:    "one of debug, info, warn, error",
		})
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("unknown format %q", c.Logging.Format),
			Hint:    "one of console, json",
		})
	}
	return errs
}

func (c *Config) validateMockBus() []error {
	var errs []error
	if c.MockBus.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.MockBus.ListenAddr); err != nil {
			errs = append(errs, ValidationError{
				Path:    "mockbus.listen_addr",
				Message: fmt.Sprintf("invalid address %q", c.MockBus.ListenAddr),
				Hint:    "expected host:port or :port",
			})
		}
	}
	if c.MockBus.HoldTimeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "mockbus.hold_timeout",
			Message: "must not be negative",
		})
	}
	return errs
}
