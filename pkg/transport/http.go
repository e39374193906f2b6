package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpproxy"
	"golang.org/x/sync/semaphore"

	"github.com/DeBrosOfficial/pollbus/pkg/errors"
)

// ErrIdleTimeout is the cause recorded when no bytes arrive within the
// inactivity timeout.
var ErrIdleTimeout = stderrors.New("inactivity timeout")

// ErrResponseTooLarge is the cause recorded when a body exceeds MaxBodyBytes.
var ErrResponseTooLarge = stderrors.New("response too large")

const (
	DefaultIdleTimeout    = 10 * time.Second
	DefaultMaxConnections = 100
	DefaultMaxBodyBytes   = 32 << 20

	userAgent = "pollbus-go/1"
)

// Options configures an HTTPPort.
type Options struct {
	// IdleTimeout aborts a request when neither headers nor body bytes have
	// arrived for this long. It is not a total deadline.
	IdleTimeout time.Duration

	// MaxConnections bounds simultaneously open requests. Further requests
	// wait for a slot.
	MaxConnections int

	// Proxy is an explicit proxy URL. When empty the HTTP_PROXY, HTTPS_PROXY
	// and NO_PROXY environment variables are honored.
	Proxy string

	// MaxBodyBytes caps how much of a response body is read. A larger 2xx
	// body fails with ErrResponseTooLarge rather than being truncated.
	MaxBodyBytes int64

	Logger *zap.Logger
}

// HTTPPort is a Port backed by net/http.
type HTTPPort struct {
	client  *http.Client
	sem     *semaphore.Weighted
	idle    time.Duration
	maxBody int64
	logger  *zap.Logger
}

var _ Port = (*HTTPPort)(nil)
var _ IdleCloser = (*HTTPPort)(nil)

// NewHTTPPort builds a port with its own connection pool.
func NewHTTPPort(opts Options) (*HTTPPort, error) {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = DefaultMaxConnections
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	proxy, err := proxyFunc(opts.Proxy)
	if err != nil {
		return nil, err
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = proxy
	tr.MaxConnsPerHost = opts.MaxConnections
	tr.MaxIdleConnsPerHost = opts.MaxConnections

	return &HTTPPort{
		client:  &http.Client{Transport: tr},
		sem:     semaphore.NewWeighted(int64(opts.MaxConnections)),
		idle:    opts.IdleTimeout,
		maxBody: opts.MaxBodyBytes,
		logger:  opts.Logger,
	}, nil
}

// WithIdleTimeout returns a port sharing this port's connection pool and
// connection limit but using a different inactivity timeout. The subscribe
// loop uses it for the long-poll.
func (p *HTTPPort) WithIdleTimeout(d time.Duration) *HTTPPort {
	clone := *p
	if d > 0 {
		clone.idle = d
	}
	return &clone
}

// IdleTimeout returns the inactivity timeout applied to each request.
func (p *HTTPPort) IdleTimeout() time.Duration {
	return p.idle
}

// Get issues a GET and reads the whole body.
func (p *HTTPPort) Get(ctx context.Context, rawURL string) (*Response, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	start := time.Now()
	resp, err := p.do(ctx, rawURL)
	if err != nil {
		p.logger.Debug("Request failed",
			zap.String("url", logURL(rawURL)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	p.logger.Debug("Request completed",
		zap.String("url", logURL(rawURL)),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// GetAsync runs Get on its own goroutine.
func (p *HTTPPort) GetAsync(ctx context.Context, rawURL string, done func(*Response, error)) {
	go func() {
		done(p.Get(ctx, rawURL))
	}()
}

// CloseIdleConnections drops pooled keep-alive connections so the next
// request dials afresh.
func (p *HTTPPort) CloseIdleConnections() {
	p.client.CloseIdleConnections()
}

func (p *HTTPPort) do(ctx context.Context, rawURL string) (*Response, error) {
	reqCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	watchdog := time.AfterFunc(p.idle, func() { cancel(ErrIdleTimeout) })
	defer watchdog.Stop()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewTransportError(rawURL, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, p.failure(ctx, reqCtx, rawURL, err)
	}
	defer resp.Body.Close()

	// One byte past the cap tells a full body from an oversized one.
	body := &idleReader{r: io.LimitReader(resp.Body, p.maxBody+1), timer: watchdog, idle: p.idle}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, p.failure(ctx, reqCtx, rawURL, err)
	}
	tooLarge := int64(len(data)) > p.maxBody
	if tooLarge {
		data = data[:p.maxBody]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewStatusError(rawURL, resp.StatusCode, data)
	}
	if tooLarge {
		return nil, errors.NewTransportError(rawURL, fmt.Errorf("response exceeds %d bytes: %w", p.maxBody, ErrResponseTooLarge))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

// failure classifies a request error: the caller's own cancellation is passed
// through untouched, everything else becomes a TransportError.
func (p *HTTPPort) failure(parent, reqCtx context.Context, rawURL string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if cause := context.Cause(reqCtx); stderrors.Is(cause, ErrIdleTimeout) {
		return errors.NewTransportError(rawURL, fmt.Errorf("no data for %s: %w", p.idle, ErrIdleTimeout))
	}
	return errors.NewTransportError(rawURL, err)
}

// idleReader pushes the watchdog back every time bytes arrive.
type idleReader struct {
	r     io.Reader
	timer *time.Timer
	idle  time.Duration
}

func (i *idleReader) Read(p []byte) (int, error) {
	n, err := i.r.Read(p)
	if n > 0 {
		i.timer.Reset(i.idle)
	}
	return n, err
}

func proxyFunc(explicit string) (func(*http.Request) (*url.URL, error), error) {
	if explicit != "" {
		u, err := url.Parse(explicit)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, errors.NewConfigurationError("proxy", fmt.Sprintf("invalid proxy URL %q", explicit))
		}
		return http.ProxyURL(u), nil
	}

	fromEnv := httpproxy.FromEnvironment().ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return fromEnv(req.URL)
	}, nil
}

// logURL keeps only the route name; keys and payloads live further down the
// path and in the query.
func logURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	segments := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	keep := 1
	if segments[0] == "v2" {
		keep = 2
	}
	if len(segments) > keep {
		segments = append(segments[:keep], "...")
	}
	return u.Scheme + "://" + u.Host + "/" + strings.Join(segments, "/")
}
