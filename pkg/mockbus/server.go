// Package mockbus is an in-memory message bus that speaks the pollbus wire
// protocol. It backs the end-to-end tests and the mockbus command.
package mockbus

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pollbus/pkg/codec"
	"github.com/DeBrosOfficial/pollbus/pkg/logging"
)

const (
	DefaultHoldTimeout = 30 * time.Second
	maxHistoryCount    = 100
)

// Options configures a Server.
type Options struct {
	HoldTimeout time.Duration // how long an idle subscribe is held open
	Legacy      bool          // answer subscribes with the legacy array shape
	Region      int           // region stamped on every time-token
	Logger      *logging.ColoredLogger
}

// Server is the mock bus HTTP server.
type Server struct {
	opts   Options
	store  *Store
	router chi.Router
	logger *logging.ColoredLogger
	server *http.Server
	issuer string
}

// New creates a server with an empty store.
func New(opts Options) *Server {
	if opts.HoldTimeout <= 0 {
		opts.HoldTimeout = DefaultHoldTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	s := &Server{
		opts:   opts,
		store:  NewStore(),
		router: chi.NewRouter(),
		logger: opts.Logger,
		issuer: uuid.NewString(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "messages": s.store.Len()})
	})
	s.router.Get("/time/0", s.handleTime)
	s.router.Get("/publish/*", s.handlePublish)
	s.router.Get("/v2/subscribe/*", s.handleSubscribe)
	s.router.Get("/v2/history/*", s.handleHistory)

	return s
}

// Router returns the chi router for testing or extension
func (s *Server) Router() chi.Router {
	return s.router
}

// Store exposes the message log.
func (s *Server) Store() *Store {
	return s.store
}

// Start listens on addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.server = &http.Server{Handler: s.router}

	s.logger.ComponentInfo(logging.ComponentMockBus, "Mock bus starting",
		zap.String("listen_addr", listener.Addr().String()),
		zap.Duration("hold_timeout", s.opts.HoldTimeout),
		zap.Bool("legacy", s.opts.Legacy),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err, ok := <-errCh:
		if ok {
			s.logger.ComponentError(logging.ComponentMockBus, "Mock bus server error", zap.Error(err))
			return err
		}
		return nil
	}
}

// Stop gracefully stops the server. Held subscribes are released.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.ComponentInfo(logging.ComponentMockBus, "Mock bus shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.ComponentError(logging.ComponentMockBus, "Mock bus shutdown error", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, "[%d]", s.store.Now())
}

// handlePublish serves /publish/{pub}/{sub}/0/{channel}/0/{payload}.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	seg, err := pathSegments(r, "/publish/", 6)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	pubKey, subKey, channel, payload := seg[0], seg[1], seg[3], seg[5]
	if pubKey == "" || subKey == "" {
		writeStatus(w, http.StatusForbidden, "Invalid Key")
		return
	}
	if channel == "" {
		writeStatus(w, http.StatusBadRequest, "Invalid Channel")
		return
	}
	if !json.Valid([]byte(payload)) {
		writeStatus(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	env := codec.Envelope{
		Channel: channel,
		Payload: json.RawMessage(payload),
		Issuer:  s.issuerFor(r),
	}

	q := r.URL.Query()
	if meta := q.Get("meta"); meta != "" {
		if !json.Valid([]byte(meta)) {
			writeStatus(w, http.StatusBadRequest, "Invalid Meta")
			return
		}
		env.Meta = json.RawMessage(meta)
	}
	if o := q.Get("o"); o != "" {
		var tt codec.TimeToken
		if err := json.Unmarshal([]byte(o), &tt); err != nil {
			writeStatus(w, http.StatusBadRequest, "Invalid Origination")
			return
		}
		env.Origination = &tt
	}
	readOnce := false
	if ear := q.Get("ear"); ear != "" {
		if readOnce, err = strconv.ParseBool(ear); err != nil {
			writeStatus(w, http.StatusBadRequest, "Invalid Read-Once Flag")
			return
		}
	}
	if seqn := q.Get("seqn"); seqn != "" {
		if env.Sequence, err = strconv.ParseInt(seqn, 10, 64); err != nil {
			writeStatus(w, http.StatusBadRequest, "Invalid Sequence")
			return
		}
	}

	token := s.store.Append(subKey, env, readOnce, s.opts.Region)
	s.logger.ComponentDebug(logging.ComponentMockBus, "Message published",
		zap.String("channel", channel),
		zap.Uint64("timetoken", token),
	)
	writeJSON(w, http.StatusOK, []any{1, "Sent", formatToken(token)})
}

// handleSubscribe serves /v2/subscribe/{sub}/{channels}/0?tt=..
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	raw, err := rawSegments(r, "/v2/subscribe/", 3)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	subKey, err := url.PathUnescape(raw[0])
	if err != nil || subKey == "" {
		writeStatus(w, http.StatusForbidden, "Invalid Key")
		return
	}
	var channels []string
	for _, part := range strings.Split(raw[1], ",") {
		ch, err := url.PathUnescape(part)
		if err != nil || ch == "" {
			writeStatus(w, http.StatusBadRequest, "Invalid Channel")
			return
		}
		channels = append(channels, ch)
	}

	after, err := parseToken(r.URL.Query().Get("tt"))
	if err != nil {
		writeStatus(w, http.StatusBadRequest, "Invalid Timetoken")
		return
	}

	if after == 0 {
		s.writeBatch(w, s.store.Now(), nil)
		return
	}

	hold := time.NewTimer(s.opts.HoldTimeout)
	defer hold.Stop()
	for {
		envs, cursor, changed := s.store.Since(subKey, channels, after)
		if len(envs) > 0 {
			s.writeBatch(w, cursor, envs)
			return
		}
		select {
		case <-changed:
		case <-hold.C:
			s.writeBatch(w, after, nil)
			return
		case <-r.Context().Done():
			return
		}
	}
}

// handleHistory serves /v2/history/sub-key/{sub}/channel/{channel}.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	seg, err := pathSegments(r, "/v2/history/", 4)
	if err != nil || seg[0] != "sub-key" || seg[2] != "channel" {
		writeStatus(w, http.StatusBadRequest, "Invalid History Path")
		return
	}
	subKey, channel := seg[1], seg[3]
	if subKey == "" {
		writeStatus(w, http.StatusForbidden, "Invalid Key")
		return
	}

	q := r.URL.Query()
	count := maxHistoryCount
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeStatus(w, http.StatusBadRequest, "Invalid Count")
			return
		}
		if n > 0 && n < maxHistoryCount {
			count = n
		}
	}
	reverse := q.Get("reverse") == "true"
	start, err1 := parseToken(q.Get("start"))
	end, err2 := parseToken(q.Get("end"))
	if err1 != nil || err2 != nil {
		writeStatus(w, http.StatusBadRequest, "Invalid Timetoken")
		return
	}

	msgs, first, last := s.store.History(subKey, channel, count, reverse, start, end)
	body, err := codec.EncodeHistory(&codec.HistoryResult{
		Messages: msgs,
		Start:    formatToken(first),
		End:      formatToken(last),
	})
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) writeBatch(w http.ResponseWriter, cursor uint64, envs []codec.Envelope) {
	tt := codec.TimeToken{Token: formatToken(cursor), Region: s.opts.Region}

	var body []byte
	var err error
	if s.opts.Legacy {
		body, err = codec.EncodeLegacy(tt, envs)
	} else {
		body, err = codec.EncodeEnvelopes(tt, envs)
	}
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// issuerFor uses the publisher's uuid query parameter when present and the
// server's own ID otherwise.
func (s *Server) issuerFor(r *http.Request) string {
	if id := r.URL.Query().Get("uuid"); id != "" {
		return id
	}
	return s.issuer
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.ComponentDebug(logging.ComponentMockBus, "Request served",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("route", routeName(r.URL.Path)),
			zap.Int("status", sw.status),
			zap.Int("bytes", sw.bytes),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// rawSegments splits the still-escaped path after prefix into exactly n
// segments.
func rawSegments(r *http.Request, prefix string, n int) ([]string, error) {
	rest, ok := strings.CutPrefix(r.URL.EscapedPath(), prefix)
	if !ok {
		return nil, fmt.Errorf("unexpected path")
	}
	seg := strings.Split(rest, "/")
	if len(seg) != n {
		return nil, fmt.Errorf("expected %d path segments, got %d", n, len(seg))
	}
	return seg, nil
}

// pathSegments is rawSegments with each segment unescaped.
func pathSegments(r *http.Request, prefix string, n int) ([]string, error) {
	seg, err := rawSegments(r, prefix, n)
	if err != nil {
		return nil, err
	}
	for i, s := range seg {
		if seg[i], err = url.PathUnescape(s); err != nil {
			return nil, fmt.Errorf("invalid escape in segment %d", i)
		}
	}
	return seg, nil
}

func routeName(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if len(parts) > 1 && parts[0] == "v2" {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
