package mockbus

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DeBrosOfficial/pollbus/pkg/codec"
)

type record struct {
	subscribeKey string
	token        uint64
	readOnce     bool
	env          codec.Envelope
}

// Store is an append-only, in-memory message log shared by all keys.
// Time-tokens are unix time in 100ns units and strictly increasing.
type Store struct {
	mu      sync.Mutex
	records []record
	last    uint64
	changed chan struct{}
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		changed: make(chan struct{}),
		now:     time.Now,
	}
}

// Now returns the current time-token. Messages appended later always get a
// larger token, so Now is a safe subscribe cursor.
func (s *Store) Now() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.clockToken(); t > s.last {
		s.last = t
	}
	return s.last
}

// Append stores env under subscribeKey and wakes waiting subscribers. The
// envelope's publish token is assigned here.
func (s *Store) Append(subscribeKey string, env codec.Envelope, readOnce bool, region int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.clockToken()
	if token <= s.last {
		token = s.last + 1
	}
	s.last = token

	env.Publish = &codec.TimeToken{Token: formatToken(token), Region: region}
	s.records = append(s.records, record{
		subscribeKey: subscribeKey,
		token:        token,
		readOnce:     readOnce,
		env:          env,
	})

	close(s.changed)
	s.changed = make(chan struct{})
	return token
}

// Since returns every envelope under subscribeKey newer than after that
// matches one of subscriptions, the cursor to resume from, and a channel
// that is closed on the next Append.
func (s *Store) Since(subscribeKey string, subscriptions []string, after uint64) ([]codec.Envelope, uint64, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []codec.Envelope
	for _, rec := range s.records {
		if rec.token <= after || rec.subscribeKey != subscribeKey {
			continue
		}
		if sub, ok := match(subscriptions, rec.env.Channel); ok {
			env := rec.env
			if sub != env.Channel {
				env.Subscription = sub
			}
			out = append(out, env)
		}
	}

	cursor := after
	if s.last > cursor {
		cursor = s.last
	}
	return out, cursor, s.changed
}

// History returns up to count stored payloads for channel with tokens in
// (start, end], oldest first. Without reverse the newest count are kept,
// with reverse the oldest. Read-once messages are not kept in history.
func (s *Store) History(subscribeKey, channel string, count int, reverse bool, start, end uint64) ([]json.RawMessage, uint64, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []record
	for _, rec := range s.records {
		if rec.subscribeKey != subscribeKey || rec.env.Channel != channel || rec.readOnce {
			continue
		}
		if rec.token <= start || (end > 0 && rec.token > end) {
			continue
		}
		matched = append(matched, rec)
	}

	if count > 0 && len(matched) > count {
		if reverse {
			matched = matched[:count]
		} else {
			matched = matched[len(matched)-count:]
		}
	}
	if len(matched) == 0 {
		return []json.RawMessage{}, 0, 0
	}

	payloads := make([]json.RawMessage, len(matched))
	for i, rec := range matched {
		payloads[i] = rec.env.Payload
	}
	return payloads, matched[0].token, matched[len(matched)-1].token
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) clockToken() uint64 {
	return uint64(s.now().UnixNano() / 100)
}

// match finds the subscription covering channel. "room.*" covers every
// channel starting with "room.".
func match(subscriptions []string, channel string) (string, bool) {
	for _, sub := range subscriptions {
		if sub == channel {
			return sub, true
		}
	}
	for _, sub := range subscriptions {
		if prefix, ok := strings.CutSuffix(sub, "*"); ok && strings.HasSuffix(prefix, ".") && strings.HasPrefix(channel, prefix) {
			return sub, true
		}
	}
	return "", false
}

func formatToken(t uint64) string {
	return strconv.FormatUint(t, 10)
}

func parseToken(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
