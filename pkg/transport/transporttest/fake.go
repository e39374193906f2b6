// Package transporttest provides a scripted transport.Port for tests.
package transporttest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/DeBrosOfficial/pollbus/pkg/errors"
	"github.com/DeBrosOfficial/pollbus/pkg/transport"
)

// Reply is one scripted outcome. Err wins over Status; Status defaults to 200.
type Reply struct {
	Status int
	Body   string
	Err    error
	Delay  time.Duration
}

// OK is a 200 reply with body.
func OK(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// Status is a reply with the given status code.
func Status(code int) Reply {
	return Reply{Status: code}
}

// Responder decides the reply for a request URL.
type Responder func(url string) Reply

// Sequence plays replies in order and then keeps repeating the last one.
func Sequence(replies ...Reply) Responder {
	var mu sync.Mutex
	i := 0
	return func(string) Reply {
		mu.Lock()
		defer mu.Unlock()
		r := replies[i]
		if i < len(replies)-1 {
			i++
		}
		return r
	}
}

// Port is a transport.Port driven by a Responder.
type Port struct {
	respond Responder

	mu         sync.Mutex
	calls      []string
	idleCloses int
}

var _ transport.Port = (*Port)(nil)
var _ transport.IdleCloser = (*Port)(nil)

// NewPort creates a fake port.
func NewPort(respond Responder) *Port {
	return &Port{respond: respond}
}

// Get records url and returns the scripted reply.
func (p *Port) Get(ctx context.Context, url string) (*transport.Response, error) {
	p.mu.Lock()
	p.calls = append(p.calls, url)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := p.respond(url)
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if r.Err != nil {
		return nil, r.Err
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	if status < 200 || status > 299 {
		return nil, errors.NewStatusError(url, status, []byte(r.Body))
	}
	return &transport.Response{StatusCode: status, Header: http.Header{}, Body: []byte(r.Body)}, nil
}

// GetAsync runs Get on its own goroutine.
func (p *Port) GetAsync(ctx context.Context, url string, done func(*transport.Response, error)) {
	go func() {
		done(p.Get(ctx, url))
	}()
}

// CloseIdleConnections counts calls.
func (p *Port) CloseIdleConnections() {
	p.mu.Lock()
	p.idleCloses++
	p.mu.Unlock()
}

// Calls returns the URLs requested so far.
func (p *Port) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// IdleCloses returns how many times CloseIdleConnections was called.
func (p *Port) IdleCloses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idleCloses
}
