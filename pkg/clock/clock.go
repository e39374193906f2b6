// Package clock abstracts the time operations the subscribe loop depends on,
// so retry backoff can be driven deterministically in tests.
package clock

import "time"

// Clock is the subset of the time package used by pollbus. Production code
// uses Real(); tests use Fake() and advance time explicitly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
