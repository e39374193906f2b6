package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("expected %v, got %v", epoch, c.Now())
	}
	c.Advance(time.Minute)
	if !c.Now().Equal(epoch.Add(time.Minute)) {
		t.Fatalf("expected clock to advance by a minute, got %v", c.Now())
	}
}

func TestFakeClockAfterFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(time.Second)

	select {
	case <-ch:
		t.Fatal("fired before advance")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("fired on partial advance")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case got := <-ch:
		if !got.Equal(epoch.Add(time.Second)) {
			t.Fatalf("unexpected fire time %v", got)
		}
	default:
		t.Fatal("did not fire after full advance")
	}
	if c.PendingCount() != 0 {
		t.Fatalf("expected no pending waiters, got %d", c.PendingCount())
	}
}

func TestFakeClockAfterZeroDuration(t *testing.T) {
	c := Fake(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("zero duration should fire immediately")
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		<-c.After(time.Second)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter goroutine did not wake")
	}
}

func TestFakeClockRequested(t *testing.T) {
	c := Fake(epoch)
	c.After(time.Second)
	c.After(2 * time.Second)

	got := c.Requested()
	if len(got) != 2 || got[0] != time.Second || got[1] != 2*time.Second {
		t.Fatalf("unexpected requested durations: %v", got)
	}
}

func TestClocksImplementClock(t *testing.T) {
	var _ Clock = Fake(epoch)
	var _ Clock = Real()
}
