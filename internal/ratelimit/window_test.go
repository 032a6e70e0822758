package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is advanced manually by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestWindow() (*Window, *fakeClock) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	w := NewWindow()
	w.now = clk.Now
	return w, clk
}

func TestWindow_DeniesAfterMaxWithinWindow(t *testing.T) {
	w, clk := newTestWindow()
	const max = 3
	window := 60 * time.Second

	for i := 0; i < max; i++ {
		if !w.Hit("contact:1.2.3.4", window, max) {
			t.Fatalf("hit %d should be allowed", i+1)
		}
		clk.Advance(time.Second)
	}
	if w.Hit("contact:1.2.3.4", window, max) {
		t.Fatalf("hit %d should be denied", max+1)
	}

	// other keys are independent
	if !w.Hit("mail:1.2.3.4", window, max) {
		t.Fatalf("different key should be allowed")
	}
}

func TestWindow_AllowsAgainAfterWindowSlides(t *testing.T) {
	w, clk := newTestWindow()
	window := 10 * time.Second

	if !w.Hit("k", window, 1) {
		t.Fatalf("first hit should be allowed")
	}
	clk.Advance(5 * time.Second)
	if w.Hit("k", window, 1) {
		t.Fatalf("second hit inside window should be denied")
	}

	// an event exactly at the threshold still counts
	clk.Advance(5 * time.Second)
	if w.Hit("k", window, 1) {
		t.Fatalf("event at the threshold is not expired yet")
	}

	clk.Advance(time.Nanosecond)
	if !w.Hit("k", window, 1) {
		t.Fatalf("hit after the window should be allowed")
	}
}

func TestWindow_DeniedCallsDoNotExtendTheWindow(t *testing.T) {
	w, clk := newTestWindow()
	window := 10 * time.Second

	w.Hit("k", window, 1)
	for i := 0; i < 5; i++ {
		clk.Advance(time.Second)
		w.Hit("k", window, 1)
	}
	clk.Advance(5*time.Second + time.Nanosecond)
	if !w.Hit("k", window, 1) {
		t.Fatalf("denied hits must not be recorded")
	}
}

func TestWindow_ClampsArguments(t *testing.T) {
	w, clk := newTestWindow()

	// max <= 0 behaves like 1
	if !w.Hit("a", time.Minute, 0) {
		t.Fatalf("first hit should be allowed")
	}
	if w.Hit("a", time.Minute, 0) {
		t.Fatalf("second hit should be denied with max clamped to 1")
	}

	// window < 1s behaves like 1s
	if !w.Hit("b", 0, 1) {
		t.Fatalf("first hit should be allowed")
	}
	clk.Advance(500 * time.Millisecond)
	if w.Hit("b", 0, 1) {
		t.Fatalf("window should be clamped to one second")
	}
	clk.Advance(600 * time.Millisecond)
	if !w.Hit("b", 0, 1) {
		t.Fatalf("hit after one second should be allowed")
	}
}

func TestWindow_ConcurrentHitsNeverExceedMax(t *testing.T) {
	w := NewWindow()
	const (
		max     = 25
		callers = 200
	)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if w.Hit("shared", time.Hour, max) {
				allowed.Add(1)
			}
			w.Hit(fmt.Sprintf("own-%d", i), time.Hour, max)
		}(i)
	}
	wg.Wait()

	if got := allowed.Load(); got != max {
		t.Fatalf("allowed=%d, want %d", got, max)
	}
	if w.Len() != callers+1 {
		t.Fatalf("tracked keys=%d, want %d", w.Len(), callers+1)
	}
}
