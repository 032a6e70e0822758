// Package ratelimit implements the fixed-window limiter used by the contact
// endpoints.
//
// For every key the limiter keeps the timestamps of accepted events. A call
// prunes the ones that fell out of the trailing window and accepts the new
// event only while fewer than max events remain.
//
// Notes:
//   - Process-local; each replica counts on its own.
//   - Keys are never evicted. The key set grows with the number of distinct
//     clients seen since start (see DESIGN.md).
package ratelimit

import (
	"sync"
	"time"
)

// Window is a concurrency-safe fixed-window counter keyed by string identity.
type Window struct {
	mu     sync.Mutex
	events map[string][]time.Time
	now    func() time.Time
}

// NewWindow returns an empty limiter using the wall clock.
func NewWindow() *Window {
	return &Window{
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Hit records an event for key and reports whether it is allowed.
//
// window is clamped to at least one second and max to at least one event.
// Events strictly older than now-window are dropped before counting. A denied
// call does not record an event.
func (w *Window) Hit(key string, window time.Duration, max int) bool {
	if window < time.Second {
		window = time.Second
	}
	if max < 1 {
		max = 1
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	threshold := now.Add(-window)

	kept := w.events[key][:0]
	for _, at := range w.events[key] {
		if !at.Before(threshold) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= max {
		w.events[key] = kept
		return false
	}
	w.events[key] = append(kept, now)
	return true
}

// Len returns the number of keys currently tracked.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}
