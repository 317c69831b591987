package testutil

import (
	"sync"
	"time"
)

// Epoch is the first time returned by a fresh DeterministicClock.
var Epoch = time.Date(2025, 7, 25, 9, 0, 0, 0, time.UTC)

// DefaultStep is how far a DeterministicClock advances per call.
const DefaultStep = time.Second

// DeterministicClock provides a thread-safe monotonic fake clock for tests.
//
// Unlike task.SystemClock, DeterministicClock can be reset and pinned for
// test reuse. This enables the same scenario to run multiple times with
// identical versions, which golden snapshots rely on.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
	used bool
}

// NewDeterministicClock creates a clock whose first Now() returns Epoch and
// which advances by DefaultStep on every call.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{now: Epoch, step: DefaultStep}
}

// Now returns the next time and advances the clock.
//
// Monotonic: always returns the previous value plus the step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.used {
		c.now = c.now.Add(c.step)
	}
	c.used = true
	return c.now
}

// Current returns the last time handed out (or Epoch) without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d without handing out a time.
func (c *DeterministicClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock so that the next Now() returns t.
// Used to simulate a wall clock that jumped backwards.
func (c *DeterministicClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
	c.used = false
}

// Reset resets the clock to Epoch.
//
// After Reset(), the next call to Now() returns Epoch.
func (c *DeterministicClock) Reset() {
	c.Set(Epoch)
}
