package task

import (
	"sync"
	"time"
)

// Resolution is the precision at which versions and dates are stored.
const Resolution = time.Microsecond

// Clock supplies the current time for version stamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and never goes backwards.
//
// Successive calls return strictly increasing times at Resolution, even when
// the wall clock is adjusted or two calls land in the same microsecond.
//
// Thread-safety: SystemClock is safe for concurrent use.
type SystemClock struct {
	mu   sync.Mutex
	last time.Time
}

// NewSystemClock creates a clock backed by time.Now.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current UTC time truncated to Resolution.
func (c *SystemClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := NextVersion(c.last, time.Now())
	c.last = now
	return now
}

// NextVersion returns the version that follows prev when the clock reads now.
// The result is now when it is after prev, otherwise prev plus Resolution.
func NextVersion(prev, now time.Time) time.Time {
	now = Truncate(now)
	prev = Truncate(prev)
	if now.After(prev) {
		return now
	}
	return prev.Add(Resolution)
}

// Truncate converts t to UTC at storage resolution.
func Truncate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Truncate(Resolution)
}
