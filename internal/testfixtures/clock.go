package testfixtures

import (
	"sync"
	"time"
)

// Clock is a controllable time source for tests that need a fixed or
// steerable notion of "now".
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock pinned to start. A zero start pins the clock to
// the shared ReferenceTime.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

// Now returns the instant the clock is pinned to.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc exposes Now in the shape services take as a dependency. A nil
// clock degrades to the real time source.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	updated := c.now
	c.mu.Unlock()
	return updated
}

// Current reads the clock without implying any progression. Equivalent to Now.
func (c *Clock) Current() time.Time {
	return c.Now()
}
