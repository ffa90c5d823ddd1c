// Package testutil provides deterministic helpers for tests: a stepping
// time source and a fixed session-ID generator. Production code must not
// import this package.
package testutil

import (
	"sync"
	"time"
)

// SteppingClock is a TimeService for tests: it starts at a fixed instant
// and advances by a fixed step on every Now call, so consecutive
// timestamps are distinct but fully reproducible.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex, though deterministic tests should call Now from one goroutine.
type SteppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// Epoch is the default starting instant for stepping clocks.
var Epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// NewSteppingClock creates a clock starting at Epoch that advances one
// second per Now call.
func NewSteppingClock() *SteppingClock {
	return NewSteppingClockAt(Epoch, time.Second)
}

// NewSteppingClockAt creates a clock starting at the given instant with
// the given step. A zero step yields a frozen clock.
func NewSteppingClockAt(start time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{now: start.UTC(), step: step}
}

// Now returns the current instant and advances the clock by one step.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
