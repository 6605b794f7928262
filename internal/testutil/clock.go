package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant returned by a DeterministicClock.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe clock for tests that advances one
// second per call to Now.
//
// Runs saved with the same clock get byte-identical timestamps, which keeps
// golden output stable.
type DeterministicClock struct {
	mu    sync.Mutex
	ticks int64
}

// NewDeterministicClock creates a clock whose first Now() returns Epoch.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now returns the current instant and advances the clock by one second.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.ticks) * time.Second)
	c.ticks++
	return t
}

// Calls returns how many times Now has been called.
func (c *DeterministicClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock so the next Now() returns Epoch again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
