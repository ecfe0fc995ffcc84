package dispatch

import (
	"sync/atomic"
	"time"
)

// IdleClock tracks the last moment a request was observed. Call-handling
// goroutines store into it concurrently and the lifecycle manager's idle
// watcher reads it from a timer goroutine; idle detection only needs
// coarse-grained correctness, so a plain atomic store and load is enough.
type IdleClock struct {
	last atomic.Int64
}

// NewIdleClock returns a clock initialized to now, so a provider that never
// receives a call still times out relative to its start.
func NewIdleClock() *IdleClock {
	c := &IdleClock{}
	c.Touch()
	return c
}

// Touch records activity now.
func (c *IdleClock) Touch() {
	c.last.Store(time.Now().UnixNano())
}

// Idle returns the time elapsed since the last recorded activity.
func (c *IdleClock) Idle() time.Duration {
	return time.Since(time.Unix(0, c.last.Load()))
}
