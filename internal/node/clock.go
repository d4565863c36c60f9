package node

import (
	"sync"
	"time"
)

// Clock supplies timestamps for locally-originated mutations. Remote
// updates carry their own timestamps and never consult the clock.
type Clock interface {
	Now() int64
}

// SystemClock returns unix seconds, clamped so the value never decreases
// within a process even if the wall clock steps backward. A decreasing
// local timestamp would make a node's own newest write lose the merge.
type SystemClock struct {
	mu   sync.Mutex
	last int64
}

// NewSystemClock creates a clock starting from the current wall time.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current unix timestamp, at least one greater than the
// previous call's result when the wall clock has not advanced.
func (c *SystemClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().Unix()
	if now <= c.last {
		c.last++
		return c.last
	}
	c.last = now
	return now
}
