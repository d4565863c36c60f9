// Package testutil holds helpers shared by tests across packages.
package testutil

import "sync"

// ManualClock is a hand-driven timestamp source for tests. It satisfies
// the node's Clock interface while letting a test place every local
// mutation at an exact timestamp, so merge outcomes are scripted rather
// than wall-clock dependent.
//
// Thread-safe, though most tests drive it from a single goroutine.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a clock at the given starting timestamp.
func NewManualClock(start int64) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current timestamp without advancing.
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to ts. Tests may move it backward to simulate a
// node whose wall clock stepped back.
func (c *ManualClock) Set(ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = ts
}

// Advance moves the clock forward by delta and returns the new value.
func (c *ManualClock) Advance(delta int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += delta
	return c.now
}
