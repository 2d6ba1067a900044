package repository

import (
	"sync"
	"time"
)

// Clock assigns record timestamps.
type Clock interface {
	Now() time.Time
}

// MonotonicClock returns strictly increasing UTC times at microsecond
// precision, the finest resolution Postgres timestamptz keeps.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
	wall func() time.Time
}

// NewMonotonicClock returns a clock backed by time.Now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{wall: time.Now}
}

// Now returns a time after every value previously returned by c.
func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.wall().UTC().Truncate(time.Microsecond)
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}

// defaultClock is shared by every repository so feeds, comments and replies
// written by one process never share a stamp.
var defaultClock Clock = NewMonotonicClock()
