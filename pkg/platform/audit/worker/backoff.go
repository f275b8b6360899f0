package worker

import (
	"sync"
	"time"
)

// cooldown stops relay attempts for a while after repeated sink failures so an
// unavailable broker is not hammered every tick.
type cooldown struct {
	mu        sync.Mutex
	threshold int
	period    time.Duration
	failures  int
	openUntil time.Time
}

func newCooldown(threshold int, period time.Duration) *cooldown {
	if threshold <= 0 {
		threshold = 5
	}
	if period <= 0 {
		period = time.Minute
	}
	return &cooldown{threshold: threshold, period: period}
}

// Allow reports whether an attempt may be made at now. Once the period has
// passed one attempt is let through; its outcome decides what happens next.
func (c *cooldown) Allow(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openUntil.IsZero() || !now.Before(c.openUntil)
}

func (c *cooldown) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.openUntil = time.Time{}
}

// RecordFailure reports whether the failure opened (or re-opened) the cooldown.
func (c *cooldown) RecordFailure(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.threshold {
		c.openUntil = now.Add(c.period)
		return true
	}
	return false
}

func (c *cooldown) IsOpen(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.openUntil.IsZero() && now.Before(c.openUntil)
}
