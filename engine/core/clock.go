package core

import "time"

// Clock measures the time between engine ticks.
type Clock struct {
	now     func() time.Time
	started time.Time
	last    time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Starts the clock. Resets the elapsed time.
func (c *Clock) Start() {
	c.started = c.now()
	c.last = c.started
}

// Tick returns the time passed since the previous Tick (or Start).
// Returns zero for a clock that was never started.
func (c *Clock) Tick() time.Duration {
	if c.started.IsZero() {
		return 0
	}
	t := c.now()
	d := t.Sub(c.last)
	c.last = t
	return d
}

func (c *Clock) Elapsed() time.Duration {
	if c.started.IsZero() {
		return 0
	}
	return c.now().Sub(c.started)
}

// Stops the clock.
func (c *Clock) Stop() {
	c.started = time.Time{}
}
