// Package frame coalesces bursts of work into at most one run per frame.
package frame

import (
	"sync"
	"time"
)

// DefaultInterval is one frame at 60 Hz.
const DefaultInterval = 16 * time.Millisecond

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Scheduler arms callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clock struct{}

func (clock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules with time.AfterFunc.
func RealScheduler() Scheduler {
	return clock{}
}

// Coalescer holds at most one pending callback. Scheduling a new callback
// replaces the pending one, so the latest request always wins and nothing
// queues up.
type Coalescer struct {
	mu       sync.Mutex
	sched    Scheduler
	interval time.Duration
	fire     func()

	pending func()
	timer   Timer
}

// New returns a coalescer that waits interval before running the pending
// callback. When the timer expires it calls fire, which defaults to Flush;
// owners that guard state with their own lock pass a fire that takes the
// lock and then calls Flush.
func New(interval time.Duration, sched Scheduler, fire func()) *Coalescer {
	if sched == nil {
		sched = RealScheduler()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Coalescer{sched: sched, interval: interval}
	c.fire = fire
	if c.fire == nil {
		c.fire = func() { c.Flush() }
	}
	return c
}

// Schedule replaces any pending callback with fn and re-arms the timer.
func (c *Coalescer) Schedule(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = fn
	c.timer = c.sched.AfterFunc(c.interval, c.fire)
}

// Cancel drops the pending callback. It reports whether one was pending.
func (c *Coalescer) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.take() != nil
}

// Flush runs the pending callback now, on the calling goroutine. It reports
// whether there was one.
func (c *Coalescer) Flush() bool {
	c.mu.Lock()
	fn := c.take()
	c.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending reports whether a callback is waiting.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Coalescer) take() func() {
	fn := c.pending
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return fn
}
