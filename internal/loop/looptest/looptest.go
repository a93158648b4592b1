// Package looptest provides a manual clock and an in-memory transport for
// exercising loop.Controller without real time or audio hardware.
package looptest

import (
	"sort"
	"sync"
	"time"

	"github.com/linuxmatters/riffloop/internal/loop"
)

// Clock is a manually advanced time source. It implements loop.Scheduler.
type Clock struct {
	mu        sync.Mutex
	now       time.Duration
	timers    []*Timer
	listeners []func(time.Duration)
}

// NewClock returns a clock at zero.
func NewClock() *Clock {
	return &Clock{}
}

// Timer is a repeating callback registered on a Clock.
type Timer struct {
	clock   *Clock
	period  time.Duration
	next    time.Duration
	fn      func()
	stopped bool
}

// Every implements loop.Scheduler.
func (c *Clock) Every(period time.Duration, fn func()) loop.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &Timer{clock: c, period: period, next: c.now + period, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Stop implements loop.Timer.
func (t *Timer) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}

// Fire runs the callback even if the timer was stopped, simulating a tick
// that raced with Stop.
func (t *Timer) Fire() {
	t.fn()
}

// Period returns the repeat interval.
func (t *Timer) Period() time.Duration {
	return t.period
}

// Stopped reports whether Stop has been called.
func (t *Timer) Stopped() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.stopped
}

// OnElapse registers fn to be told how much time passed before each timer
// callback and at the end of each Advance.
func (c *Clock) OnElapse(fn func(time.Duration)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Now returns the elapsed time since the clock was created.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Timers returns every timer ever created, stopped or not.
func (c *Clock) Timers() []*Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Timer, len(c.timers))
	copy(out, c.timers)
	return out
}

// Active returns the timers that have not been stopped.
func (c *Clock) Active() []*Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*Timer
	for _, t := range c.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Callbacks run without the clock lock held.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		step := t.next - c.now
		c.now = t.next
		t.next += t.period
		listeners := c.listeners
		c.mu.Unlock()

		notify(listeners, step)

		c.mu.Lock()
		stopped := t.stopped
		c.mu.Unlock()
		if !stopped {
			t.fn()
		}
		c.mu.Lock()
	}
	step := target - c.now
	c.now = target
	listeners := c.listeners
	c.mu.Unlock()

	notify(listeners, step)
}

func (c *Clock) nextDue(target time.Duration) *Timer {
	var due []*Timer
	for _, t := range c.timers {
		if !t.stopped && t.next <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].next < due[j].next })
	return due[0]
}

func notify(listeners []func(time.Duration), step time.Duration) {
	if step <= 0 {
		return
	}
	for _, fn := range listeners {
		fn(step)
	}
}
