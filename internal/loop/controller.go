// Package loop implements A/B loop control on top of a playback transport.
//
// The user marks a start point, then an end point, and the controller
// rewinds playback to the start every time the region length elapses until
// the loop is cancelled. The rewind is an absolute seek, so accumulated timer
// drift never moves playback outside the marked region.
package loop

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Transport is the playback primitive the controller drives. The controller
// never owns it; the owner wires its finished notification to
// Controller.TransportFinished.
type Transport interface {
	Duration() time.Duration
	Position() (time.Duration, error)
	Seek(pos time.Duration) error
	Play() error
	Pause() error
	Stop() error
	Playing() bool
}

// Controller owns the loop state machine. Advance, Cancel, the timer
// callback and the transport finished hook are serialised by one mutex, and
// the observer is called after that mutex is released.
//
// Events reach the observer one at a time in the order the state changed.
// When another goroutine is already delivering, a call leaves its events to
// that goroutine and may return before they are observed.
type Controller struct {
	mu        sync.Mutex
	transport Transport
	scheduler Scheduler
	observer  func(Event)
	log       zerolog.Logger

	state    State
	start    time.Duration
	end      time.Duration
	hasStart bool
	hasEnd   bool
	cycle    int

	timer Timer
	gen   uint64 // bumped whenever the timer is dropped; stale callbacks compare against it

	pending    []Event
	delivering bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the default TickerScheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithObserver registers the notification callback.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = l.With().Str("component", "loop").Logger()
	}
}

// New creates an idle controller driving t. t may be nil; every operation
// then reports ErrTransportUnavailable until Attach is called.
func New(t Transport, opts ...Option) *Controller {
	c := &Controller{
		transport: t,
		scheduler: TickerScheduler{},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Advance performs the action bound to the loop control and returns the
// resulting state.
//
//	Idle    -> Armed    marks the start at the current position
//	Armed   -> Looping  marks the end, seeks to the start and starts the timer
//	Looping -> Idle     drops the timer and region; playback carries on
//
// An end mark that is not after the start returns a *RegionError and leaves
// the controller Armed.
func (c *Controller) Advance() (State, error) {
	c.mu.Lock()
	var (
		events []Event
		err    error
	)
	switch c.state {
	case Idle:
		events, err = c.arm()
	case Armed:
		events, err = c.commit()
	case Looping:
		events = c.reset()
	}
	state := c.state
	c.enqueue(events)
	c.mu.Unlock()

	c.deliver()
	return state, err
}

// Cancel drops any pending mark or active loop and forces Idle. Once it
// returns, no timer callback has any further effect. Calling it while Idle
// is a no-op.
func (c *Controller) Cancel() {
	c.mu.Lock()
	var events []Event
	if c.state != Idle {
		events = c.reset()
	}
	c.enqueue(events)
	c.mu.Unlock()

	c.deliver()
}

// TransportFinished handles the end-of-media notification. Outside Looping
// it is forwarded to the observer. While Looping the region is replayed
// immediately and the timer restarts so its phase matches the new pass.
func (c *Controller) TransportFinished() {
	c.mu.Lock()
	var events []Event
	if c.state == Looping {
		c.log.Debug().Msg("end of media inside loop, rewinding early")
		events = c.rewind()
		if c.state == Looping {
			c.schedule()
		}
	} else {
		ev := Event{Kind: EventFinished, State: c.state, Region: c.region()}
		if c.transport != nil {
			ev.Position = c.transport.Duration()
		}
		events = []Event{ev}
	}
	c.enqueue(events)
	c.mu.Unlock()

	c.deliver()
}

// Attach swaps the transport and resets to Idle. A nil transport detaches.
func (c *Controller) Attach(t Transport) {
	c.mu.Lock()
	var events []Event
	if c.state != Idle {
		events = c.reset()
	}
	c.transport = t
	c.enqueue(events)
	c.mu.Unlock()

	c.deliver()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Region returns the committed region. ok is false unless Looping.
func (c *Controller) Region() (r Region, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasStart || !c.hasEnd {
		return Region{}, false
	}
	return c.region(), true
}

// Start returns the marked start. ok is false while Idle.
func (c *Controller) Start() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start, c.hasStart
}

// Cycle returns the number of rewinds since the region was committed.
func (c *Controller) Cycle() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle
}

func (c *Controller) arm() ([]Event, error) {
	if c.transport == nil {
		return c.fail(nil)
	}
	pos, err := c.transport.Position()
	if err != nil {
		return c.fail(err)
	}

	c.start, c.hasStart = pos, true
	c.state = c.state.next()
	c.log.Debug().Dur("start", pos).Msg("region start marked")

	return []Event{{Kind: EventArmed, State: c.state, Region: Region{Start: pos}, Position: pos}}, nil
}

func (c *Controller) commit() ([]Event, error) {
	if c.transport == nil {
		return c.fail(nil)
	}
	pos, err := c.transport.Position()
	if err != nil {
		return c.fail(err)
	}

	if pos <= c.start {
		rerr := &RegionError{Start: c.start, End: pos}
		c.log.Debug().Dur("start", c.start).Dur("end", pos).Msg("region end rejected")
		return []Event{{
			Kind:     EventInvalidRegion,
			State:    c.state,
			Region:   Region{Start: c.start, End: pos},
			Position: pos,
			Err:      rerr,
		}}, rerr
	}

	if err := c.transport.Seek(c.start); err != nil {
		return c.fail(err)
	}
	if err := c.transport.Play(); err != nil {
		return c.fail(err)
	}

	c.end, c.hasEnd = pos, true
	c.cycle = 0
	c.state = c.state.next()
	c.schedule()
	c.log.Debug().Dur("start", c.start).Dur("end", c.end).Dur("period", c.region().Length()).Msg("loop committed")

	return []Event{{Kind: EventLooping, State: c.state, Region: c.region(), Position: c.start}}, nil
}

// schedule replaces the repeating timer with a fresh one for the current
// region.
func (c *Controller) schedule() {
	c.dropTimer()
	gen := c.gen
	c.timer = c.scheduler.Every(c.region().Length(), func() {
		c.fire(gen)
	})
}

func (c *Controller) dropTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.state != Looping || gen != c.gen {
		c.mu.Unlock()
		return
	}
	events := c.rewind()
	c.enqueue(events)
	c.mu.Unlock()

	c.deliver()
}

// rewind stops the transport, seeks to the region start and plays again.
func (c *Controller) rewind() []Event {
	if c.transport == nil {
		events, _ := c.fail(nil)
		return events
	}
	if err := c.transport.Stop(); err != nil {
		events, _ := c.fail(err)
		return events
	}
	if err := c.transport.Seek(c.start); err != nil {
		events, _ := c.fail(err)
		return events
	}
	if err := c.transport.Play(); err != nil {
		events, _ := c.fail(err)
		return events
	}

	c.cycle++
	return []Event{{Kind: EventRewound, State: c.state, Region: c.region(), Position: c.start, Cycle: c.cycle}}
}

func (c *Controller) reset() []Event {
	region := c.region()
	from := c.state
	c.clear()
	c.log.Debug().Stringer("from", from).Msg("loop cancelled")
	return []Event{{Kind: EventCancelled, State: c.state, Region: region}}
}

// fail resets to Idle after a transport failure. cause may be nil when the
// transport is missing.
func (c *Controller) fail(cause error) ([]Event, error) {
	err := ErrTransportUnavailable
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrTransportUnavailable, cause)
	}
	c.log.Warn().Err(err).Stringer("state", c.state).Msg("resetting loop")
	c.clear()
	return []Event{{Kind: EventTransportUnavailable, State: c.state, Err: err}}, err
}

func (c *Controller) clear() {
	c.dropTimer()
	c.state = Idle
	c.start, c.end = 0, 0
	c.hasStart, c.hasEnd = false, false
	c.cycle = 0
}

func (c *Controller) region() Region {
	return Region{Start: c.start, End: c.end}
}

// enqueue must be called with c.mu held, in the same critical section as
// the state change the events describe.
func (c *Controller) enqueue(events []Event) {
	if c.observer == nil {
		return
	}
	c.pending = append(c.pending, events...)
}

// deliver drains the queue unless another goroutine is already draining it.
func (c *Controller) deliver() {
	c.mu.Lock()
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.pending) > 0 {
		ev := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()

		c.observer(ev)

		c.mu.Lock()
	}
	c.pending = nil
	c.delivering = false
	c.mu.Unlock()
}
