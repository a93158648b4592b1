// Package session binds a playback transport to a loop controller and
// applies the rules the user-facing controls follow: the loop control needs
// playback running, seeking is locked while a region is marked, and pausing
// drops an active loop.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/linuxmatters/riffloop/internal/audio"
	"github.com/linuxmatters/riffloop/internal/loop"
)

var (
	// ErrLoopDisabled is returned by Loop while playback is paused or stopped.
	ErrLoopDisabled = errors.New("loop control needs playback running")

	// ErrSeekLocked is returned by Seek and SeekBy while a region is marked.
	ErrSeekLocked = errors.New("seeking is locked while a loop region is set")

	// ErrNoVolume is returned when the transport has no volume control.
	ErrNoVolume = errors.New("transport has no volume control")

	// ErrClosed is returned by every command after Close.
	ErrClosed = errors.New("session is closed")
)

// Transport is a loop.Transport that reports when playback reaches the end
// of the media.
type Transport interface {
	loop.Transport
	OnFinished(fn func())
}

type volumeControl interface {
	Volume() float64
	AdjustVolume(delta float64) float64
}

// Status is a point-in-time snapshot for renderers.
type Status struct {
	Track    *audio.TrackInfo
	Position time.Duration
	Duration time.Duration
	Playing  bool

	Loop     loop.State
	Start    time.Duration
	HasStart bool
	End      time.Duration
	HasEnd   bool
	Cycle    int

	Volume    float64
	HasVolume bool

	Err error
}

// Session owns one loop controller for one transport.
type Session struct {
	transport Transport
	ctrl      *loop.Controller
	track     *audio.TrackInfo
	scheduler loop.Scheduler
	log       zerolog.Logger

	mu      sync.Mutex
	subs    []func(loop.Event)
	lastErr error
	closed  bool
}

// Option configures a Session.
type Option func(*Session)

// WithScheduler sets the loop timer source.
func WithScheduler(sch loop.Scheduler) Option {
	return func(s *Session) {
		s.scheduler = sch
	}
}

// WithLogger sets the logger for the session and its controller.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithTrack attaches display metadata to the session.
func WithTrack(info *audio.TrackInfo) Option {
	return func(s *Session) {
		s.track = info
	}
}

// New wires t to a fresh controller. The transport's end-of-media hook is
// taken over by the session.
func New(t Transport, opts ...Option) *Session {
	s := &Session{
		transport: t,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	loopOpts := []loop.Option{
		loop.WithObserver(s.notify),
		loop.WithLogger(s.log),
	}
	if s.scheduler != nil {
		loopOpts = append(loopOpts, loop.WithScheduler(s.scheduler))
	}
	s.ctrl = loop.New(t, loopOpts...)
	t.OnFinished(s.ctrl.TransportFinished)

	s.log = s.log.With().Str("component", "session").Logger()
	return s
}

// Subscribe registers fn for every loop event. fn is called outside the
// controller lock but on the goroutine that caused the event, which may be a
// timer goroutine, and must not block.
func (s *Session) Subscribe(fn func(loop.Event)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Play starts or resumes playback.
func (s *Session) Play() error {
	if err := s.check(); err != nil {
		return err
	}
	if err := s.transport.Play(); err != nil {
		return s.record(fmt.Errorf("play: %w", err))
	}
	return s.record(nil)
}

// Pause pauses playback, cancelling an active loop first. An armed start
// mark survives the pause.
func (s *Session) Pause() error {
	if err := s.check(); err != nil {
		return err
	}
	if s.ctrl.State() == loop.Looping {
		s.ctrl.Cancel()
	}
	if err := s.transport.Pause(); err != nil {
		return s.record(fmt.Errorf("pause: %w", err))
	}
	return s.record(nil)
}

// TogglePlay pauses when playing and plays otherwise. It returns whether
// playback is now running.
func (s *Session) TogglePlay() (bool, error) {
	if s.transport.Playing() {
		return false, s.Pause()
	}
	if err := s.Play(); err != nil {
		return false, err
	}
	return true, nil
}

// Loop performs the loop control action: mark start, mark end, or cancel.
func (s *Session) Loop() (loop.State, error) {
	if err := s.check(); err != nil {
		return s.ctrl.State(), err
	}
	if !s.transport.Playing() {
		return s.ctrl.State(), ErrLoopDisabled
	}
	state, err := s.ctrl.Advance()
	return state, s.record(err)
}

// CancelLoop drops any mark or active loop.
func (s *Session) CancelLoop() {
	s.ctrl.Cancel()
}

// LoopState returns the controller state.
func (s *Session) LoopState() loop.State {
	return s.ctrl.State()
}

// Seek moves playback to pos, clamped to the track.
func (s *Session) Seek(pos time.Duration) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.ctrl.State() != loop.Idle {
		return ErrSeekLocked
	}
	pos = max(0, min(pos, s.transport.Duration()))
	if err := s.transport.Seek(pos); err != nil {
		return s.record(fmt.Errorf("seek: %w", err))
	}
	return s.record(nil)
}

// SeekBy moves playback relative to the current position.
func (s *Session) SeekBy(delta time.Duration) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.ctrl.State() != loop.Idle {
		return ErrSeekLocked
	}
	pos, err := s.transport.Position()
	if err != nil {
		return s.record(fmt.Errorf("seek: %w", err))
	}
	return s.Seek(pos + delta)
}

// AdjustVolume changes the volume by delta and returns the new level.
func (s *Session) AdjustVolume(delta float64) (float64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	vc, ok := s.transport.(volumeControl)
	if !ok {
		return 0, ErrNoVolume
	}
	return vc.AdjustVolume(delta), nil
}

// Status returns a snapshot of the transport and loop.
func (s *Session) Status() Status {
	st := Status{
		Track:    s.track,
		Duration: s.transport.Duration(),
		Playing:  s.transport.Playing(),
		Loop:     s.ctrl.State(),
		Cycle:    s.ctrl.Cycle(),
	}
	if pos, err := s.transport.Position(); err == nil {
		st.Position = pos
	}
	st.Start, st.HasStart = s.ctrl.Start()
	if r, ok := s.ctrl.Region(); ok {
		st.End, st.HasEnd = r.End, true
	}
	if vc, ok := s.transport.(volumeControl); ok {
		st.Volume, st.HasVolume = vc.Volume(), true
	}

	s.mu.Lock()
	st.Err = s.lastErr
	s.mu.Unlock()
	return st
}

// Close cancels any loop, stops the transport and detaches it from the
// controller.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.ctrl.Cancel()
	err := s.transport.Stop()
	s.ctrl.Attach(nil)
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}

func (s *Session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// record stores err as the last error shown to the user. A nil err clears
// it. err is returned unchanged.
func (s *Session) record(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	if err != nil {
		s.log.Warn().Err(err).Msg("command failed")
	}
	return err
}

func (s *Session) notify(ev loop.Event) {
	s.mu.Lock()
	if ev.Err != nil {
		s.lastErr = ev.Err
	}
	subs := make([]func(loop.Event), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
