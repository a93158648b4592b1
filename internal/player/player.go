// Package player plays a decoded clip through a beep sink and exposes the
// transport commands the loop controller drives.
package player

import (
	"errors"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/rs/zerolog"

	"github.com/linuxmatters/riffloop/internal/audio"
	"github.com/linuxmatters/riffloop/internal/config"
)

// Volume range in base-2 exponent steps. MinVolume is silent.
const (
	MinVolume = config.MinVolume
	MaxVolume = config.MaxVolume
)

// ErrClosed is returned by every command after Close.
var ErrClosed = errors.New("player is closed")

// Player drives one clip through the chain
//
//	Clip -> beep.Ctrl -> effects.Volume -> beep.Seq(..., beep.Callback)
//
// Stop detaches the chain from the sink and keeps the clip position; Pause
// leaves it attached and streams silence.
type Player struct {
	mu   sync.Mutex
	sink Sink
	clip *audio.Clip
	log  zerolog.Logger

	ctrl   *beep.Ctrl
	volume *effects.Volume

	attached   bool
	closed     bool
	gen        uint64 // bumped on every detach so a late end-of-media callback is ignored
	onFinished func()
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger used for transport commands.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Player) {
		p.log = l.With().Str("component", "player").Logger()
	}
}

// WithVolume sets the initial volume exponent.
func WithVolume(v float64) Option {
	return func(p *Player) {
		p.setVolume(v)
	}
}

// New returns a stopped player positioned at the start of clip.
func New(clip *audio.Clip, sink Sink, opts ...Option) *Player {
	ctrl := &beep.Ctrl{Streamer: clip}
	p := &Player{
		sink: sink,
		clip: clip,
		log:  zerolog.Nop(),
		ctrl: ctrl,
		volume: &effects.Volume{
			Streamer: ctrl,
			Base:     2,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnFinished registers fn to run once each time playback reaches the end of
// the clip. fn runs on its own goroutine and may call back into the player.
func (p *Player) OnFinished(fn func()) {
	p.mu.Lock()
	p.onFinished = fn
	p.mu.Unlock()
}

// Duration returns the length of the clip.
func (p *Player) Duration() time.Duration {
	return p.clip.Duration()
}

// Position returns the current playhead.
func (p *Player) Position() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}

	p.sink.Lock()
	frames := p.clip.Position()
	p.sink.Unlock()

	return audio.FramesToDuration(int64(frames), p.clip.SampleRate()), nil
}

// Seek moves the playhead, clamped to [0, Duration].
func (p *Player) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	frame := audio.DurationToFrames(pos, p.clip.SampleRate())
	frame = max(0, min(frame, int64(p.clip.Len())))

	p.sink.Lock()
	err := p.clip.Seek(int(frame))
	p.sink.Unlock()
	if err != nil {
		return err
	}

	p.log.Debug().Dur("position", pos).Msg("seek")
	return nil
}

// Play starts or resumes playback. A clip that has run to its end restarts
// from the beginning.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	p.sink.Lock()
	if p.clip.Position() >= p.clip.Len() {
		_ = p.clip.Seek(0)
	}
	p.ctrl.Paused = false
	p.sink.Unlock()

	if !p.attached {
		p.attach()
	}
	p.log.Debug().Msg("play")
	return nil
}

// Pause silences output without detaching the chain.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	p.sink.Lock()
	p.ctrl.Paused = true
	p.sink.Unlock()

	p.log.Debug().Msg("pause")
	return nil
}

// Stop detaches the chain from the sink. The position is kept.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	p.detach()
	p.log.Debug().Msg("stop")
	return nil
}

// Playing reports whether the chain is attached and unpaused.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attached && !p.ctrl.Paused
}

// Volume returns the current volume exponent.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume.Volume
}

// AdjustVolume changes the volume by delta and returns the clamped result.
func (p *Player) AdjustVolume(delta float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sink.Lock()
	v := p.setVolume(p.volume.Volume + delta)
	p.sink.Unlock()

	return v
}

// Close detaches the chain. Every later command returns ErrClosed.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.detach()
	p.closed = true
	return nil
}

func (p *Player) setVolume(v float64) float64 {
	v = max(MinVolume, min(v, MaxVolume))
	p.volume.Volume = v
	p.volume.Silent = v <= MinVolume
	return v
}

// attach hands the chain to the sink. Must not be called with the sink
// lock held.
func (p *Player) attach() {
	gen := p.gen
	p.sink.Play(beep.Seq(p.volume, beep.Callback(func() {
		// Runs under the sink lock
		go p.finished(gen)
	})))
	p.attached = true
}

func (p *Player) detach() {
	if p.attached {
		p.sink.Clear()
		p.attached = false
	}
	p.gen++
}

func (p *Player) finished(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.attached = false
	p.gen++
	fn := p.onFinished
	p.mu.Unlock()

	p.log.Debug().Msg("end of media")
	if fn != nil {
		fn()
	}
}
