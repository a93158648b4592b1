package looptest

import (
	"fmt"
	"sync"
	"time"
)

// Transport is an in-memory loop.Transport whose position moves with a
// Clock while playing. Every command is recorded.
type Transport struct {
	mu       sync.Mutex
	duration time.Duration
	position time.Duration
	playing  bool
	err      error
	calls    []string
	finished func()
}

// NewTransport returns a stopped transport at position zero.
func NewTransport(duration time.Duration) *Transport {
	return &Transport{duration: duration}
}

// Follow makes the transport advance with c.
func (t *Transport) Follow(c *Clock) *Transport {
	c.OnElapse(t.Elapse)
	return t
}

// OnFinished registers the end-of-media callback.
func (t *Transport) OnFinished(fn func()) {
	t.mu.Lock()
	t.finished = fn
	t.mu.Unlock()
}

// Elapse advances the position by d if playing. Reaching the end stops
// playback and fires the finished callback.
func (t *Transport) Elapse(d time.Duration) {
	t.mu.Lock()
	if !t.playing {
		t.mu.Unlock()
		return
	}
	t.position += d
	if t.position < t.duration {
		t.mu.Unlock()
		return
	}
	t.position = t.duration
	t.playing = false
	fn := t.finished
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// SetPosition moves the playhead without recording a command.
func (t *Transport) SetPosition(pos time.Duration) {
	t.mu.Lock()
	t.position = pos
	t.mu.Unlock()
}

// Fail makes every subsequent command return err. nil restores normal
// behaviour.
func (t *Transport) Fail(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}

// Calls returns the recorded commands, e.g. "seek 10s", "play".
func (t *Transport) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.calls))
	copy(out, t.calls)
	return out
}

// ResetCalls clears the command log.
func (t *Transport) ResetCalls() {
	t.mu.Lock()
	t.calls = nil
	t.mu.Unlock()
}

func (t *Transport) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *Transport) Position() (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return 0, t.err
	}
	return t.position, nil
}

func (t *Transport) Seek(pos time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	if pos < 0 {
		pos = 0
	}
	if pos > t.duration {
		pos = t.duration
	}
	t.position = pos
	t.calls = append(t.calls, fmt.Sprintf("seek %v", pos))
	return nil
}

func (t *Transport) Play() error {
	return t.command("play", func() { t.playing = true })
}

func (t *Transport) Pause() error {
	return t.command("pause", func() { t.playing = false })
}

func (t *Transport) Stop() error {
	return t.command("stop", func() { t.playing = false })
}

func (t *Transport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *Transport) command(name string, apply func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	apply()
	t.calls = append(t.calls, name)
	return nil
}
