package player

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/riffloop/internal/audio"
	"github.com/linuxmatters/riffloop/internal/loop"
)

var _ loop.Transport = (*Player)(nil)

// fakeSink mixes attached streamers only when pull is called.
type fakeSink struct {
	mu        sync.Mutex
	streamers []beep.Streamer
	plays     int
	clears    int
}

func (s *fakeSink) Play(st ...beep.Streamer) {
	s.mu.Lock()
	s.streamers = append(s.streamers, st...)
	s.plays++
	s.mu.Unlock()
}

func (s *fakeSink) Clear() {
	s.mu.Lock()
	s.streamers = nil
	s.clears++
	s.mu.Unlock()
}

func (s *fakeSink) Lock()   { s.mu.Lock() }
func (s *fakeSink) Unlock() { s.mu.Unlock() }

// pull streams n frames from every attached streamer, dropping drained ones.
func (s *fakeSink) pull(n int) [][2]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	mixed := make([][2]float64, n)
	buf := make([][2]float64, n)
	kept := s.streamers[:0]
	for _, st := range s.streamers {
		got, ok := st.Stream(buf)
		for i := 0; i < got; i++ {
			mixed[i][0] += buf[i][0]
			mixed[i][1] += buf[i][1]
		}
		if ok {
			kept = append(kept, st)
		}
	}
	s.streamers = kept
	return mixed
}

func (s *fakeSink) attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streamers)
}

// newTestPlayer returns a player over a 10s clip at 100 Hz of constant 0.5.
func newTestPlayer(t *testing.T) (*Player, *fakeSink) {
	t.Helper()
	frames := make([][2]float64, 1000)
	for i := range frames {
		frames[i] = [2]float64{0.5, 0.5}
	}
	sink := &fakeSink{}
	p := New(audio.NewClip(100, frames), sink)
	t.Cleanup(func() { p.Close() })
	return p, sink
}

func TestPlayAttachesOnce(t *testing.T) {
	p, sink := newTestPlayer(t)

	assert.False(t, p.Playing())
	require.NoError(t, p.Play())
	require.NoError(t, p.Play())

	assert.True(t, p.Playing())
	assert.Equal(t, 1, sink.plays)

	sink.pull(150)
	pos, err := p.Position()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, pos)
}

func TestPauseStreamsSilence(t *testing.T) {
	p, sink := newTestPlayer(t)
	require.NoError(t, p.Play())
	sink.pull(100)

	require.NoError(t, p.Pause())
	assert.False(t, p.Playing())
	assert.Equal(t, 1, sink.attached())

	out := sink.pull(50)
	assert.Equal(t, [2]float64{0, 0}, out[0])

	pos, err := p.Position()
	require.NoError(t, err)
	assert.Equal(t, time.Second, pos, "paused position must not advance")

	require.NoError(t, p.Play())
	assert.Equal(t, 1, sink.plays, "resume reuses the attached chain")
}

func TestStopDetachesAndKeepsPosition(t *testing.T) {
	p, sink := newTestPlayer(t)
	require.NoError(t, p.Play())
	sink.pull(300)

	require.NoError(t, p.Stop())
	assert.False(t, p.Playing())
	assert.Equal(t, 0, sink.attached())
	assert.Equal(t, 1, sink.clears)

	pos, err := p.Position()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, pos)

	require.NoError(t, p.Play())
	assert.Equal(t, 2, sink.plays)
}

func TestSeekClamps(t *testing.T) {
	p, _ := newTestPlayer(t)

	tests := []struct {
		seek time.Duration
		want time.Duration
	}{
		{2500 * time.Millisecond, 2500 * time.Millisecond},
		{-time.Second, 0},
		{time.Minute, 10 * time.Second},
	}

	for _, tt := range tests {
		require.NoError(t, p.Seek(tt.seek))
		pos, err := p.Position()
		require.NoError(t, err)
		assert.Equal(t, tt.want, pos, "Seek(%v)", tt.seek)
	}
}

func TestFinishedFiresOnceAndPlayRestarts(t *testing.T) {
	p, sink := newTestPlayer(t)

	var finished atomic.Int32
	p.OnFinished(func() { finished.Add(1) })

	require.NoError(t, p.Seek(9*time.Second))
	require.NoError(t, p.Play())
	sink.pull(200)

	require.Eventually(t, func() bool { return finished.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, p.Playing())

	// The drained chain drops out of the mix on the next pull
	sink.pull(200)
	assert.Equal(t, 0, sink.attached())
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), finished.Load())

	require.NoError(t, p.Play())
	pos, err := p.Position()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), pos, "play after the end restarts from zero")
}

func TestStaleFinishIgnoredAfterStop(t *testing.T) {
	p, sink := newTestPlayer(t)

	var finished atomic.Int32
	p.OnFinished(func() { finished.Add(1) })

	require.NoError(t, p.Seek(9*time.Second))
	require.NoError(t, p.Play())

	// Keep a reference to the old chain, detach, then drain it by hand
	sink.mu.Lock()
	old := sink.streamers[0]
	sink.mu.Unlock()
	require.NoError(t, p.Stop())

	sink.Lock()
	old.Stream(make([][2]float64, 200))
	sink.Unlock()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), finished.Load())
}

func TestVolume(t *testing.T) {
	p, sink := newTestPlayer(t)

	assert.Equal(t, 0.0, p.Volume())
	assert.Equal(t, 1.0, p.AdjustVolume(1))
	assert.Equal(t, MaxVolume, p.AdjustVolume(5))
	assert.Equal(t, MinVolume, p.AdjustVolume(-100))

	require.NoError(t, p.Play())
	out := sink.pull(10)
	assert.Equal(t, [2]float64{0, 0}, out[0], "minimum volume is silent")

	p.AdjustVolume(-MinVolume) // back to 0
	out = sink.pull(10)
	assert.InDelta(t, 0.5, out[0][0], 1e-9)
}

func TestWithVolumeClamps(t *testing.T) {
	p := New(audio.NewClip(100, make([][2]float64, 10)), &fakeSink{}, WithVolume(7))
	assert.Equal(t, MaxVolume, p.Volume())
}

func TestClosedPlayerRejectsCommands(t *testing.T) {
	p, sink := newTestPlayer(t)
	require.NoError(t, p.Play())
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.Equal(t, 0, sink.attached())
	assert.ErrorIs(t, p.Play(), ErrClosed)
	assert.ErrorIs(t, p.Pause(), ErrClosed)
	assert.ErrorIs(t, p.Stop(), ErrClosed)
	assert.ErrorIs(t, p.Seek(0), ErrClosed)
	_, err := p.Position()
	assert.ErrorIs(t, err, ErrClosed)
}
