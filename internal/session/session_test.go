package session_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/riffloop/internal/audio"
	"github.com/linuxmatters/riffloop/internal/loop"
	"github.com/linuxmatters/riffloop/internal/loop/looptest"
	"github.com/linuxmatters/riffloop/internal/session"
)

type fixture struct {
	clock *looptest.Clock
	tr    *looptest.Transport
	s     *session.Session

	mu     sync.Mutex
	events []loop.Event
}

func newFixture(t *testing.T, duration time.Duration) *fixture {
	t.Helper()
	f := &fixture{clock: looptest.NewClock()}
	f.tr = looptest.NewTransport(duration).Follow(f.clock)
	f.s = session.New(f.tr,
		session.WithScheduler(f.clock),
		session.WithTrack(&audio.TrackInfo{Title: "Practice Riff"}),
	)
	f.s.Subscribe(func(ev loop.Event) {
		f.mu.Lock()
		f.events = append(f.events, ev)
		f.mu.Unlock()
	})
	t.Cleanup(func() { f.s.Close() })
	return f
}

func (f *fixture) kinds() []loop.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]loop.EventKind, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Kind
	}
	return out
}

// startLoop plays and commits the region [start, end].
func (f *fixture) startLoop(t *testing.T, start, end time.Duration) {
	t.Helper()
	require.NoError(t, f.s.Play())
	f.tr.SetPosition(start)
	state, err := f.s.Loop()
	require.NoError(t, err)
	require.Equal(t, loop.Armed, state)
	f.tr.SetPosition(end)
	state, err = f.s.Loop()
	require.NoError(t, err)
	require.Equal(t, loop.Looping, state)
}

func TestLoopDisabledUnlessPlaying(t *testing.T) {
	f := newFixture(t, time.Minute)

	state, err := f.s.Loop()
	assert.ErrorIs(t, err, session.ErrLoopDisabled)
	assert.Equal(t, loop.Idle, state)
	assert.Empty(t, f.kinds())
}

func TestLoopRewindsOnSchedule(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.startLoop(t, 10*time.Second, 20*time.Second)

	f.clock.Advance(25 * time.Second)

	st := f.s.Status()
	assert.Equal(t, loop.Looping, st.Loop)
	assert.Equal(t, 2, st.Cycle)
	assert.Equal(t, 15*time.Second, st.Position)
	assert.Equal(t, 10*time.Second, st.Start)
	assert.Equal(t, 20*time.Second, st.End)
	assert.True(t, st.HasStart)
	assert.True(t, st.HasEnd)
}

func TestPauseCancelsActiveLoop(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.startLoop(t, 10*time.Second, 20*time.Second)

	playing, err := f.s.TogglePlay()
	require.NoError(t, err)
	assert.False(t, playing)
	assert.Equal(t, loop.Idle, f.s.LoopState())

	f.tr.ResetCalls()
	f.clock.Advance(time.Minute)
	assert.Empty(t, f.tr.Calls(), "no rewind may follow a pause")
}

func TestPauseKeepsArmedMark(t *testing.T) {
	f := newFixture(t, time.Minute)
	require.NoError(t, f.s.Play())
	f.tr.SetPosition(5 * time.Second)
	_, err := f.s.Loop()
	require.NoError(t, err)

	require.NoError(t, f.s.Pause())
	assert.Equal(t, loop.Armed, f.s.LoopState())

	_, err = f.s.Loop()
	assert.ErrorIs(t, err, session.ErrLoopDisabled)

	playing, err := f.s.TogglePlay()
	require.NoError(t, err)
	assert.True(t, playing)

	f.tr.SetPosition(8 * time.Second)
	state, err := f.s.Loop()
	require.NoError(t, err)
	assert.Equal(t, loop.Looping, state)
}

func TestSeekLockedWhileRegionMarked(t *testing.T) {
	f := newFixture(t, time.Minute)
	require.NoError(t, f.s.Play())

	require.NoError(t, f.s.Seek(30*time.Second))
	require.NoError(t, f.s.SeekBy(-5*time.Second))
	pos, err := f.tr.Position()
	require.NoError(t, err)
	assert.Equal(t, 25*time.Second, pos)

	_, err = f.s.Loop()
	require.NoError(t, err)
	assert.ErrorIs(t, f.s.Seek(0), session.ErrSeekLocked)
	assert.ErrorIs(t, f.s.SeekBy(time.Second), session.ErrSeekLocked)

	f.s.CancelLoop()
	assert.NoError(t, f.s.SeekBy(time.Hour))
	pos, err = f.tr.Position()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, pos, "seek clamps to the track")

	require.NoError(t, f.s.Seek(-time.Second))
	pos, err = f.tr.Position()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), pos)
}

func TestInvalidRegionRecorded(t *testing.T) {
	f := newFixture(t, time.Minute)
	require.NoError(t, f.s.Play())
	f.tr.SetPosition(20 * time.Second)
	_, err := f.s.Loop()
	require.NoError(t, err)

	f.tr.SetPosition(10 * time.Second)
	state, err := f.s.Loop()
	assert.ErrorIs(t, err, loop.ErrInvalidRegion)
	assert.Equal(t, loop.Armed, state)
	assert.ErrorIs(t, f.s.Status().Err, loop.ErrInvalidRegion)
	assert.Contains(t, f.kinds(), loop.EventInvalidRegion)

	f.tr.SetPosition(25 * time.Second)
	_, err = f.s.Loop()
	require.NoError(t, err)
	assert.NoError(t, f.s.Status().Err, "a successful command clears the error")
}

func TestTransportFailureSurfaces(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.startLoop(t, 10*time.Second, 20*time.Second)

	boom := errors.New("device lost")
	f.tr.Fail(boom)
	f.clock.Advance(10 * time.Second)

	st := f.s.Status()
	assert.Equal(t, loop.Idle, st.Loop)
	assert.ErrorIs(t, st.Err, loop.ErrTransportUnavailable)
	assert.ErrorIs(t, st.Err, boom)
	assert.Contains(t, f.kinds(), loop.EventTransportUnavailable)
}

func TestFinishedReachesSubscribers(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	require.NoError(t, f.s.Play())
	f.tr.SetPosition(29 * time.Second)

	f.clock.Advance(2 * time.Second)

	assert.Equal(t, []loop.EventKind{loop.EventFinished}, f.kinds())
	assert.False(t, f.s.Status().Playing)
}

func TestFinishedInsideLoopRewinds(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	f.startLoop(t, 20*time.Second, 30*time.Second)

	f.clock.Advance(10 * time.Second)

	st := f.s.Status()
	assert.Equal(t, loop.Looping, st.Loop)
	assert.Equal(t, 1, st.Cycle)
	assert.True(t, st.Playing)
	assert.Equal(t, 20*time.Second, st.Position)
}

func TestVolumeUnsupported(t *testing.T) {
	f := newFixture(t, time.Minute)

	_, err := f.s.AdjustVolume(1)
	assert.ErrorIs(t, err, session.ErrNoVolume)
	assert.False(t, f.s.Status().HasVolume)
}

func TestStatusCarriesTrack(t *testing.T) {
	f := newFixture(t, time.Minute)
	st := f.s.Status()
	require.NotNil(t, st.Track)
	assert.Equal(t, "Practice Riff", st.Track.Title)
	assert.Equal(t, time.Minute, st.Duration)
	assert.False(t, st.HasStart)
}

func TestCloseStopsEverything(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.startLoop(t, 10*time.Second, 20*time.Second)

	require.NoError(t, f.s.Close())
	require.NoError(t, f.s.Close())

	assert.Equal(t, loop.Idle, f.s.LoopState())
	assert.False(t, f.tr.Playing())
	assert.Empty(t, f.clock.Active())

	assert.ErrorIs(t, f.s.Play(), session.ErrClosed)
	_, err := f.s.Loop()
	assert.ErrorIs(t, err, session.ErrClosed)
	assert.ErrorIs(t, f.s.Seek(0), session.ErrClosed)
}
