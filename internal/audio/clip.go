package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrEmptyAudio is returned when a decoder yields no frames
var ErrEmptyAudio = errors.New("no audio frames decoded")

// Clip holds a fully decoded track in memory and plays it as a seekable
// stereo stream. It satisfies beep.StreamSeeker.
//
// Design:
// - Frames are decoded once up front; seeking is an index move
// - Stream and Seek are normally called under the speaker lock, the mutex
//   covers readers that are not
// - Reaching the end returns ok=false so a beep.Seq can fire its callback
type Clip struct {
	mu sync.Mutex

	sampleRate int
	frames     [][2]float64
	pos        int
}

// NewClip wraps decoded frames recorded at sampleRate
func NewClip(sampleRate int, frames [][2]float64) *Clip {
	return &Clip{sampleRate: sampleRate, frames: frames}
}

// Stream copies the next frames into samples
func (c *Clip) Stream(samples [][2]float64) (n int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pos >= len(c.frames) {
		return 0, false
	}
	n = copy(samples, c.frames[c.pos:])
	c.pos += n
	return n, true
}

// Err always returns nil; decoding errors surface from LoadClip
func (c *Clip) Err() error {
	return nil
}

// Len returns the total number of frames
func (c *Clip) Len() int {
	return len(c.frames)
}

// Position returns the index of the next frame to be streamed
func (c *Clip) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// Seek moves the read position to frame p. Seeking to Len is allowed and
// leaves the clip drained.
func (c *Clip) Seek(p int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p < 0 || p > len(c.frames) {
		return fmt.Errorf("seek to frame %d out of range [0, %d]", p, len(c.frames))
	}
	c.pos = p
	return nil
}

// SampleRate returns the rate the frames were decoded at
func (c *Clip) SampleRate() int {
	return c.sampleRate
}

// Duration returns the playing time of the whole clip
func (c *Clip) Duration() time.Duration {
	return FramesToDuration(int64(len(c.frames)), c.sampleRate)
}
