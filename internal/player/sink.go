package player

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Sink is where the player's stream chain is mixed. Streamers passed to Play
// are pulled while the sink lock is held, so anything they share with the
// caller must only be touched between Lock and Unlock.
type Sink interface {
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// SpeakerSink plays through the system audio device.
type SpeakerSink struct{}

// NewSpeakerSink initialises the speaker at sampleRate with a buffer of the
// given length. Larger buffers tolerate scheduling hiccups but delay pause
// and seek.
func NewSpeakerSink(sampleRate beep.SampleRate, buffer time.Duration) (*SpeakerSink, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(buffer)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return &SpeakerSink{}, nil
}

func (s *SpeakerSink) Play(streamers ...beep.Streamer) {
	speaker.Play(streamers...)
}

func (s *SpeakerSink) Clear() {
	speaker.Clear()
}

func (s *SpeakerSink) Lock() {
	speaker.Lock()
}

func (s *SpeakerSink) Unlock() {
	speaker.Unlock()
}

// Close releases the audio device.
func (s *SpeakerSink) Close() {
	speaker.Clear()
	speaker.Close()
}
