package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// AudioDecoder defines the interface for all audio format decoders
type AudioDecoder interface {
	// ReadFrames reads up to n stereo frames normalised to [-1.0, 1.0].
	// Mono sources are duplicated into both channels.
	// Returns io.EOF when no frames remain
	ReadFrames(n int) ([][2]float64, error)

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// NumFrames returns the total number of frames in the audio file
	// Returns 0 if the length is unknown
	NumFrames() int64

	// NumChannels returns the number of channels in the source (1=mono, 2=stereo)
	NumChannels() int

	// Close closes the decoder and releases resources
	Close() error
}

// ErrUnsupportedFormat is returned for file extensions with no decoder
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// NewDecoder opens filename with the decoder matching its extension
func NewDecoder(filename string) (AudioDecoder, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".wav", ".wave":
		d, err := NewWAVDecoder(filename)
		if err != nil {
			return nil, err
		}
		return d, nil
	case ".mp3":
		d, err := NewMP3Decoder(filename)
		if err != nil {
			return nil, err
		}
		return d, nil
	case ".flac":
		d, err := NewFLACDecoder(filename)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FramesToDuration converts a frame count at sampleRate to a duration
func FramesToDuration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// DurationToFrames converts a duration to a frame count at sampleRate
func DurationToFrames(d time.Duration, sampleRate int) int64 {
	return int64(d) * int64(sampleRate) / int64(time.Second)
}
