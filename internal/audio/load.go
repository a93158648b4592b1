package audio

import (
	"fmt"
	"io"
)

// Frames requested per decoder read
const readChunkFrames = 4096

// LoadClip decodes a WAV, MP3 or FLAC file completely into memory
func LoadClip(filename string) (*Clip, error) {
	dec, err := NewDecoder(filename)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return ReadClip(dec)
}

// ReadClip drains dec into a Clip. The decoder is not closed.
func ReadClip(dec AudioDecoder) (*Clip, error) {
	capacity := dec.NumFrames()
	if capacity <= 0 {
		capacity = int64(dec.SampleRate()) * 60 // one minute when length is unknown
	}

	frames := make([][2]float64, 0, capacity)
	for {
		chunk, err := dec.ReadFrames(readChunkFrames)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode audio: %w", err)
		}
		frames = append(frames, chunk...)
	}

	if len(frames) == 0 {
		return nil, ErrEmptyAudio
	}

	return NewClip(dec.SampleRate(), frames), nil
}
