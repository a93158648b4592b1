package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements AudioDecoder for FLAC files
type FLACDecoder struct {
	stream      *flac.Stream
	file        *os.File
	sampleRate  int
	numFrames   int64
	numChannels int

	// Decoded frames not yet returned; FLAC blocks rarely align with n
	pending [][2]float64
}

// NewFLACDecoder creates a new FLAC decoder
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	// Parse FLAC stream - reads signature and StreamInfo block
	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	return &FLACDecoder{
		stream:      stream,
		file:        f,
		sampleRate:  int(stream.Info.SampleRate),
		numFrames:   int64(stream.Info.NSamples),
		numChannels: int(stream.Info.NChannels),
	}, nil
}

// ReadFrames reads the next n frames
func (d *FLACDecoder) ReadFrames(n int) ([][2]float64, error) {
	for len(d.pending) < n {
		frame, err := d.stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		// One subframe per channel; keep the first two
		left := frame.Subframes[0].Samples
		right := left
		if len(frame.Subframes) > 1 {
			right = frame.Subframes[1].Samples
		}

		// FLAC supports 4-32 bits per sample
		maxVal := float64(int64(1) << (frame.BitsPerSample - 1))
		for i := range left {
			d.pending = append(d.pending, [2]float64{
				float64(left[i]) / maxVal,
				float64(right[i]) / maxVal,
			})
		}
	}

	if len(d.pending) == 0 {
		return nil, io.EOF
	}

	take := min(n, len(d.pending))
	frames := make([][2]float64, take)
	copy(frames, d.pending[:take])
	d.pending = d.pending[take:]
	return frames, nil
}

// SampleRate returns the sample rate
func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

// NumFrames returns the total frame count from StreamInfo
func (d *FLACDecoder) NumFrames() int64 {
	return d.numFrames
}

// NumChannels returns the number of audio channels
func (d *FLACDecoder) NumChannels() int {
	return d.numChannels
}

// Close closes the decoder and releases resources
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
		d.stream = nil
	}
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
