package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder implements AudioDecoder for WAV files
type WAVDecoder struct {
	decoder    *wav.Decoder
	file       *os.File
	sampleRate int
	bitDepth   int
	numChans   int
	numFrames  int64
}

// NewWAVDecoder creates a new WAV decoder
func NewWAVDecoder(filename string) (*WAVDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("invalid WAV file")
	}

	// Get format info without reading all samples
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}

	numChans := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	if numChans == 0 || bitDepth == 0 {
		f.Close()
		return nil, fmt.Errorf("invalid WAV format: %d channels, %d bits", numChans, bitDepth)
	}

	// PCMLen gives us the length of PCM data in bytes
	bytesPerFrame := int64(bitDepth/8) * int64(numChans)

	return &WAVDecoder{
		decoder:    decoder,
		file:       f,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   bitDepth,
		numChans:   numChans,
		numFrames:  decoder.PCMLen() / bytesPerFrame,
	}, nil
}

// ReadFrames reads the next n frames
func (d *WAVDecoder) ReadFrames(n int) ([][2]float64, error) {
	// Interleaved data needs n × numChans slots
	intBuf := &audio.IntBuffer{
		Data: make([]int, n*d.numChans),
		Format: &audio.Format{
			NumChannels: d.numChans,
			SampleRate:  d.sampleRate,
		},
	}

	read, err := d.decoder.PCMBuffer(intBuf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}

	numFrames := read / d.numChans
	if numFrames == 0 {
		return nil, io.EOF
	}

	maxVal := float64(audio.IntMaxSignedValue(d.bitDepth))
	sample := func(v int) float64 {
		// 8-bit WAV is unsigned
		if d.bitDepth == 8 {
			v -= 128
		}
		return float64(v) / maxVal
	}

	frames := make([][2]float64, numFrames)
	for i := range frames {
		left := sample(intBuf.Data[i*d.numChans])
		right := left
		if d.numChans > 1 {
			right = sample(intBuf.Data[i*d.numChans+1])
		}
		frames[i] = [2]float64{left, right}
	}

	return frames, nil
}

// SampleRate returns the sample rate
func (d *WAVDecoder) SampleRate() int {
	return d.sampleRate
}

// NumFrames returns the total frame count
func (d *WAVDecoder) NumFrames() int64 {
	return d.numFrames
}

// NumChannels returns the number of audio channels
func (d *WAVDecoder) NumChannels() int {
	return d.numChans
}

// Close closes the decoder and releases resources
func (d *WAVDecoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
