package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always outputs 16-bit little-endian interleaved stereo
const mp3BytesPerFrame = 4

// MP3Decoder implements AudioDecoder for MP3 files
type MP3Decoder struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
	buf        []byte
}

// NewMP3Decoder creates a new MP3 decoder
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	return &MP3Decoder{
		decoder:    decoder,
		file:       f,
		sampleRate: decoder.SampleRate(),
	}, nil
}

// ReadFrames reads the next n frames
func (d *MP3Decoder) ReadFrames(n int) ([][2]float64, error) {
	if cap(d.buf) < n*mp3BytesPerFrame {
		d.buf = make([]byte, n*mp3BytesPerFrame)
	}
	buf := d.buf[:n*mp3BytesPerFrame]

	read, err := io.ReadFull(d.decoder, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	numFrames := read / mp3BytesPerFrame
	if numFrames == 0 {
		return nil, io.EOF
	}

	frames := make([][2]float64, numFrames)
	for i := range frames {
		left := int16(buf[i*4]) | (int16(buf[i*4+1]) << 8)
		right := int16(buf[i*4+2]) | (int16(buf[i*4+3]) << 8)
		frames[i] = [2]float64{float64(left) / 32768.0, float64(right) / 32768.0}
	}

	return frames, nil
}

// SampleRate returns the sample rate
func (d *MP3Decoder) SampleRate() int {
	return d.sampleRate
}

// NumFrames returns the total frame count, or 0 if go-mp3 could not
// determine the stream length
func (d *MP3Decoder) NumFrames() int64 {
	length := d.decoder.Length()
	if length <= 0 {
		return 0
	}
	return length / mp3BytesPerFrame
}

// NumChannels returns the number of audio channels
func (d *MP3Decoder) NumChannels() int {
	return 2
}

// Close closes the decoder and releases resources
func (d *MP3Decoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
