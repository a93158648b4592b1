package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/stretchr/testify/require"
)

// testSample is the left channel value of frame i in every generated
// fixture; the right channel holds its negation.
func testSample(i int) int {
	return (i % 100) * 100
}

// writeTestWAV writes a 16-bit PCM file of testSample frames.
func writeTestWAV(t *testing.T, name string, sampleRate, channels, frames int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, frames*channels),
	}
	for i := 0; i < frames; i++ {
		buf.Data[i*channels] = testSample(i)
		if channels > 1 {
			buf.Data[i*channels+1] = -testSample(i)
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

// writeTestFLAC writes a 16-bit stereo FLAC file of testSample frames in
// fixed-size blocks, with optional Vorbis comment tags.
func writeTestFLAC(t *testing.T, name string, sampleRate, blockSize, blocks int, tags ...[2]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)

	info := &meta.StreamInfo{
		BlockSizeMin:  uint16(blockSize),
		BlockSizeMax:  uint16(blockSize),
		SampleRate:    uint32(sampleRate),
		NChannels:     2,
		BitsPerSample: 16,
		NSamples:      uint64(blockSize * blocks),
	}
	var extra []*meta.Block
	if len(tags) > 0 {
		extra = append(extra, &meta.Block{
			// Length only has to be non-zero; the encoder sizes the body
			Header: meta.Header{Type: meta.TypeVorbisComment, Length: 1},
			Body:   &meta.VorbisComment{Vendor: "riffloop", Tags: tags},
		})
	}

	enc, err := flac.NewEncoder(f, info, extra...)
	require.NoError(t, err)

	for b := 0; b < blocks; b++ {
		left := make([]int32, blockSize)
		right := make([]int32, blockSize)
		for i := range left {
			v := int32(testSample(b*blockSize + i))
			left[i], right[i] = v, -v
		}
		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(blockSize),
				SampleRate:        uint32(sampleRate),
				Channels:          frame.ChannelsLR,
				BitsPerSample:     16,
			},
			Subframes: []*frame.Subframe{
				{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: left, NSamples: blockSize},
				{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: right, NSamples: blockSize},
			},
		}
		require.NoError(t, enc.WriteFrame(fr))
	}

	// Close rewrites StreamInfo and closes f
	require.NoError(t, enc.Close())
	return path
}

// mp3SilentFrame is one MPEG-1 Layer III frame at 128 kbit/s, 44.1 kHz,
// stereo, no CRC: 417 bytes with zeroed side info and main data, which
// decodes to 1152 frames of silence.
func mp3SilentFrame() []byte {
	buf := make([]byte, 144*128000/44100)
	copy(buf, []byte{0xFF, 0xFB, 0x90, 0x00})
	return buf
}

// mp3Silence returns n silent MP3 frames back to back.
func mp3Silence(n int) []byte {
	var data []byte
	for i := 0; i < n; i++ {
		data = append(data, mp3SilentFrame()...)
	}
	return data
}

// writeTestMP3 writes n silent MP3 frames to a file.
func writeTestMP3(t *testing.T, name string, n int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, mp3Silence(n), 0o644))
	return path
}
