package audio

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

// TrackInfo describes a track for display
type TrackInfo struct {
	Title      string
	Artist     string
	Album      string
	Format     string // WAV, MP3 or FLAC
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// ReadTrackInfo reads the stream format and any embedded tags from filename.
// Only FLAC carries tags the decoders can read; the title otherwise falls
// back to the file name without its extension.
func ReadTrackInfo(filename string) (*TrackInfo, error) {
	dec, err := NewDecoder(filename)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(filename)
	info := &TrackInfo{
		Title:      strings.TrimSuffix(filepath.Base(filename), ext),
		Format:     strings.ToUpper(strings.TrimPrefix(ext, ".")),
		SampleRate: dec.SampleRate(),
		Channels:   dec.NumChannels(),
		Duration:   FramesToDuration(dec.NumFrames(), dec.SampleRate()),
	}
	dec.Close()

	if strings.EqualFold(ext, ".flac") {
		if err := readVorbisComment(filename, info); err != nil {
			return nil, err
		}
	}

	return info, nil
}

func readVorbisComment(filename string, info *TrackInfo) error {
	stream, err := flac.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC metadata: %w", err)
	}
	defer stream.Close()

	for _, block := range stream.Blocks {
		comment, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		for _, tag := range comment.Tags {
			value := strings.TrimSpace(tag[1])
			if value == "" {
				continue
			}
			switch strings.ToUpper(tag[0]) {
			case "TITLE":
				info.Title = value
			case "ARTIST":
				info.Artist = value
			case "ALBUM":
				info.Album = value
			}
		}
	}

	return nil
}
