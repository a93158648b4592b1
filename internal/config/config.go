package config

import "time"

// Playback settings
const (
	SpeakerBuffer = 100 * time.Millisecond // speaker buffer; larger values delay pause and seek
	SeekStep      = 5 * time.Second        // ←/→ and ff/rw step
	VolumeStep    = 0.5                    // +/- step in base-2 exponent units
	DefaultVolume = 0.0
	MinVolume     = -8.0 // silent
	MaxVolume     = 2.0
)

// UI settings
const (
	RefreshInterval = 100 * time.Millisecond // TUI position refresh
	ProgressWidth   = 60                     // progress bar width in cells

	// Fire orange, shared with the CLI help palette
	AccentColor = "#FF8C00"
)

// Logging
const (
	DefaultLogLevel = "info"
)
