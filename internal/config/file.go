package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// Config is the optional settings file. Zero values never reach callers:
// Load starts from Default and only overrides keys present in the file.
//
//	[playback]
//	buffer_ms = 100
//	seek_step = 5.0
//	volume    = 0.0
//
//	[ui]
//	refresh_ms   = 100
//	accent_color = "#FF8C00"
//
//	[log]
//	file  = "/tmp/riffloop.log"
//	level = "debug"
type Config struct {
	Playback Playback `toml:"playback"`
	UI       UI       `toml:"ui"`
	Log      Log      `toml:"log"`
}

type Playback struct {
	BufferMS int     `toml:"buffer_ms"`
	SeekStep float64 `toml:"seek_step"` // seconds
	Volume   float64 `toml:"volume"`
}

type UI struct {
	RefreshMS   int    `toml:"refresh_ms"`
	AccentColor string `toml:"accent_color"`
}

type Log struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Playback: Playback{
			BufferMS: int(SpeakerBuffer / time.Millisecond),
			SeekStep: SeekStep.Seconds(),
			Volume:   DefaultVolume,
		},
		UI: UI{
			RefreshMS:   int(RefreshInterval / time.Millisecond),
			AccentColor: AccentColor,
		},
		Log: Log{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	if c.Playback.BufferMS <= 0 {
		return fmt.Errorf("playback.buffer_ms must be positive, got %d", c.Playback.BufferMS)
	}
	if c.Playback.SeekStep <= 0 {
		return fmt.Errorf("playback.seek_step must be positive, got %g", c.Playback.SeekStep)
	}
	if c.Playback.Volume < MinVolume || c.Playback.Volume > MaxVolume {
		return fmt.Errorf("playback.volume must be within [%g, %g], got %g", MinVolume, MaxVolume, c.Playback.Volume)
	}
	if c.UI.RefreshMS <= 0 {
		return fmt.Errorf("ui.refresh_ms must be positive, got %d", c.UI.RefreshMS)
	}
	if _, _, _, err := ParseHexColor(c.UI.AccentColor); err != nil {
		return fmt.Errorf("ui.accent_color: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Buffer returns the speaker buffer length.
func (c Config) Buffer() time.Duration {
	return time.Duration(c.Playback.BufferMS) * time.Millisecond
}

// Refresh returns the TUI refresh interval.
func (c Config) Refresh() time.Duration {
	return time.Duration(c.UI.RefreshMS) * time.Millisecond
}

// SeekStep returns the relative seek step.
func (c Config) SeekStep() time.Duration {
	return time.Duration(c.Playback.SeekStep * float64(time.Second))
}
