package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	testCases := []struct {
		input   string
		rgb     [3]uint8
		wantErr bool
	}{
		{input: AccentColor, rgb: [3]uint8{255, 140, 0}},
		{input: "dc143c", rgb: [3]uint8{220, 20, 60}},
		{input: "#010203", rgb: [3]uint8{1, 2, 3}},
		{input: "#FFF", wantErr: true},
		{input: "FFFFFFF", wantErr: true},
		{input: "#GGGGGG", wantErr: true},
		{input: "##FF000", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			r, g, b, err := ParseHexColor(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.rgb, [3]uint8{r, g, b})
		})
	}
}

// writeConfig writes body to a temporary TOML file and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riffloop.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestLoad_EmptyPath verifies that no config file means built-in defaults.
func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, SpeakerBuffer, cfg.Buffer())
	assert.Equal(t, RefreshInterval, cfg.Refresh())
	assert.Equal(t, SeekStep, cfg.SeekStep())
}

// TestLoad_Overrides verifies that keys present in the file replace the
// defaults and absent keys keep them.
func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
[playback]
buffer_ms = 250
seek_step = 2.5

[ui]
accent_color = "#DC143C"

[log]
file  = "/tmp/riffloop.log"
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Buffer())
	assert.Equal(t, 2500*time.Millisecond, cfg.SeekStep())
	assert.Equal(t, DefaultVolume, cfg.Playback.Volume)
	assert.Equal(t, RefreshInterval, cfg.Refresh())
	assert.Equal(t, "#DC143C", cfg.UI.AccentColor)
	assert.Equal(t, Log{File: "/tmp/riffloop.log", Level: "debug"}, cfg.Log)
}

// TestLoad_Errors verifies that malformed, unknown and out of range settings
// are rejected with a message naming the problem.
func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"Malformed TOML", "[playback\nbuffer_ms = 1", "config: read"},
		{"Unknown key", "[playback]\nbufer_ms = 100", "unknown keys: playback.bufer_ms"},
		{"Zero buffer", "[playback]\nbuffer_ms = 0", "playback.buffer_ms"},
		{"Negative seek step", "[playback]\nseek_step = -1.0", "playback.seek_step"},
		{"Volume too loud", "[playback]\nvolume = 3.0", "playback.volume"},
		{"Zero refresh", "[ui]\nrefresh_ms = 0", "ui.refresh_ms"},
		{"Bad accent colour", "[ui]\naccent_color = \"orange\"", "ui.accent_color"},
		{"Bad log level", "[log]\nlevel = \"chatty\"", "log.level"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

// TestLoad_MissingFile verifies that a named but absent file is an error
// rather than a silent fallback to defaults.
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
