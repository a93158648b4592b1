package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutFileDiscards(t *testing.T) {
	log, closer, err := New("", "debug")
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New("", "chatty")
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riffloop.log")

	log, closer, err := New(path, "warn")
	require.NoError(t, err)
	log.Info().Msg("dropped")
	log.Warn().Str("component", "loop").Msg("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.NotContains(t, out, "dropped", "info line written at warn level")
	assert.Contains(t, out, `"message":"kept"`)
	assert.Contains(t, out, `"component":"loop"`)
}

func TestNewWriterTimestamps(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, zerolog.DebugLevel)
	log.Debug().Msg("hello")

	assert.Contains(t, buf.String(), `"time":`)
}
