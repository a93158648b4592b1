// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing JSON lines to file at level. The terminal
// belongs to the UI, so with no file the logger discards everything.
// The returned closer must be closed on exit.
func New(file, level string) (zerolog.Logger, io.Closer, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("logging: %w", err)
		}
		lvl = parsed
	}

	if file == "" {
		return zerolog.Nop(), nopCloser{}, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("logging: open %s: %w", file, err)
	}

	return NewWriter(f, lvl), f, nil
}

// NewWriter returns a timestamped logger at level writing to w.
func NewWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
