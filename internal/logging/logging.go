// Package logging configures the global zerolog logger. The TUI owns the
// terminal, so output goes to a file in the data directory.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points log.Logger at path and returns the file so the caller can
// close it on exit.
func Setup(path, level string) (io.Closer, error) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: f, NoColor: true}).With().Timestamp().Logger()
	return f, nil
}

// Discard silences logging, used by tests and when the log file is unavailable.
func Discard() {
	log.Logger = zerolog.New(io.Discard)
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
