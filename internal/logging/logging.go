// Package logging builds the zerolog logger shared by the CLI and robot.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable consulted when no level is given.
const EnvLevel = "MINDCUBER_LOG_LEVEL"

// New returns a logger writing to stderr at the named level. An empty level
// falls back to EnvLevel and then to info.
func New(level string, pretty bool) (zerolog.Logger, error) {
	return NewWriter(os.Stderr, level, pretty)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, level string, pretty bool) (zerolog.Logger, error) {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), err
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
