// Package logging configures zerolog loggers for the CLI and the engine.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a logger writing to w at the given level. An empty level means
// info. Format "json" emits JSON lines; anything else renders
// human-readable console output.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	if level == "" {
		level = zerolog.LevelInfoValue
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", level, err)
	}

	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Nop returns a disabled logger. Library consumers that do not opt into
// logging get this by default.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
