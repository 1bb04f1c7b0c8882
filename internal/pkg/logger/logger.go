// Package logger wraps zerolog so the rest of the codebase depends on a
// single constructor instead of zerolog's global state.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger options.
type Config struct {
	IsProduction bool   // production -> JSON output; otherwise console writer
	Level        string // trace, debug, info, warn, error
}

// New creates a structured logger. Development uses human-readable console
// output; production emits JSON lines.
func New(cfg Config) zerolog.Logger {
	var w io.Writer = os.Stdout
	if !cfg.IsProduction {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zl := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()

	// Redirect zerolog's global logger for libraries that use it.
	log.Logger = zl

	return zl
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
