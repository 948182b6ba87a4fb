// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string
	Format string // json or console

	// Output defaults to stderr. Stdout is reserved for MCP traffic.
	Output io.Writer
}

// New creates a logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var zl zerolog.Logger
	if cfg.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    output != os.Stderr,
		})
	} else {
		zl = zerolog.New(output)
	}

	return zl.Level(ParseLevel(cfg.Level)).With().
		Timestamp().
		Str("service", "screen-ocr-mcp").
		Logger()
}

// ParseLevel converts a level name to zerolog.Level. Unknown names map to
// info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
