// Package logx configures the process-wide structured logger.
//
// All components receive a zerolog.Logger value (usually via With() so the
// component name is attached once). The zero-cost Nop() logger keeps tests
// quiet.
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config controls logger output.
type Config struct {
	Level   string // trace|debug|info|warn|error (default info)
	Console bool   // human-readable console writer instead of JSON
}

// New builds the root logger. JSON goes to stdout; console mode uses the
// zerolog console writer with short timestamps. The level is applied via the
// zerolog global level so SetLevel can change it at runtime (config reload).
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = consoleTimeFormat
	zerolog.ErrorFieldName = "err"
	SetLevel(cfg.Level)

	var out io.Writer = os.Stdout
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// SetLevel adjusts the process-wide log level.
func SetLevel(level string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// Nop returns a logger that never writes anything.
func Nop() zerolog.Logger { return zerolog.Nop() }

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "", "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
