// Package logger builds the zerolog loggers shopcheck writes diagnostics to.
// Case results go to stdout through the report package; this log goes to
// stderr and stays quiet (warn) unless -v or --debug is given.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// Config holds logger configuration
type Config struct {
	Level string
	// Format is FormatPretty or FormatJSON
	Format string
	// WithCaller adds file:line to every event, set by --debug
	WithCaller bool
	Output     io.Writer
	TimeFormat string
}

// DefaultConfig logs warnings and errors to stderr in console format.
func DefaultConfig() *Config {
	return &Config{
		Level:      "warn",
		Format:     FormatPretty,
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// InitLogger sets the global level from config and returns a logger tagged
// with app=shopcheck. A nil config means DefaultConfig.
func InitLogger(config *Config) zerolog.Logger {
	if config == nil {
		config = DefaultConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseLevel(config.Level))
	zerolog.TimeFieldFormat = config.TimeFormat

	if config.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With().Timestamp().Str("app", "shopcheck")
	if config.WithCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// ParseLevel maps a level name to a zerolog.Level. Unknown names fall back
// to info.
func ParseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// SetupFromFlags maps -v, --debug and --log-format onto a logger.
func SetupFromFlags(verbose, debug bool, format string) zerolog.Logger {
	config := DefaultConfig()
	switch {
	case debug:
		config.Level = "debug"
		config.WithCaller = true
	case verbose:
		config.Level = "info"
	}
	if format != "" {
		config.Format = format
	}
	return InitLogger(config)
}

func ForComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// ForCase scopes logger to one request: every event carries the case name,
// method and path.
func ForCase(logger zerolog.Logger, name, method, path string) zerolog.Logger {
	return logger.With().
		Str("case", name).
		Str("method", method).
		Str("path", path).
		Logger()
}
