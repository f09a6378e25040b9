// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Format is FormatJSON (default) or FormatConsole.
	Format string

	// Service is attached to every entry as "service" when set.
	Service string

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	zerolog.SetGlobalLevel(toZerolog(cfg.Level))

	// Pick the writer and format
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out}
	}

	// Timestamp every event, tag it with the service if known
	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	// Replace the global logger
	log.Logger = logger
	return logger
}

// ParseLevel validates a configured level name.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// toZerolog converts LogLevel to zerolog.Level; unknown levels map to info.
func toZerolog(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: page flow
//   - Freshness decisions (stale page fetched, fresh page read from store)
//   - Store reads and writes
//   - Pager creation and demand signals
//
// Info: Normal operation events
//   - Server startup/shutdown
//   - Warm runs and their totals
//   - Requests that succeeded after retry
//
// Warn: conditions that don't stop paging
//   - Failed page loads (surfaced to the stream as an error event)
//   - Rate limit throttling
//   - Retry attempts and exhausted retries
//
// Error: conditions requiring attention
//   - Rate limit blocks
//   - Store or Redis unavailability at startup
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package
//   - type: brewery type of the page
//   - page: page number
//   - op: failing load step (read_freshness, fetch, write_freshness, upsert, query_store, cancelled)
//   - endpoint: API endpoint label
//   - error_class: client, server, rate_limit, network
//   - remaining: requests left in the API rate limit window
//   - request_id: HTTP request id
