// Package log builds the process logger. Standard output carries the
// analyzer protocol, so logs go to standard error or a file, never stdout.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger for the application.
type Logger struct {
	zerolog.Logger
}

// New creates a logger writing to standard error.
func New(level string, pretty bool) *Logger {
	return NewWithOutput(os.Stderr, level, pretty)
}

// NewWithOutput creates a logger writing to w. An unparseable level falls
// back to info.
func NewWithOutput(w io.Writer, level string, pretty bool) *Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	if err != nil {
		l.Warn().Str("level", level).Msg("Unknown log level, using info")
	}
	return &Logger{Logger: l}
}

// ParseLevel accepts the analyzer severity names (CRITICAL, ERROR, WARNING,
// INFO, DEBUG) and the zerolog names, case-insensitively. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "critical", "fatal":
		return zerolog.FatalLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "warning", "warn":
		return zerolog.WarnLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// OpenFile opens path for appending log output.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

// NewTranscript creates a plain-text logger for request/reply transcripts:
// one timestamped line per record, without level markers.
func NewTranscript(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      true,
		TimeFormat:   time.RFC3339Nano,
		PartsExclude: []string{zerolog.LevelFieldName},
	}).With().Timestamp().Logger()
}
