package logging

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Level represents log severity
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger defines the interface for logging
// Implementations include file, console and null loggers
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields Fields)

	// Info logs an info message
	Info(ctx context.Context, msg string, fields Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a logger with additional fields
	WithFields(fields Fields) Logger

	// Close flushes and closes the logger
	Close() error
}

// Format represents the log output format
type Format string

const (
	FormatJSON   Format = "json"
	FormatText   Format = "text"
	FormatLogfmt Format = "logfmt"
)

// ParseFormat parses a log format string
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatText, "":
		return FormatText, nil
	case FormatLogfmt:
		return FormatLogfmt, nil
	default:
		return "", fmt.Errorf("unknown log format %q (use: text, json, logfmt)", s)
	}
}

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l Level) charm() log.Level {
	switch l {
	case DebugLevel:
		return log.DebugLevel
	case WarnLevel:
		return log.WarnLevel
	case ErrorLevel:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func (f Format) formatter() log.Formatter {
	switch f {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// keyvals flattens fields into sorted key/value pairs
func keyvals(fields Fields, err error) []interface{} {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, 2*len(keys)+2)
	if err != nil {
		kv = append(kv, "error", err.Error())
	}
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}

// charmLogger implements Logger on top of a charmbracelet logger
type charmLogger struct {
	logger *log.Logger
	close  func() error
}

func (l *charmLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.logger.Debug(msg, keyvals(fields, nil)...)
}

func (l *charmLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.logger.Info(msg, keyvals(fields, nil)...)
}

func (l *charmLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.logger.Warn(msg, keyvals(fields, nil)...)
}

func (l *charmLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.logger.Error(msg, keyvals(fields, err)...)
}

func (l *charmLogger) with(fields Fields) *charmLogger {
	return &charmLogger{
		logger: l.logger.With(keyvals(fields, nil)...),
		close:  l.close,
	}
}

func (l *charmLogger) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}
