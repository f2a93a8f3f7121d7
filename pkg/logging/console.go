package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// ConsoleLogger writes colored, human-oriented log lines to a terminal stream
type ConsoleLogger struct {
	*charmLogger
}

// NewConsoleLogger creates a console logger writing to stderr
func NewConsoleLogger(level Level) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, level, FormatText)
}

// NewConsoleLoggerTo creates a console logger writing to w
func NewConsoleLoggerTo(w io.Writer, level Level, format Format) *ConsoleLogger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "modsync",
		Level:           level.charm(),
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Formatter:       format.formatter(),
	})
	return &ConsoleLogger{charmLogger: &charmLogger{logger: logger}}
}

// WithFields returns a logger with additional fields
func (l *ConsoleLogger) WithFields(fields Fields) Logger {
	return &ConsoleLogger{charmLogger: l.with(fields)}
}

// Multi fans every entry out to several loggers
type Multi []Logger

// NewMulti combines loggers, skipping nil ones
func NewMulti(loggers ...Logger) Logger {
	var m Multi
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	switch len(m) {
	case 0:
		return NewNullLogger()
	case 1:
		return m[0]
	}
	return m
}

func (m Multi) Debug(ctx context.Context, msg string, fields Fields) {
	for _, l := range m {
		l.Debug(ctx, msg, fields)
	}
}

func (m Multi) Info(ctx context.Context, msg string, fields Fields) {
	for _, l := range m {
		l.Info(ctx, msg, fields)
	}
}

func (m Multi) Warn(ctx context.Context, msg string, fields Fields) {
	for _, l := range m {
		l.Warn(ctx, msg, fields)
	}
}

func (m Multi) Error(ctx context.Context, msg string, err error, fields Fields) {
	for _, l := range m {
		l.Error(ctx, msg, err, fields)
	}
}

func (m Multi) WithFields(fields Fields) Logger {
	out := make(Multi, len(m))
	for i, l := range m {
		out[i] = l.WithFields(fields)
	}
	return out
}

func (m Multi) Close() error {
	var first error
	for _, l := range m {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
