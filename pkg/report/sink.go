// Package report carries human-readable run messages from the reconciliation
// core to whatever collects them.
package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sdejongh/modsync/pkg/logging"
	"github.com/sdejongh/modsync/pkg/models"
)

// Sink receives every info, warning and error produced during a run
type Sink interface {
	Report(msg models.Message)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(msg models.Message)

// Report calls f(msg)
func (f SinkFunc) Report(msg models.Message) {
	f(msg)
}

// Discard drops every message
var Discard Sink = SinkFunc(func(models.Message) {})

// Info reports an informational message
func Info(s Sink, group, path, format string, args ...interface{}) {
	emit(s, models.SeverityInfo, group, path, format, args...)
}

// Warning reports a skipped unit
func Warning(s Sink, group, path, format string, args ...interface{}) {
	emit(s, models.SeverityWarning, group, path, format, args...)
}

// Error reports a failed unit
func Error(s Sink, group, path, format string, args ...interface{}) {
	emit(s, models.SeverityError, group, path, format, args...)
}

func emit(s Sink, severity models.Severity, group, path, format string, args ...interface{}) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	s.Report(models.Message{
		Severity:  severity,
		Group:     group,
		Path:      path,
		Text:      text,
		Timestamp: time.Now(),
	})
}

// Multi fans a message out to several sinks in order
type Multi []Sink

// Report forwards msg to every sink
func (m Multi) Report(msg models.Message) {
	for _, s := range m {
		if s != nil {
			s.Report(msg)
		}
	}
}

// Collector keeps every message in memory
type Collector struct {
	mu       sync.Mutex
	messages []models.Message
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Report stores msg
func (c *Collector) Report(msg models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Messages returns a copy of the collected messages
func (c *Collector) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Filter returns the collected messages of one severity
func (c *Collector) Filter(severity models.Severity) []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Message
	for _, m := range c.messages {
		if m.Severity == severity {
			out = append(out, m)
		}
	}
	return out
}

// Count returns how many messages of a severity were collected
func (c *Collector) Count(severity models.Severity) int {
	return len(c.Filter(severity))
}

// Reset drops everything collected so far
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// LoggerSink writes messages to a structured logger
type LoggerSink struct {
	ctx    context.Context
	logger logging.Logger
}

// NewLoggerSink creates a sink logging through logger
func NewLoggerSink(ctx context.Context, logger logging.Logger) *LoggerSink {
	return &LoggerSink{ctx: ctx, logger: logger}
}

// Report logs msg at the level matching its severity
func (s *LoggerSink) Report(msg models.Message) {
	fields := logging.Fields{}
	if msg.Group != "" {
		fields["group"] = msg.Group
	}
	if msg.Path != "" {
		fields["path"] = msg.Path
	}

	switch msg.Severity {
	case models.SeverityError:
		s.logger.Error(s.ctx, msg.Text, nil, fields)
	case models.SeverityWarning:
		s.logger.Warn(s.ctx, msg.Text, fields)
	default:
		s.logger.Info(s.ctx, msg.Text, fields)
	}
}
