// Package telemetry defines the event sink the frontend reports conversion
// diagnostics to, plus the two sinks shipped with the module.
package telemetry

import "log/slog"

// Sink receives frontend events. Strict conversion sends one event per
// distinct unsupported op type.
type Sink interface {
	SendEvent(category, payload string)
}

// LogSink forwards events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing to l, or to slog.Default when l is nil.
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{logger: l}
}

// SendEvent implements Sink.
func (s *LogSink) SendEvent(category, payload string) {
	s.logger.Info("telemetry event", "category", category, "payload", payload)
}

// Event is one recorded sink invocation.
type Event struct {
	Category string
	Payload  string
}

// MemorySink records events for inspection in tests.
type MemorySink struct {
	Events []Event
}

// SendEvent implements Sink.
func (s *MemorySink) SendEvent(category, payload string) {
	s.Events = append(s.Events, Event{Category: category, Payload: payload})
}
