package admincolumns

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// PreferencesSaved does nothing and returns nil
func (n *NoopEventSink) PreferencesSaved(ctx context.Context, contentType ContentType, prefs PreferenceMap) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
type LoggingEventSink struct {
	logger Logger
}

// Logger interface for logging events
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger Logger) EventSink {
	return &LoggingEventSink{logger: logger}
}

// PreferencesSaved logs the saved map with hidden columns listed in key order
func (l *LoggingEventSink) PreferencesSaved(ctx context.Context, contentType ContentType, prefs PreferenceMap) error {
	hidden := make([]string, 0, len(prefs))
	for key := range prefs {
		if prefs.IsHidden(key) {
			hidden = append(hidden, string(key))
		}
	}
	sort.Strings(hidden)
	l.logger.Infof("Preferences saved: ContentType=%s, Entries=%d, Hidden=%v", contentType, len(prefs), hidden)
	return nil
}

// SlogLogger adapts a *slog.Logger to the Logger interface
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger; nil uses slog.Default()
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (s *SlogLogger) Infof(format string, args ...interface{}) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

func (s *SlogLogger) Errorf(format string, args ...interface{}) {
	s.logger.Error(fmt.Sprintf(format, args...))
}
