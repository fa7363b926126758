// Package notify delivers operator alerts such as repeated duplicate adds.
// Delivery is best effort: callers go through a Dispatcher, which never
// blocks and never reports a failure back.
package notify

import (
	"context"
	"log/slog"
)

// Sink delivers one message.
type Sink interface {
	Notify(ctx context.Context, message string) error
}

// LogSink writes messages to the log. Used when no webhook is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, message string) error {
	s.logger.WarnContext(ctx, "notification", "message", message)
	return nil
}
