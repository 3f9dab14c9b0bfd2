package sink

import (
	"context"

	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/logger"
)

const TypeLog = "log"

// LogSink is the last resort: the event becomes a structured log line
type LogSink struct {
	logger logger.StyledLogger
}

func NewLogSink(log logger.StyledLogger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Name() string { return TypeLog }

func (s *LogSink) Write(_ context.Context, event domain.Event) error {
	args := []any{
		"event_id", event.ID,
		"source", event.Source,
		"level", event.Level,
		"timestamp", event.Timestamp,
	}
	if event.Identity != "" {
		args = append(args, "identity", event.Identity)
	}
	for k, v := range event.Metadata {
		args = append(args, k, v)
	}
	s.logger.Info("Event: "+event.Message, args...)
	return nil
}

func (s *LogSink) Close() error { return nil }
