package services

import (
	"context"
	"fmt"

	"github.com/thushan/warden/internal/adapter/eventlog"
	"github.com/thushan/warden/internal/adapter/sink"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
)

// EventsService owns the bounded in-memory event log and the forwarder to
// the external sink. Everything that records a security or monitor event
// reaches both through here.
type EventsService struct {
	config    *config.Config
	stats     *StatsService
	log       *eventlog.Log
	forwarder *sink.Forwarder
	logger    logger.StyledLogger
}

func NewEventsService(cfg *config.Config, stats *StatsService, logger logger.StyledLogger) *EventsService {
	return &EventsService{
		config: cfg,
		stats:  stats,
		logger: logger,
	}
}

func (s *EventsService) Name() string {
	return "events"
}

func (s *EventsService) Start(ctx context.Context) error {
	s.log = eventlog.New(s.config.EventLog.Capacity, s.config.EventLog.Retention)

	forwarder, err := sink.New(s.config.Sink, s.logger, s.stats.GetPromMetrics())
	if err != nil {
		return fmt.Errorf("failed to create event sink: %w", err)
	}
	s.forwarder = forwarder

	stats := s.forwarder.Stats()
	s.logger.Info("Event log initialised",
		"capacity", s.config.EventLog.Capacity,
		"retention", s.config.EventLog.Retention,
		"sink", stats.Primary,
		"fallback", stats.Fallback)
	return nil
}

// Stop drains queued events into the sink before closing it
func (s *EventsService) Stop(ctx context.Context) error {
	if err := s.forwarder.Close(); err != nil {
		s.logger.Warn("Event sink did not close cleanly", "error", err)
		return err
	}
	return nil
}

func (s *EventsService) Dependencies() []string {
	return []string{"stats"}
}

func (s *EventsService) GetEventLog() *eventlog.Log {
	if s.log == nil {
		panic("event log not initialised")
	}
	return s.log
}

// Publisher returns the sink forwarder, or nil when no sink is configured
func (s *EventsService) Publisher() ports.EventPublisher {
	if s.forwarder == nil {
		return nil
	}
	return s.forwarder
}

func (s *EventsService) SinkStats() sink.ForwarderStats {
	return s.forwarder.Stats()
}
