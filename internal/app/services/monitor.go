package services

import (
	"context"
	"time"

	"github.com/thushan/warden/internal/adapter/monitor"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/logger"
)

// MonitorService owns the metrics aggregator. Collection itself is driven by
// the scheduler, this service only wires the aggregator's inputs.
type MonitorService struct {
	config      *config.MonitorConfig
	stats       *StatsService
	events      *EventsService
	persistence *PersistenceService
	security    *SecurityService
	logger      logger.StyledLogger
	aggregator  *monitor.Aggregator
	startTime   time.Time
}

func NewMonitorService(
	cfg *config.MonitorConfig,
	startTime time.Time,
	stats *StatsService,
	events *EventsService,
	persistence *PersistenceService,
	security *SecurityService,
	logger logger.StyledLogger,
) *MonitorService {
	return &MonitorService{
		config:      cfg,
		startTime:   startTime,
		stats:       stats,
		events:      events,
		persistence: persistence,
		security:    security,
		logger:      logger,
	}
}

func (s *MonitorService) Name() string {
	return "monitor"
}

func (s *MonitorService) Start(ctx context.Context) error {
	opts := monitor.Options{
		Stats:        s.stats.GetCollector(),
		EventLog:     s.events.GetEventLog(),
		Probe:        s.persistence.GetProbe(),
		Publisher:    s.events.Publisher(),
		Security:     s.security.GetServices(),
		Observer:     s.stats.GetPromMetrics(),
		Logger:       s.logger,
		StartTime:    s.startTime,
		Thresholds:   s.config.Health,
		HistorySize:  s.config.HistorySize,
		ProbeTimeout: s.config.ProbeTimeout,
		ErrorWindow:  s.config.ErrorWindow,
		MemoryLimit:  s.config.MemoryLimitBytes,
	}
	s.aggregator = monitor.NewAggregator(opts)
	s.logger.Info("Metrics aggregator initialised",
		"interval", s.config.Interval,
		"historySize", s.config.HistorySize,
		"memoryLimit", s.config.MemoryLimit)
	return nil
}

func (s *MonitorService) Stop(ctx context.Context) error {
	return nil
}

func (s *MonitorService) Dependencies() []string {
	return []string{"stats", "events", "persistence", "security"}
}

func (s *MonitorService) GetAggregator() *monitor.Aggregator {
	if s.aggregator == nil {
		panic("aggregator not initialised")
	}
	return s.aggregator
}

func (s *MonitorService) SetThresholds(t domain.HealthThresholds) {
	if s.aggregator != nil {
		s.aggregator.SetThresholds(t)
	}
}
