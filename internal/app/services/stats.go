package services

import (
	"context"

	"github.com/thushan/warden/internal/adapter/stats"
	"github.com/thushan/warden/internal/logger"
)

// StatsService provides centralised metrics collection for all system components.
// It initialises early in the startup sequence as most other services depend on it
// for instrumentation and observability.
type StatsService struct {
	collector *stats.Collector
	prom      *stats.PromMetrics
	logger    logger.StyledLogger
}

// NewStatsService creates a new stats service
func NewStatsService(logger logger.StyledLogger) *StatsService {
	return &StatsService{
		logger: logger,
	}
}

// Name returns the service name
func (s *StatsService) Name() string {
	return "stats"
}

// Start initialises the Prometheus registry and the stats collector
func (s *StatsService) Start(ctx context.Context) error {
	s.prom = stats.NewPromMetrics(stats.DefaultNamespace)
	s.collector = stats.NewCollector(s.logger, s.prom)

	s.logger.Debug("Stats collector initialised")
	return nil
}

// Stop is a no-op; the collector is lock-free atomics
func (s *StatsService) Stop(ctx context.Context) error {
	return nil
}

// Dependencies returns service dependencies
func (s *StatsService) Dependencies() []string {
	return []string{}
}

// GetCollector returns the underlying stats collector
func (s *StatsService) GetCollector() *stats.Collector {
	if s.collector == nil {
		panic("stats collector not initialised")
	}
	return s.collector
}

func (s *StatsService) GetPromMetrics() *stats.PromMetrics {
	return s.prom
}
