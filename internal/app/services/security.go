package services

import (
	"context"
	"fmt"

	"github.com/docker/go-units"

	"github.com/thushan/warden/internal/adapter/security"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/logger"
)

// SecurityService provides identity resolution, rate limiting, threat scanning and
// reputation. It builds the guard that wraps every route and starts the rules
// watcher when a rules file is configured.
type SecurityService struct {
	config   *config.Config
	stats    *StatsService
	events   *EventsService
	logger   logger.StyledLogger
	services *security.Services
}

// NewSecurityService creates a new security service
func NewSecurityService(cfg *config.Config, stats *StatsService, events *EventsService, logger logger.StyledLogger) *SecurityService {
	return &SecurityService{
		config: cfg,
		stats:  stats,
		events: events,
		logger: logger,
	}
}

// Name returns the service name
func (s *SecurityService) Name() string {
	return "security"
}

// Start initialises security components
func (s *SecurityService) Start(ctx context.Context) error {
	services, err := security.NewSecurityServices(
		s.config,
		s.stats.GetCollector(),
		s.events.GetEventLog(),
		s.events.Publisher(),
		s.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialise security services: %w", err)
	}

	if err := services.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch security rules: %w", err)
	}
	s.services = services

	limits := s.config.Security.RateLimits
	s.logger.Info("Security services initialised",
		"perMinute", limits.PerMinute,
		"perHour", limits.PerHour,
		"globalRequestsPerMinute", limits.GlobalRequestsPerMinute,
		"maxBodySize", units.HumanSize(float64(s.config.Security.MaxBodySizeBytes)),
		"trustProxyHeaders", s.config.Security.TrustProxyHeaders)

	return nil
}

// Stop gracefully shuts down security components
func (s *SecurityService) Stop(ctx context.Context) error {
	if s.services != nil {
		s.services.Stop()
	}
	return nil
}

// Dependencies returns service dependencies
func (s *SecurityService) Dependencies() []string {
	return []string{"stats", "events"}
}

// GetServices returns the wired security layer
func (s *SecurityService) GetServices() *security.Services {
	if s.services == nil {
		panic("security services not initialised")
	}
	return s.services
}

// ApplyConfig pushes reloaded limits and thresholds into the running layer
func (s *SecurityService) ApplyConfig(cfg *config.Config) {
	if s.services != nil {
		s.services.ApplyConfig(cfg)
	}
}
