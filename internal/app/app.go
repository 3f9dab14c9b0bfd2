package app

import (
	"context"
	"fmt"
	"time"

	"github.com/thushan/warden/internal/app/services"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/logger"
)

// Application wires every service into the manager and owns their lifecycle.
// Services start in dependency order:
//
//	stats, persistence → events → security → monitor → http, scheduler
type Application struct {
	config    *config.Config
	manager   *services.ServiceManager
	logger    logger.StyledLogger
	startTime time.Time
}

func New(cfg *config.Config, startTime time.Time, logger logger.StyledLogger) (*Application, error) {
	manager := services.NewServiceManager(logger)

	statsSvc := services.NewStatsService(logger)
	persistenceSvc := services.NewPersistenceService(cfg.Persistence, logger)
	eventsSvc := services.NewEventsService(cfg, statsSvc, logger)
	securitySvc := services.NewSecurityService(cfg, statsSvc, eventsSvc, logger)
	monitorSvc := services.NewMonitorService(&cfg.Monitor, startTime, statsSvc, eventsSvc, persistenceSvc, securitySvc, logger)
	httpSvc := services.NewHTTPService(cfg, startTime, statsSvc, eventsSvc, securitySvc, monitorSvc, logger)
	schedulerSvc := services.NewSchedulerService(cfg, monitorSvc, securitySvc, eventsSvc, logger)

	for _, svc := range []services.ManagedService{
		statsSvc,
		persistenceSvc,
		eventsSvc,
		securitySvc,
		monitorSvc,
		httpSvc,
		schedulerSvc,
	} {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("failed to register %s service: %w", svc.Name(), err)
		}
	}

	return &Application{
		config:    cfg,
		manager:   manager,
		logger:    logger,
		startTime: startTime,
	}, nil
}

func (a *Application) Start(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("Warden started, waiting for requests...",
		"bind", a.config.Server.GetAddress(),
		"startup", time.Since(a.startTime).Round(time.Millisecond))
	return nil
}

func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}

// Err delivers a listener failure that happened after Start returned
func (a *Application) Err() <-chan error {
	httpSvc, err := a.manager.GetRegistry().GetHTTP()
	if err != nil {
		failed := make(chan error, 1)
		failed <- err
		return failed
	}
	return httpSvc.Err()
}

// Reload applies a changed config file to the running services. Rate limits
// and the reputation and health thresholds are live; anything else needs a
// restart. A rejected file keeps the current settings.
func (a *Application) Reload(cfg *config.Config, err error) {
	if err != nil {
		a.logger.Error("Config reload rejected, keeping current settings", "error", err)
		return
	}

	registry := a.manager.GetRegistry()
	securitySvc, err := registry.GetSecurity()
	if err != nil {
		a.logger.Error("Config reload skipped", "error", err)
		return
	}
	monitorSvc, err := registry.GetMonitor()
	if err != nil {
		a.logger.Error("Config reload skipped", "error", err)
		return
	}

	securitySvc.ApplyConfig(cfg)
	monitorSvc.SetThresholds(cfg.Monitor.Health)
	a.logger.Info("Configuration reloaded",
		"perMinute", cfg.Security.RateLimits.PerMinute,
		"perHour", cfg.Security.RateLimits.PerHour,
		"suspicionThreshold", cfg.Security.Reputation.SuspicionThreshold)
}

func (a *Application) GetServiceManager() *services.ServiceManager {
	return a.manager
}
