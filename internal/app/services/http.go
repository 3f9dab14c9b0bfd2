package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/thushan/warden/internal/app/handlers"
	"github.com/thushan/warden/internal/app/middleware"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/util"
)

// HTTPService owns the listener. It only starts once the guard, the
// aggregator and the event log exist, so the first request already runs
// through the full pipeline.
type HTTPService struct {
	config      *config.Config
	server      *http.Server
	application *handlers.Application
	stats       *StatsService
	events      *EventsService
	security    *SecurityService
	monitor     *MonitorService
	logger      logger.StyledLogger
	startTime   time.Time
	serveErr    chan error
}

func NewHTTPService(
	cfg *config.Config,
	startTime time.Time,
	stats *StatsService,
	events *EventsService,
	security *SecurityService,
	monitor *MonitorService,
	logger logger.StyledLogger,
) *HTTPService {
	return &HTTPService{
		config:    cfg,
		startTime: startTime,
		stats:     stats,
		events:    events,
		security:  security,
		monitor:   monitor,
		logger:    logger,
		serveErr:  make(chan error, 1),
	}
}

// Name returns the service name
func (s *HTTPService) Name() string {
	return "http"
}

// Start builds the routes and begins accepting requests. The port is bound
// before Start returns so a clash fails startup instead of a goroutine.
func (s *HTTPService) Start(ctx context.Context) error {
	app, err := handlers.NewApplication(handlers.Dependencies{
		Config:     s.config,
		Security:   s.security.GetServices(),
		Aggregator: s.monitor.GetAggregator(),
		EventLog:   s.events.GetEventLog(),
		Stats:      s.stats.GetCollector(),
		Metrics:    s.stats.GetPromMetrics().Handler(),
		SinkStats:  s.events.SinkStats,
		StartTime:  s.startTime,
	}, s.logger)
	if err != nil {
		return err
	}
	s.application = app

	instrumentor, err := middleware.NewInstrumentor(
		s.stats.GetCollector(),
		s.events.GetEventLog(),
		util.NewIdentityResolver(s.config.Security.TrustProxyHeaders, s.config.Security.TrustedProxyCIDRsParsed),
		s.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create request instrumentor: %w", err)
	}
	instrumentor.LogRequests(s.config.Server.RequestLogging)

	cfg := s.config.Server
	s.server = &http.Server{
		Addr:              cfg.GetAddress(),
		Handler:           instrumentor.Middleware(app.Handler()),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
			s.serveErr <- err
		}
	}()

	s.logger.Info("HTTP server listening",
		"address", listener.Addr().String(),
		"readTimeout", cfg.ReadTimeout,
		"writeTimeout", cfg.WriteTimeout,
		"idleTimeout", cfg.IdleTimeout)

	return nil
}

// Stop drains in-flight requests for at most the configured shutdown timeout
func (s *HTTPService) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Dependencies returns service dependencies
func (s *HTTPService) Dependencies() []string {
	return []string{"stats", "events", "security", "monitor"}
}

// Err reports a listener failure after startup
func (s *HTTPService) Err() <-chan error {
	return s.serveErr
}

func (s *HTTPService) GetApplication() *handlers.Application {
	return s.application
}
