package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/logger"
)

const (
	JobCollectMetrics  = "collect-metrics"
	JobSweepRateWindow = "sweep-rate-windows"
	JobPruneEventLog   = "prune-event-log"
)

// SchedulerService runs the periodic jobs: metrics collection, rate window
// sweeping and event log pruning. Every job is wrapped in SkipIfStillRunning
// so a slow tick is skipped rather than overlapped.
type SchedulerService struct {
	config   *config.Config
	monitor  *MonitorService
	security *SecurityService
	events   *EventsService
	logger   logger.StyledLogger
	cron     *cron.Cron
	cancel   context.CancelFunc
	entries  map[string]cron.EntryID
	now      func() time.Time
}

func NewSchedulerService(cfg *config.Config, monitor *MonitorService, security *SecurityService, events *EventsService, logger logger.StyledLogger) *SchedulerService {
	return &SchedulerService{
		config:   cfg,
		monitor:  monitor,
		security: security,
		events:   events,
		logger:   logger,
		entries:  make(map[string]cron.EntryID),
		now:      time.Now,
	}
}

func (s *SchedulerService) Name() string {
	return "scheduler"
}

func (s *SchedulerService) Start(ctx context.Context) error {
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	aggregator := s.monitor.GetAggregator()
	guard := s.security.GetServices()
	eventLog := s.events.GetEventLog()

	s.schedule(JobCollectMetrics, s.config.Monitor.Interval, func() {
		aggregator.Collect(jobCtx)
	})
	s.schedule(JobSweepRateWindow, s.config.Security.RateLimits.CleanupInterval, func() {
		if swept := guard.SweepRateWindows(s.now()); swept > 0 {
			s.logger.Debug("Swept expired rate windows", "count", swept)
		}
	})
	s.schedule(JobPruneEventLog, s.config.EventLog.PruneInterval, func() {
		if pruned := eventLog.Prune(s.now()); pruned > 0 {
			s.logger.Debug("Pruned event log", "count", pruned)
		}
	})

	s.cron.Start()
	s.logger.InfoWithCount("Scheduler started", len(s.entries),
		"collect", s.config.Monitor.Interval,
		"sweep", s.config.Security.RateLimits.CleanupInterval,
		"prune", s.config.EventLog.PruneInterval)
	return nil
}

// schedule registers a fixed delay job. cron rounds the delay to whole
// seconds with a one second floor.
func (s *SchedulerService) schedule(name string, every time.Duration, job func()) {
	s.entries[name] = s.cron.Schedule(cron.Every(every), cron.FuncJob(job))
}

// Stop waits for running jobs, bounded by ctx
func (s *SchedulerService) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out waiting for running jobs")
		return ctx.Err()
	}
}

func (s *SchedulerService) Dependencies() []string {
	return []string{"monitor", "security", "events"}
}

// Next reports when the named job runs next, zero before Start
func (s *SchedulerService) Next(name string) time.Time {
	id, ok := s.entries[name]
	if !ok || s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// cronLogger routes cron's own messages into the styled logger; its info
// chatter goes to debug.
type cronLogger struct {
	logger logger.StyledLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("scheduler: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("scheduler: "+msg, append(keysAndValues, "error", err)...)
}
