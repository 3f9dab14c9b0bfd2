package monitor

/*
	Warden Monitor - Metrics Aggregator
	Collect runs on the scheduler's tick and is never reentrant with itself.
	Each tick drains the interval latency from the stats collector, samples
	runtime memory, probes persistence under a timeout and appends one
	snapshot to a bounded FIFO history. Alert rules are checked right after;
	a breach is logged and forwarded to the sink, it is never fatal.

	Status is derived on read from the latest snapshot, nothing stores it.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/util"
	"github.com/thushan/warden/pkg/format"
	"github.com/thushan/warden/pkg/nerdstats"
)

const (
	DefaultHistorySize  = 100
	DefaultProbeTimeout = 2 * time.Second
	DefaultErrorWindow  = 5 * time.Minute
)

// SecuritySource is the reputation view folded into exported metrics
type SecuritySource interface {
	Status() domain.SecurityStatus
}

// SnapshotObserver receives every snapshot, typically the Prometheus mirror
type SnapshotObserver interface {
	ObserveSnapshot(snap *domain.MetricSnapshot, status domain.HealthStatus, security domain.SecurityStatus, eventLogSize int)
}

type Options struct {
	Stats      ports.StatsCollector
	EventLog   ports.EventLog
	Probe      ports.PersistenceProbe // nil reports the database as disabled
	Security   SecuritySource
	Publisher  ports.EventPublisher
	Observer   SnapshotObserver
	Alerts     *AlertBook
	Logger     logger.StyledLogger
	StartTime  time.Time
	Thresholds domain.HealthThresholds

	HistorySize  int
	ProbeTimeout time.Duration
	ErrorWindow  time.Duration
	MemoryLimit  int64
}

type Aggregator struct {
	stats     ports.StatsCollector
	eventLog  ports.EventLog
	probe     ports.PersistenceProbe
	security  SecuritySource
	publisher ports.EventPublisher
	observer  SnapshotObserver
	alerts    *AlertBook
	logger    logger.StyledLogger

	now    func() time.Time
	memory func() domain.MemoryUsage

	history    []*domain.MetricSnapshot // oldest first
	thresholds domain.HealthThresholds
	startTime  time.Time

	probeTimeout time.Duration
	errorWindow  time.Duration
	capacity     int
	mu           sync.RWMutex
}

func NewAggregator(opts Options) *Aggregator {
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.ErrorWindow <= 0 {
		opts.ErrorWindow = DefaultErrorWindow
	}
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}
	if opts.Alerts == nil {
		opts.Alerts = NewAlertBook(domain.DefaultAlertRules())
	}

	limit := opts.MemoryLimit
	start := opts.StartTime
	return &Aggregator{
		stats:        opts.Stats,
		eventLog:     opts.EventLog,
		probe:        opts.Probe,
		security:     opts.Security,
		publisher:    opts.Publisher,
		observer:     opts.Observer,
		alerts:       opts.Alerts,
		logger:       opts.Logger,
		now:          time.Now,
		memory:       func() domain.MemoryUsage { return SampleMemory(start, limit) },
		history:      make([]*domain.MetricSnapshot, 0, opts.HistorySize),
		thresholds:   opts.Thresholds,
		startTime:    opts.StartTime,
		probeTimeout: opts.ProbeTimeout,
		errorWindow:  opts.ErrorWindow,
		capacity:     opts.HistorySize,
	}
}

// SampleMemory reads the runtime memory stats. With a limit the ratio is
// Sys over that limit, otherwise HeapAlloc over HeapSys.
func SampleMemory(start time.Time, limit int64) domain.MemoryUsage {
	ns := nerdstats.Snapshot(start)
	return domain.MemoryUsage{
		HeapAlloc: ns.HeapAlloc,
		HeapSys:   ns.HeapSys,
		Sys:       ns.Sys,
		Ratio:     ns.MemoryRatio(limit),
	}
}

// Collect takes one snapshot, appends it to the history and checks alerts
func (a *Aggregator) Collect(ctx context.Context) *domain.MetricSnapshot {
	now := a.now()

	sum, count, p95 := a.stats.DrainLatencyWithPercentile()
	var avg time.Duration
	if count > 0 {
		avg = sum / time.Duration(count)
	}
	requests := a.stats.GetRequestStats()

	snap := &domain.MetricSnapshot{
		Timestamp:       now,
		Uptime:          now.Sub(a.startTime),
		Memory:          a.memory(),
		DatabaseStatus:  a.probeDatabase(ctx),
		AvgResponseTime: avg,
		P95ResponseTime: p95,
		ErrorCount:      requests.ErrorRequests,
		RequestCount:    requests.TotalRequests,
	}

	a.mu.Lock()
	if len(a.history) >= a.capacity {
		drop := len(a.history) - a.capacity + 1
		copy(a.history, a.history[drop:])
		clear(a.history[len(a.history)-drop:])
		a.history = a.history[:len(a.history)-drop]
	}
	a.history = append(a.history, snap)
	thresholds := a.thresholds
	a.mu.Unlock()

	status := domain.DeriveHealth(snap, thresholds)
	a.logger.Debug("Collected metrics snapshot",
		"status", status,
		"memory", format.Percentage(snap.Memory.Ratio),
		"avg_response", format.Latency(avg),
		"p95_response", format.Latency(p95),
		"samples", count,
		"database", snap.DatabaseStatus)

	recentErrors := 0
	eventLogSize := 0
	if a.eventLog != nil {
		recentErrors = a.eventLog.CountSince(now.Add(-a.errorWindow))
		eventLogSize = a.eventLog.Len()
	}

	if a.observer != nil {
		var security domain.SecurityStatus
		if a.security != nil {
			security = a.security.Status()
		}
		a.observer.ObserveSnapshot(snap, status, security, eventLogSize)
	}

	for _, alert := range a.alerts.Evaluate(snap, recentErrors, a.errorWindow) {
		a.raise(alert, now)
	}

	return snap
}

func (a *Aggregator) probeDatabase(ctx context.Context) domain.DatabaseStatus {
	if a.probe == nil {
		return domain.DatabaseDisabled
	}

	probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	if err := a.probe.Ping(probeCtx); err != nil {
		a.logger.Warn("Persistence probe failed", "probe", a.probe.Name(), "error", err)
		return domain.DatabaseError
	}
	return domain.DatabaseConnected
}

func (a *Aggregator) raise(alert domain.Alert, now time.Time) {
	args := []any{
		"type", alert.Rule.Type,
		"value", alert.Value,
		"threshold", alert.Rule.Threshold,
	}
	if alert.Rule.Level == domain.SeverityError {
		a.logger.Error("Alert: "+alert.Message, args...)
	} else {
		a.logger.Warn("Alert: "+alert.Message, args...)
	}

	if a.publisher == nil {
		return
	}
	a.publisher.Publish(domain.Event{
		Timestamp: now,
		ID:        util.GenerateRequestID(),
		Level:     alert.Rule.Level,
		Message:   alert.Message,
		Source:    domain.SourceMonitor,
		Metadata: map[string]any{
			"type":      string(alert.Rule.Type),
			"value":     alert.Value,
			"threshold": alert.Rule.Threshold,
		},
	})
}

// Latest returns the newest snapshot, nil before the first tick
func (a *Aggregator) Latest() *domain.MetricSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.history) == 0 {
		return nil
	}
	return a.history[len(a.history)-1]
}

// History returns the retained snapshots, oldest first
func (a *Aggregator) History() []domain.MetricSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]domain.MetricSnapshot, len(a.history))
	for i, s := range a.history {
		out[i] = *s
	}
	return out
}

func (a *Aggregator) Status() domain.HealthStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var latest *domain.MetricSnapshot
	if n := len(a.history); n > 0 {
		latest = a.history[n-1]
	}
	return domain.DeriveHealth(latest, a.thresholds)
}

func (a *Aggregator) Alerts() *AlertBook {
	return a.alerts
}

func (a *Aggregator) Uptime() time.Duration {
	return a.now().Sub(a.startTime)
}

// SetThresholds swaps the health thresholds used by Status, applied on
// config reload
func (a *Aggregator) SetThresholds(t domain.HealthThresholds) {
	a.mu.Lock()
	a.thresholds = t
	a.mu.Unlock()
}
