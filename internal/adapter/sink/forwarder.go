package sink

/*
	Warden Sink - Event Forwarder
	Publish hands the event to the bus and returns; it never waits on I/O and
	never reports an error. A small worker pool drains the bus and writes to
	the primary sink with a timeout. When the primary fails the event goes to
	the fallback instead (the rotated file when one is configured, otherwise
	the structured log), and the primary is skipped for a backoff period so a
	dead store costs one timeout rather than one per event.
*/

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/thushan/warden/internal/adapter/persistence"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/util"
	"github.com/thushan/warden/pkg/eventbus"
)

const (
	TypeNone = "none"

	DefaultTimeout  = 2 * time.Second
	DefaultWorkers  = 2
	BackoffBase     = time.Second
	BackoffMax      = time.Minute
	BackoffJitter   = 0.2
	closeDrainLimit = 5 * time.Second
)

// FailureObserver counts primary sink failures, typically Prometheus
type FailureObserver interface {
	ObserveSinkFailure(sink string)
}

type Forwarder struct {
	bus      *eventbus.EventBus[domain.Event]
	workers  *eventbus.WorkerPool[domain.Event]
	primary  ports.EventSink
	fallback ports.EventSink
	observer FailureObserver
	logger   logger.StyledLogger
	now      func() time.Time
	timeout  time.Duration

	forwarded   atomic.Uint64
	failed      atomic.Uint64
	fellBack    atomic.Uint64
	dropped     atomic.Uint64
	consecutive atomic.Int64
	retryAt     atomic.Int64
}

type ForwarderStats struct {
	Primary   string `json:"primary"`
	Fallback  string `json:"fallback"`
	Forwarded uint64 `json:"forwarded"`
	Failed    uint64 `json:"failed"`
	FellBack  uint64 `json:"fell_back"`
	Dropped   uint64 `json:"dropped"`
}

// New builds the forwarder for the configured sink type. Type "none"
// returns a nil forwarder, on which Publish is a no-op.
func New(cfg config.SinkConfig, log logger.StyledLogger, observer FailureObserver) (*Forwarder, error) {
	if cfg.Type == "" || cfg.Type == TypeNone {
		return nil, nil
	}

	var fallback ports.EventSink = NewLogSink(log)
	if cfg.File.Path != "" && cfg.Type != TypeFile {
		fs, err := NewFileSink(cfg.File)
		if err != nil {
			return nil, err
		}
		fallback = fs
	}

	primary, err := newPrimary(cfg)
	if err != nil {
		_ = fallback.Close()
		return nil, err
	}

	return NewForwarder(primary, fallback, cfg.Timeout, cfg.QueueSize, log, observer), nil
}

func newPrimary(cfg config.SinkConfig) (ports.EventSink, error) {
	switch cfg.Type {
	case TypeRedis:
		return NewRedisStreamSink(persistence.OpenRedis(cfg.Redis), cfg.Redis.Stream, cfg.Redis.MaxLen), nil
	case TypeNATS:
		return NewNATSSink(cfg.NATS)
	case TypePostgres:
		db, err := persistence.OpenPostgres(cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresSink(db), nil
	case TypeFile:
		return NewFileSink(cfg.File)
	default:
		return nil, errors.New("unknown sink type " + cfg.Type)
	}
}

func NewForwarder(primary, fallback ports.EventSink, timeout time.Duration, queueSize int, log logger.StyledLogger, observer FailureObserver) *Forwarder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Forwarder{
		bus:      eventbus.New[domain.Event](queueSize),
		primary:  primary,
		fallback: fallback,
		observer: observer,
		logger:   log,
		now:      time.Now,
		timeout:  timeout,
	}
	f.workers = eventbus.NewWorkerPool(f.bus, DefaultWorkers, f.deliver)
	return f
}

// Publish queues the event. A full queue drops it and counts the drop.
func (f *Forwarder) Publish(event domain.Event) {
	if f == nil {
		return
	}
	if event.ID == "" {
		event.ID = util.GenerateRequestID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = f.now()
	}
	if f.bus.Publish(event) == 0 {
		f.dropped.Add(1)
		f.logger.Debug("Event queue full, dropping event", "event_id", event.ID, "message", event.Message)
	}
}

func (f *Forwarder) deliver(event domain.Event) {
	now := f.now()
	if now.UnixNano() < f.retryAt.Load() {
		f.toFallback(event)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	err := f.primary.Write(ctx, event)
	cancel()

	if err == nil {
		f.forwarded.Add(1)
		if f.consecutive.Swap(0) > 0 {
			f.logger.Info("Event sink recovered", "sink", f.primary.Name())
		}
		return
	}

	f.failed.Add(1)
	if f.observer != nil {
		f.observer.ObserveSinkFailure(f.primary.Name())
	}
	attempt := f.consecutive.Add(1)
	backoff := util.CalculateExponentialBackoff(int(attempt), BackoffBase, BackoffMax, BackoffJitter)
	f.retryAt.Store(now.Add(backoff).UnixNano())

	f.logger.Warn("Event sink write failed, using fallback",
		"sink", f.primary.Name(),
		"fallback", f.fallback.Name(),
		"consecutive_failures", attempt,
		"retry_in", backoff.Round(time.Millisecond),
		"error", err)
	f.toFallback(event)
}

func (f *Forwarder) toFallback(event domain.Event) {
	f.fellBack.Add(1)
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	if err := f.fallback.Write(ctx, event); err != nil {
		f.logger.Error("Fallback sink write failed, event lost",
			"sink", f.fallback.Name(),
			"event_id", event.ID,
			"message", event.Message,
			"error", err)
	}
}

func (f *Forwarder) Stats() ForwarderStats {
	if f == nil {
		return ForwarderStats{Primary: TypeNone}
	}
	return ForwarderStats{
		Primary:   f.primary.Name(),
		Fallback:  f.fallback.Name(),
		Forwarded: f.forwarded.Load(),
		Failed:    f.failed.Load(),
		FellBack:  f.fellBack.Load(),
		Dropped:   f.dropped.Load(),
	}
}

// Close stops accepting events, drains what is queued and closes both sinks
func (f *Forwarder) Close() error {
	if f == nil {
		return nil
	}
	f.bus.Shutdown()

	done := make(chan struct{})
	go func() {
		f.workers.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(closeDrainLimit):
		f.logger.Warn("Timed out draining event queue")
	}

	return errors.Join(closeSink(f.primary), closeSink(f.fallback))
}

func closeSink(c io.Closer) error {
	if c == nil {
		return nil
	}
	return c.Close()
}
