package stats

/*
				Warden Stats Collector - Centralised Stats Collection
	Collector is where the instrumentor and the guard report what happened to
	each request. Counters are plain atomics since this is hit on every
	request; latency is accumulated per monitor interval and drained by the
	aggregator, which is what turns it into an average response time.

	Everything recorded here is mirrored into the Prometheus registry when one
	is attached, so /internal/metrics and the admin snapshot never disagree.
*/

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
)

const (
	// RateLimitedIdentityTTL bounds how long an identity counts as "recently
	// rate limited" in the security stats
	RateLimitedIdentityTTL = time.Hour
	CleanupInterval        = 5 * time.Minute
	LatencySampleSize      = 200
)

type Collector struct {
	rateLimited *xsync.Map[string, int64]
	latency     *IntervalLatency
	prom        *PromMetrics
	logger      logger.StyledLogger

	totalRequests int64
	errorRequests int64
	serverErrors  int64

	rateLimitViolations int64
	threatDetections    int64
	blockedRejections   int64
	sizeLimitViolations int64
	rateLimitBypassed   int64

	lastCleanup int64
}

func NewCollector(log logger.StyledLogger, prom *PromMetrics) *Collector {
	return &Collector{
		rateLimited: xsync.NewMap[string, int64](),
		latency:     NewIntervalLatency(LatencySampleSize),
		prom:        prom,
		logger:      log,
		lastCleanup: time.Now().UnixNano(),
	}
}

func (c *Collector) RecordRequest(status int, latency time.Duration) {
	atomic.AddInt64(&c.totalRequests, 1)
	if status >= 400 {
		atomic.AddInt64(&c.errorRequests, 1)
	}
	if status >= 500 {
		atomic.AddInt64(&c.serverErrors, 1)
	}

	c.latency.Add(latency)
	c.prom.ObserveRequest(status, latency)
}

func (c *Collector) RecordSecurityViolation(violation ports.SecurityViolation) {
	switch violation.ViolationType {
	case ports.ViolationRateLimit:
		atomic.AddInt64(&c.rateLimitViolations, 1)
		c.recordRateLimitedIdentity(violation.Identity)
	case ports.ViolationThreat:
		atomic.AddInt64(&c.threatDetections, 1)
	case ports.ViolationBlocked:
		atomic.AddInt64(&c.blockedRejections, 1)
	case ports.ViolationSize:
		atomic.AddInt64(&c.sizeLimitViolations, 1)
	default:
		c.logger.Debug("Unknown violation type recorded", "type", violation.ViolationType)
		return
	}
	c.prom.ObserveViolation(violation.ViolationType)
}

func (c *Collector) RecordBypass(identity string) {
	atomic.AddInt64(&c.rateLimitBypassed, 1)
	c.prom.ObserveBypass()
}

func (c *Collector) DrainLatency() (time.Duration, int64) {
	sum, count, _ := c.latency.Drain()
	return sum, count
}

// DrainLatencyWithPercentile is DrainLatency plus the p95 of the sampled
// latencies in the same interval
func (c *Collector) DrainLatencyWithPercentile() (time.Duration, int64, time.Duration) {
	return c.latency.Drain()
}

func (c *Collector) GetRequestStats() ports.RequestStats {
	return ports.RequestStats{
		TotalRequests: atomic.LoadInt64(&c.totalRequests),
		ErrorRequests: atomic.LoadInt64(&c.errorRequests),
		ServerErrors:  atomic.LoadInt64(&c.serverErrors),
	}
}

func (c *Collector) GetSecurityStats() ports.SecurityStats {
	c.tryCleanup(time.Now().UnixNano())

	return ports.SecurityStats{
		RateLimitViolations:       atomic.LoadInt64(&c.rateLimitViolations),
		ThreatDetections:          atomic.LoadInt64(&c.threatDetections),
		BlockedRejections:         atomic.LoadInt64(&c.blockedRejections),
		SizeLimitViolations:       atomic.LoadInt64(&c.sizeLimitViolations),
		RateLimitBypassed:         atomic.LoadInt64(&c.rateLimitBypassed),
		UniqueRateLimitedIdentity: c.rateLimited.Size(),
	}
}

func (c *Collector) recordRateLimitedIdentity(identity string) {
	now := time.Now().UnixNano()
	c.rateLimited.Store(identity, now)
	c.tryCleanup(now)
}

func (c *Collector) tryCleanup(now int64) {
	last := atomic.LoadInt64(&c.lastCleanup)
	if now-last < int64(CleanupInterval) {
		return
	}
	// only one caller wins the sweep
	if !atomic.CompareAndSwapInt64(&c.lastCleanup, last, now) {
		return
	}

	cutoff := now - int64(RateLimitedIdentityTTL)
	removed := 0
	c.rateLimited.Range(func(identity string, ts int64) bool {
		if ts < cutoff {
			c.rateLimited.Delete(identity)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Cleaned up rate limited identities", "removed", removed)
	}
}
