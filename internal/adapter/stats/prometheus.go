package stats

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thushan/warden/internal/core/domain"
)

const DefaultNamespace = "warden"

// PromMetrics mirrors the collector and the aggregator into a private
// registry. All methods are safe on a nil receiver so metrics stay optional.
type PromMetrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	violations      *prometheus.CounterVec
	bypassed        prometheus.Counter
	memoryRatio     prometheus.Gauge
	health          *prometheus.GaugeVec
	avgResponse     prometheus.Gauge
	blocked         prometheus.Gauge
	suspicious      prometheus.Gauge
	rateWindows     prometheus.Gauge
	eventLogSize    prometheus.Gauge
	sinkFailures    *prometheus.CounterVec
}

func NewPromMetrics(namespace string) *PromMetrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PromMetrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests seen by the instrumentor by status class",
		}, []string{"class"}),
		requestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request arrival to response completion",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_violations_total",
			Help:      "Requests rejected by the guard by violation type",
		}, []string{"type"}),
		bypassed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_bypassed_total",
			Help:      "Requests that skipped rate limiting via a configured bypass",
		}),
		memoryRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_usage_ratio",
			Help:      "Memory usage ratio from the latest snapshot",
		}),
		health: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_status",
			Help:      "1 for the current derived health status, 0 otherwise",
		}, []string{"status"}),
		avgResponse: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_response_seconds",
			Help:      "Average response time over the latest monitor interval",
		}),
		blocked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blocked_identities",
			Help:      "Identities currently in the blocked set",
		}),
		suspicious: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suspicious_identities",
			Help:      "Identities with at least one suspicion event",
		}),
		rateWindows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rate_windows",
			Help:      "Live rate window counters",
		}),
		eventLogSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_log_entries",
			Help:      "Entries currently held in the bounded event log",
		}),
		sinkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Events the primary sink failed to accept",
		}, []string{"sink"}),
	}
}

func (pm *PromMetrics) Handler() http.Handler {
	if pm == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{})
}

func (pm *PromMetrics) Registry() *prometheus.Registry {
	if pm == nil {
		return nil
	}
	return pm.registry
}

func (pm *PromMetrics) ObserveRequest(status int, latency time.Duration) {
	if pm == nil {
		return
	}
	pm.requests.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()
	pm.requestDuration.Observe(latency.Seconds())
}

func (pm *PromMetrics) ObserveViolation(violationType string) {
	if pm == nil {
		return
	}
	pm.violations.WithLabelValues(violationType).Inc()
}

func (pm *PromMetrics) ObserveBypass() {
	if pm == nil {
		return
	}
	pm.bypassed.Inc()
}

func (pm *PromMetrics) ObserveSinkFailure(sink string) {
	if pm == nil {
		return
	}
	pm.sinkFailures.WithLabelValues(sink).Inc()
}

// ObserveSnapshot publishes the aggregator's latest view
func (pm *PromMetrics) ObserveSnapshot(snap *domain.MetricSnapshot, status domain.HealthStatus, security domain.SecurityStatus, eventLogSize int) {
	if pm == nil || snap == nil {
		return
	}
	pm.memoryRatio.Set(snap.Memory.Ratio)
	pm.avgResponse.Set(snap.AvgResponseTime.Seconds())
	for _, s := range []domain.HealthStatus{domain.HealthHealthy, domain.HealthWarning, domain.HealthError} {
		value := 0.0
		if s == status {
			value = 1
		}
		pm.health.WithLabelValues(string(s)).Set(value)
	}
	pm.blocked.Set(float64(len(security.BlockedIdentities)))
	pm.suspicious.Set(float64(len(security.SuspiciousIdentities)))
	pm.rateWindows.Set(float64(security.ActiveRateWindowCount))
	pm.eventLogSize.Set(float64(eventLogSize))
}
