package ports

import (
	"time"
)

type StatsCollector interface {
	RecordRequest(status int, latency time.Duration)
	RecordSecurityViolation(violation SecurityViolation)
	RecordBypass(identity string)

	// DrainLatency returns the latency sum and sample count gathered since the
	// previous drain and resets both.
	DrainLatency() (time.Duration, int64)
	// DrainLatencyWithPercentile also returns the p95 of the sampled latencies
	DrainLatencyWithPercentile() (time.Duration, int64, time.Duration)

	GetRequestStats() RequestStats
	GetSecurityStats() SecurityStats
}

type RequestStats struct {
	TotalRequests int64 `json:"total_requests"`
	ErrorRequests int64 `json:"error_requests"`
	ServerErrors  int64 `json:"server_errors"`
}

type SecurityStats struct {
	RateLimitViolations       int64 `json:"rate_limit_violations"`
	ThreatDetections          int64 `json:"threat_detections"`
	BlockedRejections         int64 `json:"blocked_rejections"`
	SizeLimitViolations       int64 `json:"size_limit_violations"`
	RateLimitBypassed         int64 `json:"rate_limit_bypassed"`
	UniqueRateLimitedIdentity int   `json:"unique_rate_limited_identities"`
}
