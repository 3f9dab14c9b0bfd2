package domain

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type DatabaseStatus string

const (
	DatabaseConnected DatabaseStatus = "connected"
	DatabaseError     DatabaseStatus = "error"
	DatabaseDisabled  DatabaseStatus = "disabled"
)

type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthWarning HealthStatus = "warning"
	HealthError   HealthStatus = "error"
)

type MemoryUsage struct {
	HeapAlloc uint64  `json:"heapAlloc"`
	HeapSys   uint64  `json:"heapSys"`
	Sys       uint64  `json:"sys"`
	Ratio     float64 `json:"ratio"`
}

// MetricSnapshot is one immutable health sample taken by the aggregator
type MetricSnapshot struct {
	Timestamp       time.Time      `json:"timestamp"`
	DatabaseStatus  DatabaseStatus `json:"databaseStatus"`
	Memory          MemoryUsage    `json:"memoryUsage"`
	Uptime          time.Duration  `json:"uptime"`
	AvgResponseTime time.Duration  `json:"avgResponseTime"`
	P95ResponseTime time.Duration  `json:"p95ResponseTime"`
	ErrorCount      int64          `json:"errorCount"`
	RequestCount    int64          `json:"requestCount"`
}

// MarshalJSON reports uptime in seconds and response time in milliseconds
func (s MetricSnapshot) MarshalJSON() ([]byte, error) {
	type wire struct {
		Timestamp       time.Time      `json:"timestamp"`
		DatabaseStatus  DatabaseStatus `json:"databaseStatus"`
		Memory          MemoryUsage    `json:"memoryUsage"`
		Uptime          float64        `json:"uptime"`
		AvgResponseTime int64          `json:"avgResponseTime"`
		P95ResponseTime int64          `json:"p95ResponseTime"`
		ErrorCount      int64          `json:"errorCount"`
		RequestCount    int64          `json:"requestCount"`
	}
	return json.Marshal(wire{
		Timestamp:       s.Timestamp,
		DatabaseStatus:  s.DatabaseStatus,
		Memory:          s.Memory,
		Uptime:          s.Uptime.Seconds(),
		AvgResponseTime: s.AvgResponseTime.Milliseconds(),
		P95ResponseTime: s.P95ResponseTime.Milliseconds(),
		ErrorCount:      s.ErrorCount,
		RequestCount:    s.RequestCount,
	})
}

type HealthThresholds struct {
	MemoryWarningRatio  float64       `yaml:"memory_warning_ratio" mapstructure:"memory_warning_ratio"`
	MemoryErrorRatio    float64       `yaml:"memory_error_ratio" mapstructure:"memory_error_ratio"`
	ResponseTimeWarning time.Duration `yaml:"response_time_warning" mapstructure:"response_time_warning"`
}

func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{
		MemoryWarningRatio:  0.8,
		MemoryErrorRatio:    0.9,
		ResponseTimeWarning: 2 * time.Second,
	}
}

// DeriveHealth computes the overall status from a snapshot. A nil snapshot
// (nothing collected yet) is healthy.
func DeriveHealth(s *MetricSnapshot, t HealthThresholds) HealthStatus {
	if s == nil {
		return HealthHealthy
	}
	if s.Memory.Ratio > t.MemoryErrorRatio || s.DatabaseStatus == DatabaseError {
		return HealthError
	}
	if s.AvgResponseTime > t.ResponseTimeWarning || s.Memory.Ratio > t.MemoryWarningRatio {
		return HealthWarning
	}
	return HealthHealthy
}
