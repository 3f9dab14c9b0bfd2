package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/warden/internal/core/domain"
)

func TestAdmin_RequiresToken(t *testing.T) {
	ta := newTestApp(t, nil)

	for _, path := range []string{
		"/internal/admin/status",
		"/internal/admin/logs",
		"/internal/admin/security/status",
		"/internal/metrics",
	} {
		rec := ta.do(http.MethodGet, path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestStatusHandler_BeforeFirstTick(t *testing.T) {
	ta := newTestApp(t, nil)

	rec := ta.do(http.MethodGet, "/internal/admin/status", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusResponse
	decode(t, rec, &status)
	assert.Equal(t, domain.HealthHealthy, status.Status)
	assert.Equal(t, domain.DatabaseDisabled, status.DatabaseStatus)
	assert.Nil(t, status.CollectedAt)
}

func TestStatusHandler_ReportsLatestSnapshot(t *testing.T) {
	ta := newTestApp(t, nil)

	ta.collector.RecordRequest(http.StatusOK, 120*time.Millisecond)
	ta.collector.RecordRequest(http.StatusInternalServerError, 80*time.Millisecond)
	snap := ta.aggregator.Collect(t.Context())
	require.NotNil(t, snap)

	rec := ta.do(http.MethodGet, "/internal/admin/status", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusResponse
	decode(t, rec, &status)
	assert.Equal(t, int64(100), status.AvgResponseTime)
	assert.Equal(t, int64(1), status.ErrorCount)
	assert.Equal(t, int64(2), status.RequestCount)
	assert.NotNil(t, status.CollectedAt)
}

func TestMetricsHistoryHandler(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.aggregator.Collect(t.Context())
	ta.aggregator.Collect(t.Context())

	rec := ta.do(http.MethodGet, "/internal/admin/metrics", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    domain.HealthStatus `json:"status"`
		Snapshots []map[string]any    `json:"snapshots"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Snapshots, 2)
	assert.Contains(t, body.Snapshots[0], "memoryUsage")
}

func TestLogsHandler(t *testing.T) {
	ta := newTestApp(t, nil)
	base := time.Now().Add(-time.Minute)
	for i, msg := range []string{"first", "second", "third"} {
		ta.eventLog.Append(domain.ErrorLogEntry{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			ID:        msg,
			Level:     domain.SeverityWarning,
			Message:   msg,
			Source:    domain.SourceHTTP,
		})
	}

	t.Run("newest first with limit", func(t *testing.T) {
		rec := ta.do(http.MethodGet, "/internal/admin/logs?limit=2", "", true)
		require.Equal(t, http.StatusOK, rec.Code)

		var body LogsResponse
		decode(t, rec, &body)
		require.Len(t, body.Entries, 2)
		assert.Equal(t, "third", body.Entries[0].Message)
		assert.Equal(t, "second", body.Entries[1].Message)
		assert.Equal(t, int64(3), body.Total)
	})

	t.Run("since filters older entries", func(t *testing.T) {
		since := base.Add(1500 * time.Millisecond).UTC().Format(time.RFC3339Nano)
		rec := ta.do(http.MethodGet, "/internal/admin/logs?since="+since, "", true)
		require.Equal(t, http.StatusOK, rec.Code)

		var body LogsResponse
		decode(t, rec, &body)
		require.Len(t, body.Entries, 1)
		assert.Equal(t, "third", body.Entries[0].Message)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := ta.do(http.MethodGet, "/internal/admin/logs?limit=-4", "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad since", func(t *testing.T) {
		rec := ta.do(http.MethodGet, "/internal/admin/logs?since=yesterday", "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProcessStatsHandler(t *testing.T) {
	ta := newTestApp(t, nil)

	rec := ta.do(http.MethodGet, "/internal/admin/process", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body ProcessStatsResponse
	decode(t, rec, &body)
	assert.NotEmpty(t, body.Memory.HeapAlloc)
	assert.Positive(t, body.Runtime.Goroutines)
	assert.Contains(t, []string{"LOW", "MEDIUM", "HIGH"}, body.Memory.MemoryPressure)
}
