package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/thushan/warden/internal/core/constants"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/util"
)

type StatusResponse struct {
	Status             domain.HealthStatus   `json:"status"`
	DatabaseStatus     domain.DatabaseStatus `json:"databaseStatus"`
	Uptime             float64               `json:"uptime"`
	MemoryUsagePercent float64               `json:"memoryUsagePercent"`
	AvgResponseTime    int64                 `json:"avgResponseTime"`
	ErrorCount         int64                 `json:"errorCount"`
	RequestCount       int64                 `json:"requestCount"`
	CollectedAt        *time.Time            `json:"collectedAt,omitempty"`
}

// statusHandler summarises the latest snapshot. Before the first tick the
// status is healthy and the database is reported as not yet probed.
func (a *Application) statusHandler(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Status:         a.aggregator.Status(),
		DatabaseStatus: domain.DatabaseDisabled,
		Uptime:         math.Round(a.aggregator.Uptime().Seconds()),
		ErrorCount:     a.stats.GetRequestStats().ErrorRequests,
		RequestCount:   a.stats.GetRequestStats().TotalRequests,
	}

	if latest := a.aggregator.Latest(); latest != nil {
		collected := latest.Timestamp
		response.DatabaseStatus = latest.DatabaseStatus
		response.MemoryUsagePercent = math.Round(latest.Memory.Ratio*10000) / 100
		response.AvgResponseTime = latest.AvgResponseTime.Milliseconds()
		response.ErrorCount = latest.ErrorCount
		response.RequestCount = latest.RequestCount
		response.CollectedAt = &collected
	}

	a.writeJSON(w, http.StatusOK, response)
}

// metricsHistoryHandler returns every retained snapshot, oldest first
func (a *Application) metricsHistoryHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"status":    a.aggregator.Status(),
		"snapshots": a.aggregator.History(),
	})
}

type LogsResponse struct {
	Entries []domain.ErrorLogEntry `json:"entries"`
	Count   int                    `json:"count"`
	Total   int64                  `json:"total"`
}

// logsHandler returns recent event log entries, newest first. limit defaults
// to 100 and is capped at 1000; since drops anything older than an RFC3339
// timestamp.
func (a *Application) logsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := constants.DefaultLogsLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, constants.MaxLogsLimit)
	}

	var since *time.Time
	if raw := query.Get("since"); raw != "" {
		if since = util.ParseTime(raw); since == nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}
	}

	entries := a.eventLog.Recent(limit)
	if since != nil {
		kept := entries[:0]
		for _, e := range entries {
			if !e.Timestamp.Before(*since) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if entries == nil {
		entries = []domain.ErrorLogEntry{}
	}

	a.writeJSON(w, http.StatusOK, LogsResponse{
		Entries: entries,
		Count:   len(entries),
		Total:   a.eventLog.Total(),
	})
}
