package handlers

import (
	"net/http"
	"time"

	"github.com/thushan/warden/pkg/format"
	"github.com/thushan/warden/pkg/nerdstats"
)

type ProcessStatsResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Memory    struct {
		HeapAlloc      string `json:"heap_alloc"`
		HeapSys        string `json:"heap_sys"`
		HeapInuse      string `json:"heap_inuse"`
		StackInuse     string `json:"stack_inuse"`
		Sys            string `json:"sys"`
		TotalAlloc     string `json:"total_alloc"`
		Usage          string `json:"usage"`
		MemoryPressure string `json:"memory_pressure"`
	} `json:"memory"`
	GarbageCollection struct {
		LastGC        string  `json:"last_gc,omitempty"`
		TotalGCTime   string  `json:"total_gc_time,omitempty"`
		AvgGCPause    string  `json:"avg_gc_pause"`
		NumGC         uint32  `json:"num_gc"`
		GCCPUFraction float64 `json:"gc_cpu_fraction"`
	} `json:"garbage_collection"`
	Runtime struct {
		Uptime     string            `json:"uptime"`
		GoVersion  string            `json:"go_version"`
		Build      map[string]string `json:"build,omitempty"`
		Goroutines int               `json:"goroutines"`
		NumCPU     int               `json:"num_cpu"`
		GOMAXPROCS int               `json:"gomaxprocs"`
	} `json:"runtime"`
}

func (a *Application) processStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := nerdstats.Snapshot(a.StartTime)

	response := ProcessStatsResponse{
		Timestamp: time.Now(),
	}

	response.Memory.HeapAlloc = format.Bytes(stats.HeapAlloc)
	response.Memory.HeapSys = format.Bytes(stats.HeapSys)
	response.Memory.HeapInuse = format.Bytes(stats.HeapInuse)
	response.Memory.StackInuse = format.Bytes(stats.StackInuse)
	response.Memory.Sys = format.Bytes(stats.Sys)
	response.Memory.TotalAlloc = format.Bytes(stats.TotalAlloc)
	response.Memory.Usage = format.Percentage(stats.MemoryRatio(a.Config.Monitor.MemoryLimitBytes))
	response.Memory.MemoryPressure = stats.GetMemoryPressure()

	response.GarbageCollection.NumGC = stats.NumGC
	if !stats.LastGC.IsZero() {
		response.GarbageCollection.LastGC = stats.LastGC.Format(time.RFC3339)
		response.GarbageCollection.TotalGCTime = format.Duration(stats.TotalGCTime)
	}
	response.GarbageCollection.AvgGCPause = stats.AverageGCPause()
	response.GarbageCollection.GCCPUFraction = stats.GCCPUFraction

	response.Runtime.Uptime = format.Duration(stats.Uptime)
	response.Runtime.GoVersion = stats.GoVersion
	response.Runtime.Build = stats.GetBuildInfoSummary()
	response.Runtime.Goroutines = stats.NumGoroutines
	response.Runtime.NumCPU = stats.NumCPU
	response.Runtime.GOMAXPROCS = stats.GOMAXPROCS

	a.writeJSON(w, http.StatusOK, response)
}
