package nerdstats

import (
	"runtime"
	"runtime/debug"
	"time"

	"github.com/thushan/warden/pkg/format"
)

/*
	NerdStats takes a snapshot of Go runtime statistics. The monitor uses it
	every tick for the memory ratio, main uses it once at shutdown for the
	process report.

	See: https://pkg.go.dev/runtime#MemStats for what the fields mean.
*/

type NerdStats struct {
	HeapAlloc    uint64
	HeapSys      uint64
	HeapInuse    uint64
	HeapReleased uint64
	StackInuse   uint64
	Sys          uint64
	TotalAlloc   uint64
	Mallocs      uint64
	Frees        uint64

	NumGC         uint32
	LastGC        time.Time
	TotalGCTime   time.Duration
	GCCPUFraction float64

	NumGoroutines int
	NumCPU        int
	GOMAXPROCS    int
	GoVersion     string
	Uptime        time.Duration

	BuildInfo *debug.BuildInfo
}

func Snapshot(startTime time.Time) *NerdStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &NerdStats{
		HeapAlloc:     m.HeapAlloc,
		HeapSys:       m.HeapSys,
		HeapInuse:     m.HeapInuse,
		HeapReleased:  m.HeapReleased,
		StackInuse:    m.StackInuse,
		Sys:           m.Sys,
		TotalAlloc:    m.TotalAlloc,
		Mallocs:       m.Mallocs,
		Frees:         m.Frees,
		NumGC:         m.NumGC,
		GCCPUFraction: m.GCCPUFraction,
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		GoVersion:     runtime.Version(),
		Uptime:        time.Since(startTime),
	}

	if m.LastGC > 0 {
		stats.LastGC = time.Unix(0, int64(m.LastGC)) //nolint:gosec // nanoseconds since epoch fit in int64
		stats.TotalGCTime = time.Duration(m.PauseTotalNs) //nolint:gosec // same
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		stats.BuildInfo = info
	}

	return stats
}

// MemoryRatio is Sys over limit when a limit is set, otherwise how full the
// heap the runtime has reserved is
func (ns *NerdStats) MemoryRatio(limit int64) float64 {
	if limit > 0 {
		return float64(ns.Sys) / float64(limit)
	}
	if ns.HeapSys == 0 {
		return 0
	}
	return float64(ns.HeapAlloc) / float64(ns.HeapSys)
}

// GetMemoryPressure returns a coarse label for the shutdown report
func (ns *NerdStats) GetMemoryPressure() string {
	ratio := ns.MemoryRatio(0)
	allocsPerFree := float64(ns.Mallocs) / float64(ns.Frees+1)

	switch {
	case ratio > 0.9 && allocsPerFree > 1.5:
		return "HIGH"
	case ratio > 0.7 || allocsPerFree > 1.2:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func (ns *NerdStats) GetBuildInfoSummary() map[string]string {
	summary := make(map[string]string)
	if ns.BuildInfo == nil {
		return summary
	}

	summary["path"] = ns.BuildInfo.Path
	summary["main_version"] = ns.BuildInfo.Main.Version
	for _, setting := range ns.BuildInfo.Settings {
		switch setting.Key {
		case "GOARCH", "GOOS", "vcs.revision", "vcs.time":
			summary[setting.Key] = setting.Value
		}
	}
	return summary
}

func (ns *NerdStats) AverageGCPause() string {
	if ns.NumGC == 0 {
		return "N/A"
	}
	return format.Duration(ns.TotalGCTime / time.Duration(ns.NumGC))
}
