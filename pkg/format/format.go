package format

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

// Bytes renders a byte count with binary units, e.g. 1.5MiB
func Bytes(bytes uint64) string {
	return units.BytesSize(float64(bytes))
}

// Duration formats d as 1h2m3s, dropping leading zero units. Sub-second
// values keep Go's own formatting.
func Duration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Percentage renders a 0..1 ratio as a percentage with one decimal
func Percentage(ratio float64) string {
	if ratio == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func Latency(d time.Duration) string {
	ms := d.Milliseconds()
	switch {
	case ms == 0:
		return "0ms"
	case ms >= 1000:
		return fmt.Sprintf("%.1fs", float64(ms)/1000.0)
	default:
		return fmt.Sprintf("%dms", ms)
	}
}
