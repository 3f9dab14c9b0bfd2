package util

import (
	"time"
)

// ParseTime accepts RFC3339 with or without fractional seconds, nil otherwise
func ParseTime(timeStr string) *time.Time {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, timeStr); err == nil {
			return &t
		}
	}
	return nil
}
