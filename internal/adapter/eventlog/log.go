package eventlog

import (
	"sync"
	"time"

	"github.com/thushan/warden/internal/core/domain"
)

// Log is the bounded in-memory error/event log. Two eviction rules apply
// independently: Append drops the oldest entry once capacity is reached, and
// Prune drops everything older than the retention window.
type Log struct {
	now       func() time.Time
	entries   []domain.ErrorLogEntry // oldest first
	retention time.Duration
	capacity  int
	total     int64
	mu        sync.RWMutex
}

func New(capacity int, retention time.Duration) *Log {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Log{
		now:       time.Now,
		entries:   make([]domain.ErrorLogEntry, 0, min(capacity, 256)),
		retention: retention,
		capacity:  capacity,
	}
}

func (l *Log) Append(entry domain.ErrorLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.total++
	if len(l.entries) >= l.capacity {
		drop := len(l.entries) - l.capacity + 1
		copy(l.entries, l.entries[drop:])
		l.entries = l.entries[:len(l.entries)-drop]
	}
	l.entries = append(l.entries, entry)
}

// Prune removes entries older than the retention window and returns how many
func (l *Log) Prune(now time.Time) int {
	if l.retention <= 0 {
		return 0
	}
	cutoff := now.Add(-l.retention)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(l.entries) - len(kept)
	clear(l.entries[len(kept):])
	l.entries = kept
	return removed
}

// Recent returns up to limit entries, newest first. limit <= 0 means all.
func (l *Log) Recent(limit int) []domain.ErrorLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.ErrorLogEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

func (l *Log) CountSince(t time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Timestamp.Before(t) {
			break
		}
		count++
	}
	return count
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Total is the number of entries ever appended, evicted or not
func (l *Log) Total() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}
