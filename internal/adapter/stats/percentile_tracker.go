package stats

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

// IntervalLatency accumulates response times for one monitor interval. The
// sum and count feed the average; a bounded reservoir sample gives a p95
// without keeping every observation.
type IntervalLatency struct {
	samples    []time.Duration
	sum        time.Duration
	count      int64
	sampleSize int
	mu         sync.Mutex
}

func NewIntervalLatency(sampleSize int) *IntervalLatency {
	if sampleSize <= 0 {
		sampleSize = 100
	}
	return &IntervalLatency{
		sampleSize: sampleSize,
		samples:    make([]time.Duration, 0, sampleSize),
	}
}

func (il *IntervalLatency) Add(latency time.Duration) {
	il.mu.Lock()
	defer il.mu.Unlock()

	il.sum += latency
	il.count++

	if len(il.samples) < il.sampleSize {
		il.samples = append(il.samples, latency)
		return
	}

	// reservoir sampling: every observation has an equal chance of staying
	j := rand.Int64N(il.count) //nolint:gosec // statistical sampling doesn't need crypto rand
	if j < int64(il.sampleSize) {
		il.samples[j] = latency
	}
}

// Drain returns the interval's sum, count and p95, then starts a new interval
func (il *IntervalLatency) Drain() (time.Duration, int64, time.Duration) {
	il.mu.Lock()
	sum, count := il.sum, il.count
	sorted := slices.Clone(il.samples)
	il.sum, il.count = 0, 0
	il.samples = il.samples[:0]
	il.mu.Unlock()

	if len(sorted) == 0 {
		return sum, count, 0
	}
	slices.Sort(sorted)
	idx := min(len(sorted)*95/100, len(sorted)-1)
	return sum, count, sorted[idx]
}

func (il *IntervalLatency) Count() int64 {
	il.mu.Lock()
	defer il.mu.Unlock()
	return il.count
}
