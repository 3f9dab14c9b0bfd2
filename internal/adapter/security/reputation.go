package security

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
)

type suspicionRecord struct {
	lastSeen   time.Time
	total      int
	threats    int
	rateLimits int
}

// EscalationFunc is called once when an identity crosses a threshold and is
// added to the blocked set
type EscalationFunc func(identity string, reason domain.SuspicionReason, count int)

// ReputationTracker counts suspicious events per identity and escalates an
// identity to blocked once threats or rate limit hits cross their thresholds.
// Nothing decays; an operator unblock clears the identity's tally.
type ReputationTracker struct {
	records            *xsync.Map[string, suspicionRecord]
	blocked            *xsync.Map[string, time.Time]
	onEscalate         atomic.Pointer[EscalationFunc]
	now                func() time.Time
	suspicionThreshold atomic.Int64
	rateLimitThreshold atomic.Int64
}

func NewReputationTracker(cfg config.ReputationConfig) *ReputationTracker {
	rt := &ReputationTracker{
		records: xsync.NewMap[string, suspicionRecord](),
		blocked: xsync.NewMap[string, time.Time](),
		now:     time.Now,
	}
	rt.UpdateThresholds(cfg.SuspicionThreshold, cfg.RateLimitThreshold)
	return rt
}

func (rt *ReputationTracker) UpdateThresholds(suspicion, rateLimit int) {
	rt.suspicionThreshold.Store(int64(suspicion))
	rt.rateLimitThreshold.Store(int64(rateLimit))
}

func (rt *ReputationTracker) OnEscalate(fn EscalationFunc) {
	rt.onEscalate.Store(&fn)
}

// RecordSuspicion adds one event for identity and returns its running total
// and whether it is now blocked
func (rt *ReputationTracker) RecordSuspicion(identity string, reason domain.SuspicionReason) (int, bool) {
	now := rt.now()

	rec, _ := rt.records.Compute(identity, func(old suspicionRecord, _ bool) (suspicionRecord, xsync.ComputeOp) {
		old.total++
		switch reason {
		case domain.SuspicionRateLimit:
			old.rateLimits++
		case domain.SuspicionThreat:
			old.threats++
		}
		old.lastSeen = now
		return old, xsync.UpdateOp
	})

	over := int64(rec.threats) > rt.suspicionThreshold.Load() ||
		int64(rec.rateLimits) > rt.rateLimitThreshold.Load()
	if !over {
		return rec.total, rt.IsBlocked(identity)
	}

	if _, already := rt.blocked.LoadOrStore(identity, now); !already {
		if fn := rt.onEscalate.Load(); fn != nil && *fn != nil {
			count := rec.threats
			if reason == domain.SuspicionRateLimit {
				count = rec.rateLimits
			}
			(*fn)(identity, reason, count)
		}
	}
	return rec.total, true
}

func (rt *ReputationTracker) Count(identity string) int {
	rec, _ := rt.records.Load(identity)
	return rec.total
}

func (rt *ReputationTracker) IsBlocked(identity string) bool {
	_, ok := rt.blocked.Load(identity)
	return ok
}

// Block adds identity to the blocked set; blocking twice is a no-op
func (rt *ReputationTracker) Block(identity string) {
	rt.blocked.LoadOrStore(identity, rt.now())
}

// Unblock readmits identity and clears its tally. It reports whether the
// identity was blocked.
func (rt *ReputationTracker) Unblock(identity string) bool {
	_, wasBlocked := rt.blocked.LoadAndDelete(identity)
	if wasBlocked {
		rt.records.Delete(identity)
	}
	return wasBlocked
}

func (rt *ReputationTracker) Suspicious() []string {
	identities := make([]string, 0, rt.records.Size())
	rt.records.Range(func(identity string, rec suspicionRecord) bool {
		if rec.total > 0 {
			identities = append(identities, identity)
		}
		return true
	})
	sort.Strings(identities)
	return identities
}

func (rt *ReputationTracker) Blocked() []string {
	identities := make([]string, 0, rt.blocked.Size())
	rt.blocked.Range(func(identity string, _ time.Time) bool {
		identities = append(identities, identity)
		return true
	})
	sort.Strings(identities)
	return identities
}
