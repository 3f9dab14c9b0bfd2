package security

/*
				Warden Security Adapter - Window Rate Limiter
	WindowLimiter keeps a per identity counter for the current minute and the
	current hour. Buckets are aligned to the wall clock so a counter belongs to
	exactly one window and can be dropped once that window ends.

	The increment and the ceiling comparison happen inside a single
	xsync.Map.Compute call, so concurrent requests from one identity can never
	push more than the ceiling through a window.

	GlobalLimiter is the optional process wide token bucket in front of it.

	References:
	- https://pkg.go.dev/golang.org/x/time/rate
	- https://datatracker.ietf.org/doc/draft-ietf-httpapi-ratelimit-headers/
*/

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"

	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/util"
	"github.com/thushan/warden/internal/util/pattern"
)

type windowKey struct {
	identity string
	window   domain.RateWindow
	bucket   int64
}

type windowCounter struct {
	resetTime time.Time
	count     int
}

type WindowLimiter struct {
	counters    *xsync.Map[windowKey, windowCounter]
	now         func() time.Time
	bypassCIDRs []*net.IPNet
	bypassPaths []string
	perMinute   atomic.Int64
	perHour     atomic.Int64
}

func NewWindowLimiter(limits config.RateLimitConfig) *WindowLimiter {
	wl := &WindowLimiter{
		counters:    xsync.NewMap[windowKey, windowCounter](),
		now:         time.Now,
		bypassCIDRs: limits.BypassCIDRsParsed,
		bypassPaths: limits.BypassPaths,
	}
	wl.UpdateLimits(limits.PerMinute, limits.PerHour)
	return wl
}

// UpdateLimits swaps the ceilings in place, used on config reload
func (wl *WindowLimiter) UpdateLimits(perMinute, perHour int) {
	wl.perMinute.Store(int64(perMinute))
	wl.perHour.Store(int64(perHour))
}

// Allow counts one request for identity in both windows. The first window
// whose count is over its ceiling is reported as a *domain.RateLimitError.
func (wl *WindowLimiter) Allow(identity string) (domain.RateDecision, error) {
	now := wl.now()

	minute := wl.increment(identity, domain.WindowMinute, time.Minute, now)
	hour := wl.increment(identity, domain.WindowHour, time.Hour, now)

	perMinute := int(wl.perMinute.Load())
	perHour := int(wl.perHour.Load())

	if minute.count > perMinute {
		return domain.RateDecision{Limit: perMinute, ResetTime: minute.resetTime}, &domain.RateLimitError{
			Identity:   identity,
			Window:     domain.WindowMinute,
			Limit:      perMinute,
			RetryAfter: minute.resetTime.Sub(now),
			ResetTime:  minute.resetTime,
		}
	}

	if hour.count > perHour {
		return domain.RateDecision{Limit: perHour, ResetTime: hour.resetTime}, &domain.RateLimitError{
			Identity:   identity,
			Window:     domain.WindowHour,
			Limit:      perHour,
			RetryAfter: hour.resetTime.Sub(now),
			ResetTime:  hour.resetTime,
		}
	}

	return domain.RateDecision{
		Limit:     perMinute,
		Remaining: perMinute - minute.count,
		ResetTime: minute.resetTime,
	}, nil
}

func (wl *WindowLimiter) increment(identity string, window domain.RateWindow, size time.Duration, now time.Time) windowCounter {
	bucket := now.UnixNano() / int64(size)
	key := windowKey{identity: identity, window: window, bucket: bucket}

	counter, _ := wl.counters.Compute(key, func(old windowCounter, loaded bool) (windowCounter, xsync.ComputeOp) {
		if !loaded || !now.Before(old.resetTime) {
			return windowCounter{
				count:     1,
				resetTime: time.Unix(0, (bucket+1)*int64(size)),
			}, xsync.UpdateOp
		}
		old.count++
		return old, xsync.UpdateOp
	})
	return counter
}

// IsBypassed reports whether the request belongs to an explicitly trusted
// traffic class. Both lists are empty unless configured.
func (wl *WindowLimiter) IsBypassed(identity, path string) bool {
	if len(wl.bypassCIDRs) > 0 && util.IdentityInCIDRs(identity, wl.bypassCIDRs) {
		return true
	}
	for _, p := range wl.bypassPaths {
		if pattern.MatchesPath(path, p) {
			return true
		}
	}
	return false
}

// Sweep drops every counter whose window has ended and returns how many went
func (wl *WindowLimiter) Sweep(now time.Time) int {
	removed := 0
	wl.counters.Range(func(key windowKey, c windowCounter) bool {
		if now.Before(c.resetTime) {
			return true
		}
		wl.counters.Compute(key, func(old windowCounter, loaded bool) (windowCounter, xsync.ComputeOp) {
			if loaded && !now.Before(old.resetTime) {
				removed++
				return old, xsync.DeleteOp
			}
			return old, xsync.CancelOp
		})
		return true
	})
	return removed
}

func (wl *WindowLimiter) ActiveWindows() int {
	return wl.counters.Size()
}

// GlobalLimiter caps total throughput regardless of identity. A nil
// *GlobalLimiter admits everything.
type GlobalLimiter struct {
	limiter   *rate.Limiter
	perMinute int
}

func NewGlobalLimiter(perMinute, burst int) *GlobalLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &GlobalLimiter{
		limiter:   rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		perMinute: perMinute,
	}
}

func (gl *GlobalLimiter) Allow(now time.Time) error {
	if gl == nil {
		return nil
	}

	reservation := gl.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return &domain.RateLimitError{Identity: "*", Window: domain.WindowGlobal, Limit: gl.perMinute, RetryAfter: time.Minute}
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return &domain.RateLimitError{
			Identity:   "*",
			Window:     domain.WindowGlobal,
			Limit:      gl.perMinute,
			RetryAfter: delay,
			ResetTime:  now.Add(delay),
		}
	}
	return nil
}
