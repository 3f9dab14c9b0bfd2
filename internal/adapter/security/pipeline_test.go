package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/warden/internal/adapter/eventlog"
	"github.com/thushan/warden/internal/adapter/stats"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/util"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) Firefox/130.0"

type guardFixture struct {
	services  *Services
	stats     *stats.Collector
	publisher *capturePublisher
	events    *eventlog.Log
	handler   http.Handler
	admin     http.Handler
	probe     http.Handler
	reached   int
}

func newGuardFixture(t *testing.T, mutate func(*config.Config)) *guardFixture {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Finalise())

	f := &guardFixture{publisher: &capturePublisher{}}
	f.stats = stats.NewCollector(testLogger(), nil)

	f.events = eventlog.New(100, 0)

	services, err := NewSecurityServices(cfg, f.stats, f.events, f.publisher, testLogger())
	require.NoError(t, err)
	services.Limiter.now = newFakeClock(testEpoch).Now
	f.services = services

	downstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.reached++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	f.handler = services.Middleware(RouteAPI)(downstream)
	f.admin = services.Middleware(RouteAdmin)(downstream)
	f.probe = services.Middleware(RouteProbe)(downstream)
	return f
}

func apiRequest(method, target, identity, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	r.RemoteAddr = identity + ":40000"
	r.Header.Set("User-Agent", browserUA)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload["error"]
}

func TestGuard_CleanRequestReachesDownstreamSanitised(t *testing.T) {
	f := newGuardFixture(t, nil)

	rec := serve(f.handler, apiRequest(http.MethodPost, "/api/profile", "1.2.3.4", `{"bio":"  hi <b>there</b> "}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.reached)
	assert.JSONEq(t, `{"bio":"hi &lt;b&gt;there&lt;/b&gt;"}`, rec.Body.String())

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "300", rec.Header().Get(HeaderRateLimitLimit))
	assert.Equal(t, "299", rec.Header().Get(HeaderRateLimitRemaining))
	assert.NotEmpty(t, rec.Header().Get(HeaderRateLimitReset))
}

func TestGuard_RateLimitScenario(t *testing.T) {
	f := newGuardFixture(t, nil)

	for i := 1; i <= 300; i++ {
		rec := serve(f.handler, apiRequest(http.MethodGet, "/api/items", "1.2.3.4", ""))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := serve(f.handler, apiRequest(http.MethodGet, "/api/items", "1.2.3.4", ""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later", errorMessage(t, rec))
	assert.NotEmpty(t, rec.Header().Get(HeaderRetryAfter))
	assert.Equal(t, "0", rec.Header().Get(HeaderRateLimitRemaining))

	assert.Equal(t, []string{"1.2.3.4"}, f.services.Reputation.Suspicious())
	assert.Equal(t, int64(1), f.stats.GetSecurityStats().RateLimitViolations)
	assert.Contains(t, f.publisher.Messages(), "rate limit exceeded")
}

func TestGuard_SQLInjectionRejectedGenerically(t *testing.T) {
	f := newGuardFixture(t, nil)

	rec := serve(f.handler, apiRequest(http.MethodPost, "/api/login", "1.2.3.4", `{"user":"' OR 1=1--","pass":"x"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request", errorMessage(t, rec))
	assert.NotContains(t, rec.Body.String(), "OR 1=1", "the payload is never echoed")
	assert.Zero(t, f.reached)
	assert.Equal(t, 1, f.services.Reputation.Count("1.2.3.4"))
	assert.Equal(t, int64(1), f.stats.GetSecurityStats().ThreatDetections)

	entries := f.events.Recent(10)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SourceSecurity, entries[0].Source)
	assert.Equal(t, domain.SeverityWarning, entries[0].Level)
	assert.Equal(t, "threat detected: "+string(domain.ThreatSQLPattern), entries[0].Message)
	assert.Equal(t, "/api/login", entries[0].Endpoint)
	assert.Equal(t, http.MethodPost, entries[0].Method)
	assert.Equal(t, "1.2.3.4", entries[0].Identity)
	assert.Equal(t, browserUA, entries[0].UserAgent)
}

func TestGuard_XSSInQueryRejected(t *testing.T) {
	f := newGuardFixture(t, nil)

	rec := serve(f.handler, apiRequest(http.MethodGet, "/api/search?q=%3Cscript%3Ealert(1)%3C/script%3E", "1.2.3.4", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.reached)
}

func TestGuard_ProbeAndBotHeuristics(t *testing.T) {
	f := newGuardFixture(t, nil)

	rec := serve(f.handler, apiRequest(http.MethodGet, "/wp-admin/", "1.2.3.4", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	r := apiRequest(http.MethodGet, "/api/items", "1.2.3.5", "")
	r.Header.Set("User-Agent", "sqlmap/1.7")
	assert.Equal(t, http.StatusBadRequest, serve(f.handler, r).Code)

	r = apiRequest(http.MethodGet, "/api/items", "1.2.3.6", "")
	r.Header.Del("User-Agent")
	assert.Equal(t, http.StatusBadRequest, serve(f.handler, r).Code)

	assert.Zero(t, f.reached)
}

func TestGuard_BlockAfterRepeatedThreatsThenUnblock(t *testing.T) {
	f := newGuardFixture(t, nil)
	attack := `{"q":"<script>alert(1)</script>"}`

	for range 6 {
		rec := serve(f.handler, apiRequest(http.MethodPost, "/api/comments", "6.6.6.6", attack))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	require.True(t, f.services.Reputation.IsBlocked("6.6.6.6"))
	assert.Contains(t, f.publisher.Messages(), "identity blocked")

	rec := serve(f.handler, apiRequest(http.MethodGet, "/api/items", "6.6.6.6", ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", errorMessage(t, rec))

	// blocked is checked before the rate limiter, so no window is consumed
	assert.Empty(t, rec.Header().Get(HeaderRateLimitLimit))

	assert.True(t, f.services.Reputation.Unblock("6.6.6.6"))
	rec = serve(f.handler, apiRequest(http.MethodGet, "/api/items", "6.6.6.6", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_BodyTooLarge(t *testing.T) {
	f := newGuardFixture(t, func(c *config.Config) { c.Security.MaxBodySize = "64B" })

	rec := serve(f.handler, apiRequest(http.MethodPost, "/api/upload", "1.2.3.4", `{"data":"`+strings.Repeat("a", 100)+`"}`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, int64(1), f.stats.GetSecurityStats().SizeLimitViolations)
	assert.Zero(t, f.services.Reputation.Count("1.2.3.4"), "size limits do not feed reputation")
}

func TestGuard_BypassSkipsRateLimit(t *testing.T) {
	f := newGuardFixture(t, func(c *config.Config) {
		c.Security.RateLimits.PerMinute = 1
		c.Security.RateLimits.BypassPaths = []string{"/api/public/"}
	})

	for range 3 {
		rec := serve(f.handler, apiRequest(http.MethodGet, "/api/public/feed", "1.2.3.4", ""))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, int64(3), f.stats.GetSecurityStats().RateLimitBypassed)
	assert.Zero(t, f.services.Limiter.ActiveWindows())
}

func TestGuard_ProbeRoutesOnlyGetHeaders(t *testing.T) {
	f := newGuardFixture(t, nil)
	f.services.Reputation.Block("1.2.3.4")

	r := apiRequest(http.MethodGet, "/internal/health", "1.2.3.4", "")
	r.Header.Del("User-Agent")
	rec := serve(f.probe, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestGuard_AdminToken(t *testing.T) {
	f := newGuardFixture(t, func(c *config.Config) { c.Admin.Token = "s3cret" })

	r := apiRequest(http.MethodGet, "/internal/admin/status", "10.0.0.1", "")
	rec := serve(f.admin, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	r.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(f.admin, r).Code)

	r.Header.Set("Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, serve(f.admin, r).Code)
}

func TestGuard_AdminRoutesSkipPatternScan(t *testing.T) {
	f := newGuardFixture(t, nil)

	r := apiRequest(http.MethodPost, "/internal/admin/security/block", "10.0.0.1", `{"identity":"1.1.1.1"}`)
	r.Header.Set("User-Agent", "curl/8.5.0")
	assert.Equal(t, http.StatusOK, serve(f.admin, r).Code)
}

func TestGuard_UsesIdentityFromContext(t *testing.T) {
	f := newGuardFixture(t, nil)
	f.services.Reputation.Block("203.0.113.9")

	r := apiRequest(http.MethodGet, "/api/items", "1.2.3.4", "")
	r = r.WithContext(util.ContextWithIdentity(r.Context(), "203.0.113.9"))

	assert.Equal(t, http.StatusForbidden, serve(f.handler, r).Code)
}

func TestServices_StatusAndConfigReload(t *testing.T) {
	f := newGuardFixture(t, nil)

	serve(f.handler, apiRequest(http.MethodGet, "/api/items", "1.2.3.4", ""))
	f.services.Reputation.Block("9.9.9.9")
	f.services.Reputation.RecordSuspicion("8.8.8.8", domain.SuspicionThreat)

	status := f.services.Status()
	assert.Equal(t, []string{"9.9.9.9"}, status.BlockedIdentities)
	assert.Equal(t, []string{"8.8.8.8"}, status.SuspiciousIdentities)
	assert.Equal(t, 2, status.ActiveRateWindowCount)

	cfg := testConfig()
	cfg.Security.RateLimits.PerMinute = 1
	f.services.ApplyConfig(cfg)

	rec := serve(f.handler, apiRequest(http.MethodGet, "/api/items", "1.2.3.4", ""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
