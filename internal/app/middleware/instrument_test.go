package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/warden/internal/adapter/eventlog"
	"github.com/thushan/warden/internal/adapter/stats"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/util"
)

func testLogger() logger.StyledLogger {
	return logger.NewPlainStyledLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})))
}

func newTestInstrumentor(t *testing.T) (*Instrumentor, *stats.Collector, *eventlog.Log) {
	t.Helper()
	collector := stats.NewCollector(testLogger(), nil)
	log := eventlog.New(100, time.Hour)
	in, err := NewInstrumentor(collector, log, util.NewIdentityResolver(false, nil), testLogger())
	require.NoError(t, err)
	return in, collector, log
}

func TestInstrumentor_RecordsSuccess(t *testing.T) {
	in, collector, log := newTestInstrumentor(t)

	var seenIdentity, seenID string
	handler := in.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenIdentity, _ = util.IdentityFromContext(r.Context())
		seenID = util.RequestIDFromContext(r.Context())
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.RemoteAddr = "203.0.113.7:41000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.Equal(t, "203.0.113.7", seenIdentity)
	assert.Equal(t, seenID, rr.Header().Get(util.HeaderRequestID))
	_, err := uuid.Parse(seenID)
	assert.NoError(t, err)

	assert.Equal(t, int64(1), collector.GetRequestStats().TotalRequests)
	_, count := collector.DrainLatency()
	assert.Equal(t, int64(1), count)
	assert.Zero(t, log.Len(), "success is not an event")
}

func TestInstrumentor_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  domain.Severity
	}{
		{name: "client error", status: http.StatusNotFound, level: domain.SeverityWarning},
		{name: "rate limited", status: http.StatusTooManyRequests, level: domain.SeverityWarning},
		{name: "server error", status: http.StatusBadGateway, level: domain.SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, collector, log := newTestInstrumentor(t)
			handler := in.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
			req.RemoteAddr = "198.51.100.4:5000"
			req.Header.Set("User-Agent", "curl/8.5.0")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, int64(1), collector.GetRequestStats().ErrorRequests)

			entries := log.Recent(10)
			require.Len(t, entries, 1)
			e := entries[0]
			assert.Equal(t, tt.level, e.Level)
			assert.Equal(t, "/checkout", e.Endpoint)
			assert.Equal(t, http.MethodPost, e.Method)
			assert.Equal(t, "198.51.100.4", e.Identity)
			assert.Equal(t, "curl/8.5.0", e.UserAgent)
			assert.Equal(t, tt.status, e.StatusCode)
			assert.Equal(t, domain.SourceHTTP, e.Source)
		})
	}
}

func TestInstrumentor_KeepsValidRequestID(t *testing.T) {
	in, _, _ := newTestInstrumentor(t)
	handler := in.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(util.HeaderRequestID, id)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, id, rr.Header().Get(util.HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(util.HeaderRequestID, "<script>")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.NotEqual(t, "<script>", rr.Header().Get(util.HeaderRequestID))
}

func TestInstrumentor_MeasuresElapsed(t *testing.T) {
	in, collector, _ := newTestInstrumentor(t)

	clock := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	in.now = func() time.Time { return clock }
	handler := in.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clock = clock.Add(250 * time.Millisecond)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	sum, count := collector.DrainLatency()
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 250*time.Millisecond, sum)
}

func TestResponseWriter_FirstHeaderWins(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, status: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)
	_, _ = rw.Write([]byte("abc"))

	assert.Equal(t, http.StatusCreated, rw.status)
	assert.Equal(t, int64(3), rw.size)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rw.Reset()
	assert.Nil(t, rw.ResponseWriter)
	assert.Equal(t, http.StatusOK, rw.status)
	assert.Zero(t, rw.size)
}
