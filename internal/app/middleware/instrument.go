package middleware

/*
	Warden Middleware - Request Instrumentor
	Outermost handler on every route. It gives each request an id, resolves
	the caller identity once so the guard and the handlers share it, and on
	completion records the latency and status with the stats collector.
	Responses of 400 and above become event log entries, 500 and above at
	error level. The response itself is passed through untouched.
*/

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/util"
	"github.com/thushan/warden/pkg/pool"
)

// responseWriter wraps http.ResponseWriter to capture response size and status
type responseWriter struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += int64(size)
	return size, err
}

func (rw *responseWriter) WriteHeader(s int) {
	if rw.wroteHeader {
		return
	}
	rw.status = s
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(s)
}

// Flush implements http.Flusher so proxied streams are not buffered here
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		if !rw.wroteHeader {
			rw.WriteHeader(http.StatusOK)
		}
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Reset() {
	rw.ResponseWriter = nil
	rw.status = http.StatusOK
	rw.size = 0
	rw.wroteHeader = false
}

type Instrumentor struct {
	stats    ports.StatsCollector
	eventLog ports.EventLog
	resolver *util.IdentityResolver
	logger   logger.StyledLogger
	writers  *pool.Pool[*responseWriter]
	now      func() time.Time
	verbose  bool
}

func NewInstrumentor(stats ports.StatsCollector, eventLog ports.EventLog, resolver *util.IdentityResolver, log logger.StyledLogger) (*Instrumentor, error) {
	writers, err := pool.NewLitePool(func() *responseWriter {
		return &responseWriter{status: http.StatusOK}
	})
	if err != nil {
		return nil, err
	}
	return &Instrumentor{
		stats:    stats,
		eventLog: eventLog,
		resolver: resolver,
		logger:   log,
		writers:  writers,
		now:      time.Now,
	}, nil
}

// LogRequests raises the per-request log line from debug to info
func (in *Instrumentor) LogRequests(enabled bool) *Instrumentor {
	in.verbose = enabled
	return in
}

func (in *Instrumentor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := in.now()

		requestID := r.Header.Get(util.HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = util.GenerateRequestID()
		}
		w.Header().Set(util.HeaderRequestID, requestID)

		identity := in.resolver.Resolve(r)
		ctx := util.ContextWithRequestID(r.Context(), requestID)
		ctx = util.ContextWithIdentity(ctx, identity)

		wrapped := in.writers.Get()
		wrapped.ResponseWriter = w
		defer in.writers.Put(wrapped)

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		elapsed := in.now().Sub(start)
		status := wrapped.status
		in.stats.RecordRequest(status, elapsed)

		logf := in.logger.Debug
		if in.verbose {
			logf = in.logger.Info
		}
		logf("Request completed",
			"request_id", requestID,
			"identity", identity,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"response_bytes", wrapped.size,
			"duration_ms", elapsed.Milliseconds())

		level, ok := domain.SeverityForStatus(status)
		if !ok || in.eventLog == nil {
			return
		}
		in.eventLog.Append(domain.ErrorLogEntry{
			Timestamp:  start,
			ID:         requestID,
			Level:      level,
			Message:    r.Method + " " + r.URL.Path + " returned " + http.StatusText(status),
			Source:     domain.SourceHTTP,
			Endpoint:   r.URL.Path,
			Method:     r.Method,
			Identity:   identity,
			UserAgent:  r.UserAgent(),
			StatusCode: status,
		})
	})
}
