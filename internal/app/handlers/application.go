package handlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/thushan/warden/internal/adapter/factory"
	"github.com/thushan/warden/internal/adapter/monitor"
	"github.com/thushan/warden/internal/adapter/security"
	"github.com/thushan/warden/internal/adapter/sink"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/router"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dependencies is everything the routes read from. Metrics and SinkStats may
// be nil.
type Dependencies struct {
	Config     *config.Config
	Security   *security.Services
	Aggregator *monitor.Aggregator
	EventLog   ports.EventLog
	Stats      ports.StatsCollector
	Metrics    http.Handler
	SinkStats  func() sink.ForwarderStats
	StartTime  time.Time
}

// Application holds all the dependencies needed for the HTTP handlers
type Application struct {
	Config        *config.Config
	logger        logger.StyledLogger
	security      *security.Services
	aggregator    *monitor.Aggregator
	eventLog      ports.EventLog
	stats         ports.StatsCollector
	metrics       http.Handler
	sinkStats     func() sink.ForwarderStats
	routeRegistry *router.RouteRegistry
	downstream    http.Handler
	validate      *validator.Validate
	StartTime     time.Time
}

// NewApplication creates a new Application instance with all required dependencies
func NewApplication(deps Dependencies, logger logger.StyledLogger) (*Application, error) {
	a := &Application{
		Config:        deps.Config,
		logger:        logger,
		security:      deps.Security,
		aggregator:    deps.Aggregator,
		eventLog:      deps.EventLog,
		stats:         deps.Stats,
		metrics:       deps.Metrics,
		sinkStats:     deps.SinkStats,
		routeRegistry: router.NewRouteRegistry(logger),
		validate:      validator.New(),
		StartTime:     deps.StartTime,
	}
	if a.metrics == nil {
		a.metrics = http.NotFoundHandler()
	}
	if a.sinkStats == nil {
		a.sinkStats = func() sink.ForwarderStats { return sink.ForwarderStats{Primary: sink.TypeNone} }
	}

	downstream, err := a.newDownstream(deps.Config.Upstream)
	if err != nil {
		return nil, err
	}
	a.downstream = downstream
	return a, nil
}

// newDownstream proxies to the upstream when one is configured, otherwise
// answers with the sanitised input the guard let through
func (a *Application) newDownstream(upstream config.UpstreamConfig) (http.Handler, error) {
	if upstream.URL == "" {
		return http.HandlerFunc(a.echoHandler), nil
	}

	target, err := url.Parse(upstream.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url %q: %w", upstream.URL, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = factory.NewUpstreamTransport(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		a.logger.Error("Upstream request failed", "upstream", target.Host, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "Bad gateway")
	}
	a.logger.Info("Forwarding guarded requests", "upstream", target.String())
	return proxy, nil
}

// Handler wires the routes behind the guard and returns the mux
func (a *Application) Handler() http.Handler {
	mux := http.NewServeMux()
	a.registerRoutes()
	a.routeRegistry.WireUp(mux, a.security.Middleware)
	return mux
}

func (a *Application) GetRouteRegistry() *router.RouteRegistry {
	return a.routeRegistry
}
