package handlers

import (
	"net/http"

	"github.com/thushan/warden/internal/core/constants"
)

// registerRoutes sets up the complete HTTP routing table
func (a *Application) registerRoutes() {
	// Probe routes only get security headers so uptime monitors are never
	// rate limited or blocked
	a.routeRegistry.RegisterProbe(constants.DefaultHealthCheckEndpoint, a.healthHandler, "Liveness probe")
	a.routeRegistry.RegisterProbe(constants.DefaultVersionEndpoint, a.versionHandler, "Warden version information")

	admin := constants.DefaultAdminPathPrefix
	a.routeRegistry.RegisterAdmin(admin+"status", a.statusHandler, "Health summary", http.MethodGet)
	a.routeRegistry.RegisterAdmin(admin+"metrics", a.metricsHistoryHandler, "Snapshot history", http.MethodGet)
	a.routeRegistry.RegisterAdmin(admin+"logs", a.logsHandler, "Recent event log entries", http.MethodGet)
	a.routeRegistry.RegisterAdmin(admin+"process", a.processStatsHandler, "Process runtime stats", http.MethodGet)
	a.routeRegistry.RegisterAdmin(admin+"security/status", a.securityStatusHandler, "Reputation and rate window state", http.MethodGet)
	a.routeRegistry.RegisterAdmin(admin+"security/block", a.blockHandler, "Block an identity", http.MethodPost)
	a.routeRegistry.RegisterAdmin(admin+"security/unblock", a.unblockHandler, "Unblock an identity", http.MethodPost)
	a.routeRegistry.RegisterAdmin(admin+"alerts", a.alertRulesHandler, "Alert rules", http.MethodGet)
	a.routeRegistry.RegisterAdmin(admin+"alerts", a.configureAlertHandler, "Configure an alert rule", http.MethodPost)
	a.routeRegistry.RegisterAdmin(constants.DefaultMetricsEndpoint, a.metrics.ServeHTTP, "Prometheus metrics", http.MethodGet)

	// Everything else is guarded traffic for the downstream
	a.routeRegistry.RegisterAPI(constants.DefaultPathPrefix, a.downstream.ServeHTTP, "Guarded downstream", "")
}
