package constants

const (
	DefaultHealthCheckEndpoint = "/internal/health"
	DefaultMetricsEndpoint     = "/internal/metrics"
	DefaultVersionEndpoint     = "/version"
	DefaultAdminPathPrefix     = "/internal/admin/"
	DefaultPathPrefix          = "/"

	DefaultLogsLimit = 100
	MaxLogsLimit     = 1000
)
