package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	HealthEndpoint    = "health"
	StatsEndpoint     = "stats"
	SendEmailEndpoint = "send_email"

	SuccessOutcome     = "success"      // 2xx
	StatusErrorOutcome = "status_error" // non-2xx
	NetworkOutcome     = "network"      // no response at all
)

type Service interface {
	IncProxyRequestsTotal(route string, statusCode int)
	ObserveBackendRequest(endpoint string, outcome string, seconds float64)
	IncHealthChecksTotal(state string)
	SetBackendComponentUp(component string, up bool)
	SetActiveSessions(count int)
	IncActivityCleanupTotalBy(count int64)
}

// NewMetricsService returns the prometheus implementation registered on reg, or a no-op one when metrics are disabled.
func NewMetricsService(metricsEnabled bool, reg prometheus.Registerer) Service {
	if metricsEnabled {
		return newPrometheusMetricsService(reg)
	}
	return newNoopMetricsService()
}
