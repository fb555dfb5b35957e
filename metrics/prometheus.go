package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusMetricsService struct {
	proxyRequestsTotal     *prometheus.CounterVec
	backendRequestDuration *prometheus.HistogramVec
	healthChecksTotal      *prometheus.CounterVec
	backendComponentUp     *prometheus.GaugeVec
	activeSessions         prometheus.Gauge
	activityCleanupTotal   prometheus.Counter
}

func newPrometheusMetricsService(reg prometheus.Registerer) *PrometheusMetricsService {
	srv := &PrometheusMetricsService{
		proxyRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changeset_proxy_requests_total",
				Help: "Total number of requests answered by the proxy routes, by route and HTTP status",
			},
			[]string{"route", "code"},
		),

		backendRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "changeset_backend_request_duration_seconds",
				Help:    "Duration of outbound calls to the email backend",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "outcome"},
		),

		// no session label here, as sessions are short-lived and would blow up the cardinality.
		healthChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changeset_health_checks_total",
				Help: "Total number of backend health checks made by home page sessions, by resulting state",
			},
			[]string{"state"},
		),

		backendComponentUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "changeset_backend_component_up",
				Help: "1 if the backend endpoint answered with a 2xx status on the last status check, 0 otherwise",
			},
			[]string{"component"},
		),

		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "changeset_active_sessions",
				Help: "Current number of home page sessions with a running poller",
			},
		),

		activityCleanupTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "changeset_activity_cleanup_total",
				Help: "Total number of activity log records removed by the retention job",
			},
		),
	}

	reg.MustRegister(srv.proxyRequestsTotal)
	reg.MustRegister(srv.backendRequestDuration)
	reg.MustRegister(srv.healthChecksTotal)
	reg.MustRegister(srv.backendComponentUp)
	reg.MustRegister(srv.activeSessions)
	reg.MustRegister(srv.activityCleanupTotal)

	return srv
}

func (pms *PrometheusMetricsService) IncProxyRequestsTotal(route string, statusCode int) {
	pms.proxyRequestsTotal.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
}

func (pms *PrometheusMetricsService) ObserveBackendRequest(endpoint string, outcome string, seconds float64) {
	pms.backendRequestDuration.WithLabelValues(endpoint, outcome).Observe(seconds)
}

func (pms *PrometheusMetricsService) IncHealthChecksTotal(state string) {
	pms.healthChecksTotal.WithLabelValues(state).Inc()
}

func (pms *PrometheusMetricsService) SetBackendComponentUp(component string, up bool) {
	value := 0.0
	if up {
		value = 1
	}
	pms.backendComponentUp.WithLabelValues(component).Set(value)
}

func (pms *PrometheusMetricsService) SetActiveSessions(count int) {
	pms.activeSessions.Set(float64(count))
}

func (pms *PrometheusMetricsService) IncActivityCleanupTotalBy(count int64) {
	pms.activityCleanupTotal.Add(float64(count))
}
