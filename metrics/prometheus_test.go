package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsService(t *testing.T) {
	t.Run("should count proxy requests by route and code", func(t *testing.T) {
		srv := newPrometheusMetricsService(prometheus.NewRegistry())

		srv.IncProxyRequestsTotal("/api/send-email", 400)
		srv.IncProxyRequestsTotal("/api/send-email", 400)
		srv.IncProxyRequestsTotal("/api/send-email", 200)

		got := testutil.ToFloat64(srv.proxyRequestsTotal.WithLabelValues("/api/send-email", "400"))
		if got != 2 {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 2, got)
		}
	})

	t.Run("should flip the component gauge", func(t *testing.T) {
		srv := newPrometheusMetricsService(prometheus.NewRegistry())

		srv.SetBackendComponentUp(HealthEndpoint, true)
		if got := testutil.ToFloat64(srv.backendComponentUp.WithLabelValues(HealthEndpoint)); got != 1 {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 1, got)
		}

		srv.SetBackendComponentUp(HealthEndpoint, false)
		if got := testutil.ToFloat64(srv.backendComponentUp.WithLabelValues(HealthEndpoint)); got != 0 {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 0, got)
		}
	})

	t.Run("should return noop service when disabled", func(t *testing.T) {
		srv := NewMetricsService(false, prometheus.NewRegistry())
		if _, ok := srv.(*NoopMetricsService); !ok {
			t.Fatalf("\nwanted:\n*NoopMetricsService\ngot:\n%T", srv)
		}
	})
}
