package metrics

type NoopMetricsService struct {
}

func newNoopMetricsService() *NoopMetricsService {
	return &NoopMetricsService{}
}

func (nms *NoopMetricsService) IncProxyRequestsTotal(route string, statusCode int) {
	// no-op
}

func (nms *NoopMetricsService) ObserveBackendRequest(endpoint string, outcome string, seconds float64) {
	// no-op
}

func (nms *NoopMetricsService) IncHealthChecksTotal(state string) {
	// no-op
}

func (nms *NoopMetricsService) SetBackendComponentUp(component string, up bool) {
	// no-op
}

func (nms *NoopMetricsService) SetActiveSessions(count int) {
	// no-op
}

func (nms *NoopMetricsService) IncActivityCleanupTotalBy(count int64) {
	// no-op
}
