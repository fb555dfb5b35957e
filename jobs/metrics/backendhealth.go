package metrics

import (
	"context"
	"time"

	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/metrics"

	"github.com/rs/zerolog/log"
)

type Snapshotter interface {
	Snapshot(ctx context.Context) (*common.StatusSnapshot, error)
}

// BackendHealthMetricsJob exports the status proxy's view of the backend as gauges,
// so that it is visible without a page open.
type BackendHealthMetricsJob struct {
	ticker *time.Ticker
	done   chan struct{}
}

func NewBackendHealthMetricsJob(metricsService metrics.Service, statusService Snapshotter, intervalMs int64) *BackendHealthMetricsJob {
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				ctx, cancelFunc := context.WithTimeout(context.Background(), time.Duration(intervalMs-1000)*time.Millisecond)
				exportBackendHealth(ctx, metricsService, statusService)
				cancelFunc()
			case <-done:
				return
			}
		}
	}()

	return &BackendHealthMetricsJob{
		ticker: ticker,
		done:   done,
	}
}

func exportBackendHealth(ctx context.Context, metricsService metrics.Service, statusService Snapshotter) {
	snapshot, err := statusService.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch backend status by BackendHealthMetricsJob")
		metricsService.SetBackendComponentUp(metrics.HealthEndpoint, false)
		metricsService.SetBackendComponentUp(metrics.StatsEndpoint, false)
		return
	}

	metricsService.SetBackendComponentUp(metrics.HealthEndpoint, snapshot.Health != nil)
	metricsService.SetBackendComponentUp(metrics.StatsEndpoint, snapshot.Stats != nil)
}

func (j *BackendHealthMetricsJob) Close() error {
	j.ticker.Stop()
	close(j.done)
	return nil
}
