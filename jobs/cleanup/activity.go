package cleanup

import (
	"context"
	"time"

	"github.com/changeset-demo/changeset-demo/metrics"

	"github.com/rs/zerolog/log"
)

type ActivityPruner interface {
	DeleteActivityOlderThan(ctx context.Context, cutoffMs int64) (int64, error)
}

// ActivityCleanupJob removes activity records older than the retention period.
type ActivityCleanupJob struct {
	repo           ActivityPruner
	metricsService metrics.Service
	retention      time.Duration
	intervalMs     int64
	now            func() time.Time
	ticker         *time.Ticker
	done           chan struct{}
}

func NewActivityCleanupJob(repo ActivityPruner, metricsService metrics.Service, retention time.Duration, intervalMs int64) *ActivityCleanupJob {
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	done := make(chan struct{})

	j := &ActivityCleanupJob{
		repo:           repo,
		metricsService: metricsService,
		retention:      retention,
		intervalMs:     intervalMs,
		now:            time.Now,
		ticker:         ticker,
		done:           done,
	}

	go func() {
		for {
			select {
			case <-ticker.C:
				j.run()
			case <-done:
				return
			}
		}
	}()

	return j
}

func (j *ActivityCleanupJob) run() {
	ctx, cancelFunc := context.WithTimeout(context.Background(), time.Duration(j.intervalMs-1000)*time.Millisecond)
	defer cancelFunc()

	cutoffMs := j.now().Add(-j.retention).UnixMilli()
	deleted, err := j.repo.DeleteActivityOlderThan(ctx, cutoffMs)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete old activity records")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("old activity records deleted")
		j.metricsService.IncActivityCleanupTotalBy(deleted)
	}
}

func (j *ActivityCleanupJob) Close() error {
	j.ticker.Stop()
	close(j.done)
	return nil
}
