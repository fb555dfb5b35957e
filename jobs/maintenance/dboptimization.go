package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type Optimizer interface {
	Optimize(ctx context.Context) error
}

// DbOptimizationJob periodically lets SQLite refresh the query planner statistics of the activity database.
type DbOptimizationJob struct {
	repo        Optimizer
	maxDuration time.Duration
	ticker      *time.Ticker
	done        chan struct{}
}

func NewDbOptimizationJob(repo Optimizer, intervalMs int64, maxDurationMs int64) *DbOptimizationJob {
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	done := make(chan struct{})

	j := &DbOptimizationJob{
		repo:        repo,
		maxDuration: time.Duration(maxDurationMs) * time.Millisecond,
		ticker:      ticker,
		done:        done,
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

func (j *DbOptimizationJob) run() {
	ctx, cancelFunc := context.WithTimeout(context.Background(), j.maxDuration)
	defer cancelFunc()

	start := time.Now()
	if err := j.repo.Optimize(ctx); err != nil {
		log.Warn().Err(err).Msg("activity database optimization failed")
		return
	}
	log.Debug().Dur("took", time.Since(start)).Msg("activity database optimized")
}

func (j *DbOptimizationJob) Close() error {
	j.ticker.Stop()
	close(j.done)
	return nil
}
