package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/changeset-demo/changeset-demo/backend"
	"github.com/changeset-demo/changeset-demo/common"

	"github.com/sourcegraph/conc"
)

// TimestampLayout renders UTC timestamps with millisecond precision, e.g. 2024-01-15T14:30:25.123Z
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type StatusBackend interface {
	Health(ctx context.Context) (*backend.Response, error)
	RawStats(ctx context.Context) (*backend.Response, error)
	BaseURL() string
}

// StatusService combines the backend's health and stats into one snapshot.
type StatusService struct {
	backend StatusBackend
	now     func() time.Time
}

func NewStatusService(statusBackend StatusBackend) *StatusService {
	return &StatusService{
		backend: statusBackend,
		now:     time.Now,
	}
}

// Snapshot queries health and stats concurrently and waits for both.
// A call that fails or answers non-2xx leaves its field nil without affecting the other one.
// A 2xx answer that is not valid JSON fails the whole snapshot.
func (ss *StatusService) Snapshot(ctx context.Context) (*common.StatusSnapshot, error) {
	var (
		health, stats       json.RawMessage
		healthErr, statsErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		health, healthErr = jsonBodyOrNil(ss.backend.Health(ctx))
	})
	wg.Go(func() {
		stats, statsErr = jsonBodyOrNil(ss.backend.RawStats(ctx))
	})
	if recovered := wg.WaitAndRecover(); recovered != nil {
		return nil, recovered.AsError()
	}

	if healthErr != nil {
		return nil, fmt.Errorf("backend health: %w", healthErr)
	}
	if statsErr != nil {
		return nil, fmt.Errorf("backend stats: %w", statsErr)
	}

	return &common.StatusSnapshot{
		Health:     health,
		Stats:      stats,
		Timestamp:  ss.Timestamp(),
		BackendURL: ss.backend.BaseURL(),
	}, nil
}

func (ss *StatusService) Timestamp() string {
	return ss.now().UTC().Format(TimestampLayout)
}

func jsonBodyOrNil(resp *backend.Response, err error) (json.RawMessage, error) {
	if err != nil || !resp.OK() {
		return nil, nil
	}
	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("malformed JSON body with status %d", resp.StatusCode)
	}
	return json.RawMessage(resp.Body), nil
}
