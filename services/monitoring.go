package services

import (
	"context"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitoringService reports whether this server's own dependencies are usable.
// The email backend is not part of it, the status proxy reports on that.
type MonitoringService struct {
	pinger Pinger // nil when the activity log is disabled
}

func NewMonitoringService(pinger Pinger) *MonitoringService {
	return &MonitoringService{
		pinger: pinger,
	}
}

func (ms *MonitoringService) IsHealthy(ctx context.Context) bool {
	if ms.pinger == nil {
		return true
	}
	err := ms.pinger.Ping(ctx)
	return err == nil
}
