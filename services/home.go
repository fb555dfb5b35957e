package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/changeset-demo/changeset-demo/backend"
	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/metrics"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

type HealthChecker interface {
	Health(ctx context.Context) (*backend.Response, error)
	Stats(ctx context.Context) (*common.BackendStats, error)
}

type EmailSender interface {
	SendEmail(ctx context.Context, req common.EmailRequest) (*common.SendResult, error)
}

// HomeState is what the home page renders.
type HomeState struct {
	Email         string
	Message       string
	IsLoading     bool
	Response      common.ResponseMessage
	BackendHealth common.HealthState
	BackendStats  *common.BackendStats // nil until the first successful stats check
}

// CanSubmit reports whether the send button is enabled.
func (hs HomeState) CanSubmit() bool {
	return !hs.IsLoading && hs.BackendHealth == common.HealthHealthy
}

// HomeController owns the state of one home page for the lifetime of the page.
// It refreshes backend health and stats on mount and every pollInterval afterwards, until unmounted.
type HomeController struct {
	checker        HealthChecker
	sender         EmailSender
	metricsService metrics.Service
	pollInterval   time.Duration
	checkTimeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup

	mu      sync.Mutex
	state   HomeState
	mounted bool
	closed  bool
}

func NewHomeController(checker HealthChecker, sender EmailSender, metricsService metrics.Service, pollInterval time.Duration, checkTimeout time.Duration) *HomeController {
	ctx, cancel := context.WithCancel(context.Background())

	return &HomeController{
		checker:        checker,
		sender:         sender,
		metricsService: metricsService,
		pollInterval:   pollInterval,
		checkTimeout:   checkTimeout,
		ctx:            ctx,
		cancel:         cancel,
		state: HomeState{
			BackendHealth: common.HealthChecking,
		},
	}
}

// Mount checks the backend right away and then on every poll tick. Calling it more than once is a no-op.
func (hc *HomeController) Mount() {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if hc.mounted || hc.closed {
		return
	}
	hc.mounted = true

	ticker := time.NewTicker(hc.pollInterval)
	hc.bg.Add(1)
	go func() {
		defer hc.bg.Done()
		defer ticker.Stop()

		hc.Refresh(hc.ctx)
		for {
			select {
			case <-ticker.C:
				hc.Refresh(hc.ctx)
			case <-hc.ctx.Done():
				return
			}
		}
	}()
}

// Unmount stops polling, cancels in-flight checks and waits for background work to finish.
func (hc *HomeController) Unmount() {
	hc.mu.Lock()
	if hc.closed {
		hc.mu.Unlock()
		return
	}
	hc.closed = true
	hc.mu.Unlock()

	hc.cancel()
	hc.bg.Wait()
}

// State returns a copy of the current state.
func (hc *HomeController) State() HomeState {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return hc.state
}

// Refresh runs the health and stats checks concurrently.
func (hc *HomeController) Refresh(ctx context.Context) {
	var wg conc.WaitGroup
	wg.Go(func() {
		hc.CheckHealth(ctx)
	})
	wg.Go(func() {
		hc.RefreshStats(ctx)
	})
	wg.Wait()
}

// CheckHealth checks the backend: 2xx is healthy, any other status is unhealthy,
// and no answer at all is unreachable.
func (hc *HomeController) CheckHealth(ctx context.Context) common.HealthState {
	checkCtx, cancel := context.WithTimeout(ctx, hc.checkTimeout)
	defer cancel()

	var state common.HealthState
	resp, err := hc.checker.Health(checkCtx)
	switch {
	case err != nil:
		log.Debug().Err(err).Msg("backend health check failed")
		state = common.HealthUnreachable
	case !resp.OK():
		state = common.HealthUnhealthy
	default:
		state = common.HealthHealthy
	}

	// a check aborted by unmount says nothing about the backend
	if hc.ctx.Err() != nil {
		return state
	}

	hc.metricsService.IncHealthChecksTotal(string(state))

	hc.mu.Lock()
	hc.state.BackendHealth = state
	hc.mu.Unlock()

	return state
}

// RefreshStats replaces the stats with the backend's current ones.
// On failure the previous stats are kept. Stats equal to the current ones keep the current value.
func (hc *HomeController) RefreshStats(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, hc.checkTimeout)
	defer cancel()

	stats, err := hc.checker.Stats(checkCtx)
	if err != nil {
		log.Debug().Err(err).Msg("backend stats check failed")
		return err
	}

	hc.mu.Lock()
	if !hc.state.BackendStats.Equal(stats) {
		hc.state.BackendStats = stats
	}
	hc.mu.Unlock()

	return nil
}

// Submit sends the form. It is rejected while a previous submission is in flight
// and while the backend is not healthy.
func (hc *HomeController) Submit(ctx context.Context, email string, message string) error {
	hc.mu.Lock()
	if hc.state.IsLoading {
		hc.mu.Unlock()
		return common.ErrSubmitInProgress
	}
	if hc.state.BackendHealth != common.HealthHealthy {
		hc.mu.Unlock()
		return common.ErrBackendNotHealthy
	}
	hc.state.Email = email
	hc.state.Message = message
	hc.state.IsLoading = true
	hc.state.Response = common.ResponseMessage{}
	hc.mu.Unlock()

	defer func() {
		hc.mu.Lock()
		hc.state.IsLoading = false
		hc.mu.Unlock()
	}()

	result, err := hc.sender.SendEmail(ctx, common.EmailRequest{Email: email, Message: message})
	if err != nil {
		log.Error().Err(err).Msg("failed to send email")
		hc.setResponse(common.SendFailedMessage, common.ErrorResponseKind)
		return nil
	}

	if !result.OK() {
		hc.setResponse(common.ErrorMessagePrefix+sendErrorMessage(result.Body), common.ErrorResponseKind)
		return nil
	}
	if !json.Valid(result.Body) {
		hc.setResponse(common.SendFailedMessage, common.ErrorResponseKind)
		return nil
	}

	hc.mu.Lock()
	hc.state.Response = common.ResponseMessage{Text: common.EmailSentMessage, Kind: common.SuccessResponseKind}
	hc.state.Email = ""
	hc.state.Message = ""
	hc.mu.Unlock()

	hc.refreshStatsInBackground()
	return nil
}

func (hc *HomeController) setResponse(text string, kind common.ResponseKind) {
	hc.mu.Lock()
	hc.state.Response = common.ResponseMessage{Text: text, Kind: kind}
	hc.mu.Unlock()
}

// refreshStatsInBackground fires a stats refresh that nobody waits for, apart from Unmount.
func (hc *HomeController) refreshStatsInBackground() {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if hc.closed {
		return
	}

	hc.bg.Add(1)
	go func() {
		defer hc.bg.Done()
		hc.RefreshStats(hc.ctx)
	}()
}

func sendErrorMessage(body []byte) string {
	var errResp common.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return common.ErrMsgFailedToSendEmail
	}
	return errResp.Error
}
