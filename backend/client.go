package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/metrics"

	"github.com/rs/zerolog/log"
)

const (
	HealthPath    = "/health"
	StatsPath     = "/stats"
	SendEmailPath = "/send-email"

	maxBodySizeBytes = 1 << 20 // 1 MB
)

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError is returned when the backend answered, but with a non-2xx status.
type StatusError struct {
	Path       string
	StatusCode int
}

func (se *StatusError) Error() string {
	return fmt.Sprintf("backend %s answered with status %d", se.Path, se.StatusCode)
}

// Client talks to the external email backend.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	metricsService metrics.Service
}

func NewClient(baseURL string, timeout time.Duration, metricsService metrics.Service) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metricsService: metricsService,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health calls GET /health. An error means the backend could not be reached at all.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, HealthPath, metrics.HealthEndpoint, nil)
}

// RawStats calls GET /stats and returns the response as is.
func (c *Client) RawStats(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, StatsPath, metrics.StatsEndpoint, nil)
}

// Stats calls GET /stats and decodes the counters.
// A non-2xx answer is reported as *StatusError.
func (c *Client) Stats(ctx context.Context) (*common.BackendStats, error) {
	resp, err := c.RawStats(ctx)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{Path: StatsPath, StatusCode: resp.StatusCode}
	}

	var stats common.BackendStats
	if err := json.Unmarshal(resp.Body, &stats); err != nil {
		return nil, fmt.Errorf("decoding backend stats: %w", err)
	}
	return &stats, nil
}

// SendEmail calls POST /send-email. Non-2xx answers are returned as a regular response, not as an error.
func (c *Client) SendEmail(ctx context.Context, req common.BackendSendRequest) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding send request: %w", err)
	}
	return c.do(ctx, http.MethodPost, SendEmailPath, metrics.SendEmailEndpoint, payload)
}

func (c *Client) do(ctx context.Context, method string, path string, endpoint string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metricsService.ObserveBackendRequest(endpoint, metrics.NetworkOutcome, time.Since(start).Seconds())
		log.Debug().Err(err).Str("path", path).Msg("backend request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySizeBytes))
	if err != nil {
		c.metricsService.ObserveBackendRequest(endpoint, metrics.NetworkOutcome, time.Since(start).Seconds())
		return nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
	}

	outcome := metrics.SuccessOutcome
	if !resp.OK() {
		outcome = metrics.StatusErrorOutcome
	}
	c.metricsService.ObserveBackendRequest(endpoint, outcome, time.Since(start).Seconds())

	return resp, nil
}
