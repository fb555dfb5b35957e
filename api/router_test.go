package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/changeset-demo/changeset-demo/backend"
	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/metrics"
	"github.com/changeset-demo/changeset-demo/services"
)

type testBackend struct {
	server     *httptest.Server
	sendCalls  atomic.Int32
	sendStatus int
	sendBody   string
	health     http.HandlerFunc
	stats      http.HandlerFunc
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	tb := &testBackend{
		sendStatus: http.StatusOK,
		sendBody:   `{"status":"sent"}`,
		health: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"healthy"}`))
		},
		stats: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"total_emails_sent":1,"successful_emails":1,"failed_emails":0,"uptime":"1m"}`))
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /send-email", func(w http.ResponseWriter, r *http.Request) {
		tb.sendCalls.Add(1)
		w.WriteHeader(tb.sendStatus)
		w.Write([]byte(tb.sendBody))
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) { tb.health(w, r) })
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) { tb.stats(w, r) })

	tb.server = httptest.NewServer(mux)
	t.Cleanup(tb.server.Close)
	return tb
}

func newTestRouter(baseURL string) http.Handler {
	metricsService := metrics.NewMetricsService(false, nil)
	client := backend.NewClient(baseURL, time.Second, metricsService)

	ar := NewRouter(
		services.NewEmailService(client, nil, common.DefaultEmailSubject),
		services.NewStatusService(client),
		services.NewMonitoringService(nil),
		metricsService,
	)
	return ar.NewRouter()
}

func doRequest(t *testing.T, h http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func assertResponse(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantBody string) {
	t.Helper()

	if rec.Code != wantStatus {
		t.Fatalf("\nwanted:\n%d\ngot:\n%d", wantStatus, rec.Code)
	}
	if got := rec.Body.String(); got != wantBody {
		t.Fatalf("\nwanted:\n%s\ngot:\n%s", wantBody, got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("\nwanted:\napplication/json\ngot:\n%s", ct)
	}
}

func TestRouter_SendEmail(t *testing.T) {
	t.Run("should answer 400 without calling the backend when a field is missing", func(t *testing.T) {
		bodies := []string{
			`{"email":"","message":"hi"}`,
			`{"email":"a@b.com"}`,
			`{}`,
		}

		for _, body := range bodies {
			tb := newTestBackend(t)

			rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodPost, "/send-email", body)

			assertResponse(t, rec, http.StatusBadRequest, `{"error":"Email and message are required"}`)
			if tb.sendCalls.Load() != 0 {
				t.Fatalf("\nwanted:\n0 backend calls\ngot:\n%d", tb.sendCalls.Load())
			}
		}
	})

	t.Run("should pass the backend body through on success", func(t *testing.T) {
		tb := newTestBackend(t)
		tb.sendBody = `{"success":true,"message":"Mock email sent to a@b.com: Message from ChangeSet Demo","id":"email_1"}`

		rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodPost, "/send-email", `{"email":"a@b.com","message":"hi"}`)

		assertResponse(t, rec, http.StatusOK, tb.sendBody)
	})

	t.Run("should keep the backend status and error message", func(t *testing.T) {
		tb := newTestBackend(t)
		tb.sendStatus = http.StatusServiceUnavailable
		tb.sendBody = `{"error":"mailbox full","code":503}`

		rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodPost, "/send-email", `{"email":"a@b.com","message":"hi"}`)

		assertResponse(t, rec, http.StatusServiceUnavailable, `{"error":"mailbox full"}`)
	})

	t.Run("should substitute the fallback message", func(t *testing.T) {
		tb := newTestBackend(t)
		tb.sendStatus = http.StatusTooManyRequests
		tb.sendBody = `{"code":429}`

		rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodPost, "/send-email", `{"email":"a@b.com","message":"hi"}`)

		assertResponse(t, rec, http.StatusTooManyRequests, `{"error":"Failed to send email"}`)
	})

	t.Run("should answer 500 when the backend is unreachable", func(t *testing.T) {
		tb := newTestBackend(t)
		url := tb.server.URL
		tb.server.Close()

		rec := doRequest(t, newTestRouter(url), http.MethodPost, "/send-email", `{"email":"a@b.com","message":"hi"}`)

		assertResponse(t, rec, http.StatusInternalServerError, `{"error":"Internal server error"}`)
	})

	t.Run("should answer 500 on a malformed request body", func(t *testing.T) {
		tb := newTestBackend(t)

		rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodPost, "/send-email", `{"email":`)

		assertResponse(t, rec, http.StatusInternalServerError, `{"error":"Internal server error"}`)
	})

	t.Run("should treat a null body as missing fields", func(t *testing.T) {
		tb := newTestBackend(t)

		rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodPost, "/send-email", `null`)

		assertResponse(t, rec, http.StatusBadRequest, `{"error":"Email and message are required"}`)
		if tb.sendCalls.Load() != 0 {
			t.Fatalf("\nwanted:\n0 backend calls\ngot:\n%d", tb.sendCalls.Load())
		}
	})

	t.Run("should answer 500 on non-string fields", func(t *testing.T) {
		tb := newTestBackend(t)

		rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodPost, "/send-email", `{"email":42,"message":"hi"}`)

		assertResponse(t, rec, http.StatusInternalServerError, `{"error":"Internal server error"}`)
		if tb.sendCalls.Load() != 0 {
			t.Fatalf("\nwanted:\n0 backend calls\ngot:\n%d", tb.sendCalls.Load())
		}
	})
}

func TestRouter_BackendStatus(t *testing.T) {
	t.Run("should combine health and stats", func(t *testing.T) {
		tb := newTestBackend(t)

		rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodGet, "/backend-status", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusOK, rec.Code)
		}
		var got map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got["backendUrl"] != tb.server.URL {
			t.Fatalf("\nwanted:\n%s\ngot:\n%v", tb.server.URL, got["backendUrl"])
		}
		if got["health"] == nil || got["stats"] == nil {
			t.Fatalf("\nwanted:\nhealth and stats\ngot:\n%v", got)
		}
		if _, err := time.Parse(time.RFC3339, got["timestamp"].(string)); err != nil {
			t.Fatalf("\nwanted:\nRFC3339 timestamp\ngot:\n%v", got["timestamp"])
		}
	})

	t.Run("should answer 200 with null health when only health fails", func(t *testing.T) {
		tb := newTestBackend(t)
		tb.health = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodGet, "/backend-status", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusOK, rec.Code)
		}
		var got common.StatusSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if string(got.Health) != "null" {
			t.Fatalf("\nwanted:\nnull\ngot:\n%s", got.Health)
		}
		if !strings.Contains(string(got.Stats), `"total_emails_sent":1`) {
			t.Fatalf("\nwanted:\nstats\ngot:\n%s", got.Stats)
		}
	})

	t.Run("should answer 500 when a 2xx body is malformed", func(t *testing.T) {
		tb := newTestBackend(t)
		tb.stats = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"total_emails_sent":`))
		}

		rec := doRequest(t, newTestRouter(tb.server.URL), http.MethodGet, "/backend-status", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusInternalServerError, rec.Code)
		}
		var got common.StatusErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Error != common.ErrMsgFailedToFetchBackendState || got.Timestamp == "" {
			t.Fatalf("\nwanted:\nerror with timestamp\ngot:\n%+v", got)
		}
	})
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

func TestRouter_Healthcheck(t *testing.T) {
	tests := []struct {
		name   string
		pinger services.Pinger
		want   int
	}{
		{name: "no activity log", pinger: nil, want: http.StatusNoContent},
		{name: "activity log reachable", pinger: &fakePinger{}, want: http.StatusNoContent},
		{name: "activity log broken", pinger: &fakePinger{err: errors.New("database is locked")}, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ar := NewRouter(nil, nil, services.NewMonitoringService(tt.pinger), metrics.NewMetricsService(false, nil))

			rec := httptest.NewRecorder()
			ar.Healthcheck(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

			if rec.Code != tt.want {
				t.Fatalf("\nwanted:\n%d\ngot:\n%d", tt.want, rec.Code)
			}
		})
	}
}
