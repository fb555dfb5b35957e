package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/metrics"
	"github.com/changeset-demo/changeset-demo/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	SendEmailRoute     = "/api/send-email"
	BackendStatusRoute = "/api/backend-status"

	maxRequestBodyBytes = 64 * 1024
)

type Router struct {
	emailService      *services.EmailService
	statusService     *services.StatusService
	monitoringService *services.MonitoringService
	metricsService    metrics.Service
}

func NewRouter(emailService *services.EmailService, statusService *services.StatusService, monitoringService *services.MonitoringService, metricsService metrics.Service) *Router {
	return &Router{
		emailService:      emailService,
		statusService:     statusService,
		monitoringService: monitoringService,
		metricsService:    metricsService,
	}
}

// NewRouter builds the routes mounted under /api.
func (ar *Router) NewRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Post("/send-email", ar.sendEmail)
	router.Get("/backend-status", ar.backendStatus)

	return router
}

func (ar *Router) sendEmail(w http.ResponseWriter, req *http.Request) {
	var emailReq common.EmailRequest
	err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBodyBytes)).Decode(&emailReq)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		ar.sendResponseFromError(w, SendEmailRoute, common.ErrInternal)
		return
	}

	body, err := ar.emailService.Forward(req.Context(), emailReq)
	if err != nil {
		ar.sendResponseFromError(w, SendEmailRoute, err)
		return
	}
	ar.sendRawJsonResponse(w, SendEmailRoute, http.StatusOK, body)
}

func (ar *Router) backendStatus(w http.ResponseWriter, req *http.Request) {
	snapshot, err := ar.statusService.Snapshot(req.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error fetching backend status")
		ar.sendJsonResponse(w, BackendStatusRoute, http.StatusInternalServerError, common.StatusErrorResponse{
			Error:     common.ErrMsgFailedToFetchBackendState,
			Timestamp: ar.statusService.Timestamp(),
		})
		return
	}
	ar.sendJsonResponse(w, BackendStatusRoute, http.StatusOK, snapshot)
}

// Healthcheck reports on this server, not on the email backend.
func (ar *Router) Healthcheck(w http.ResponseWriter, req *http.Request) {
	if !ar.monitoringService.IsHealthy(req.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ar *Router) sendJsonResponse(w http.ResponseWriter, route string, httpCode int, payload interface{}) {
	respBody, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling response body")
		ar.metricsService.IncProxyRequestsTotal(route, http.StatusInternalServerError)
		sendInternalErrorResponse(w)
		return
	}
	ar.sendRawJsonResponse(w, route, httpCode, respBody)
}

func (ar *Router) sendRawJsonResponse(w http.ResponseWriter, route string, httpCode int, respBody []byte) {
	ar.metricsService.IncProxyRequestsTotal(route, httpCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	w.Write(respBody)
}

func (ar *Router) sendResponseFromError(w http.ResponseWriter, route string, err error) {
	var pe *common.ProxyError
	if errors.As(err, &pe) {
		ar.sendJsonResponse(w, route, pe.Status, common.ErrorResponse{Error: pe.Message})
	} else {
		ar.sendJsonResponse(w, route, http.StatusInternalServerError, common.ErrorResponse{Error: common.ErrMsgInternalServerError})
	}
}
