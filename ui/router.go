package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/db"
	"github.com/changeset-demo/changeset-demo/scene"
	"github.com/changeset-demo/changeset-demo/services"

	"github.com/go-chi/chi/v5"
	"github.com/justinas/nosurf"
	"github.com/rs/zerolog/log"
)

const (
	recentActivityLimit = 10
	maxPointerBodyBytes = 1024
)

type ActivityReader interface {
	SelectRecentActivity(ctx context.Context, limit int) ([]db.ActivityRecord, error)
}

type Router struct {
	sessionsService *services.SessionsService
	activity        ActivityReader // nil when the activity log is disabled
	secureCookies   bool
}

func NewRouter(sessionsService *services.SessionsService, activity ActivityReader, env string) *Router {
	return &Router{
		sessionsService: sessionsService,
		activity:        activity,
		secureCookies:   env == common.ProEnv,
	}
}

// NewRouter builds the page routes, mounted at "/". Every route sits behind CSRF protection.
func (ur *Router) NewRouter() http.Handler {
	router := chi.NewRouter()

	router.Get("/", ur.homePage)
	router.Route("/ui/pages/{pageId}", func(r chi.Router) {
		r.Use(pageSession(ur.sessionsService))
		r.Get("/status", ur.status)
		r.Get("/activity", ur.activityLog)
		r.Post("/send", ur.send)
		r.Post("/unmount", ur.unmount)
		r.Get("/scene", ur.sceneDescription)
		r.Get("/scene/frame", ur.sceneFrame)
		r.Post("/pointer", ur.pointerMove)
	})

	csrfHandler := nosurf.New(router)
	csrfHandler.SetBaseCookie(http.Cookie{
		Path:     "/",
		HttpOnly: true,
		Secure:   ur.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	csrfHandler.SetFailureHandler(http.HandlerFunc(csrfFailure))
	return csrfHandler
}

// homePage mounts a new page on every load, so a reload starts from a clean state.
func (ur *Router) homePage(w http.ResponseWriter, req *http.Request) {
	pageId, page, err := ur.sessionsService.CreateSession()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to mount home page")
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}
	homePage := page.(*HomePage)

	data := ur.templateData(req, pageId, homePage)
	data.Title = "ChangeSet Demo"
	RenderTemplate(w, "home.html", data)
}

func (ur *Router) status(w http.ResponseWriter, req *http.Request) {
	RenderTemplate(w, "status-poll", ur.templateData(req, chi.URLParam(req, "pageId"), homePageFrom(req)))
}

func (ur *Router) activityLog(w http.ResponseWriter, req *http.Request) {
	data := TemplateData{
		PageId:          chi.URLParam(req, "pageId"),
		ActivityEnabled: ur.activity != nil,
	}

	if ur.activity != nil {
		records, err := ur.activity.SelectRecentActivity(req.Context(), recentActivityLimit)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load recent activity")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		data.Activity = toActivityViews(records)
	}

	RenderTemplate(w, "activity", data)
}

func (ur *Router) send(w http.ResponseWriter, req *http.Request) {
	homePage := homePageFrom(req)

	err := req.ParseForm()
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse send form")
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	email, message := req.FormValue("email"), req.FormValue("message")
	err = homePage.Controller.Submit(req.Context(), email, message)

	data := ur.templateData(req, chi.URLParam(req, "pageId"), homePage)
	if err != nil {
		// the button is disabled in both cases, so this is a stale page or a double click
		if errors.Is(err, common.ErrSubmitInProgress) || errors.Is(err, common.ErrBackendNotHealthy) {
			log.Debug().Err(err).Msg("Submit rejected")
		} else {
			log.Error().Err(err).Msg("Submit failed")
		}
		data.State.Email = email
		data.State.Message = message
	} else if data.State.Response.Kind == common.SuccessResponseKind {
		w.Header().Set("HX-Trigger", "emailSent")
	}

	RenderTemplate(w, "form", data)
}

func (ur *Router) unmount(w http.ResponseWriter, req *http.Request) {
	ur.sessionsService.InvalidateSession(chi.URLParam(req, "pageId"))
	w.WriteHeader(http.StatusNoContent)
}

func (ur *Router) sceneDescription(w http.ResponseWriter, req *http.Request) {
	sendJsonResponse(w, http.StatusOK, homePageFrom(req).Scene.Describe())
}

func (ur *Router) sceneFrame(w http.ResponseWriter, req *http.Request) {
	sendJsonResponse(w, http.StatusOK, homePageFrom(req).Scene.Frame())
}

func (ur *Router) pointerMove(w http.ResponseWriter, req *http.Request) {
	var pointerReq pointerMoveRequest
	err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxPointerBodyBytes)).Decode(&pointerReq)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to decode pointer move")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if pointerReq.Width <= 0 || pointerReq.Height <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	homePageFrom(req).Pointers.Publish(scene.NormalizePointer(pointerReq.ClientX, pointerReq.ClientY, pointerReq.Width, pointerReq.Height))
	w.WriteHeader(http.StatusNoContent)
}

func (ur *Router) templateData(req *http.Request, pageId string, homePage *HomePage) TemplateData {
	state := homePage.Controller.State()
	return TemplateData{
		PageId:          pageId,
		CSRFToken:       nosurf.Token(req),
		State:           state,
		Indicator:       homePage.Indicator.View(state.BackendHealth),
		ActivityEnabled: ur.activity != nil,
	}
}

func toActivityViews(records []db.ActivityRecord) []ActivityView {
	views := make([]ActivityView, 0, len(records))
	for _, r := range records {
		view := ActivityView{
			Recipient:  r.Recipient,
			StatusCode: r.StatusCode,
			Outcome:    r.Outcome,
			At:         time.UnixMilli(r.CreatedAt).Local().Format(displayTimeLayout),
		}
		if r.Error != nil {
			view.Error = *r.Error
		}
		views = append(views, view)
	}
	return views
}

func csrfFailure(w http.ResponseWriter, req *http.Request) {
	log.Warn().Err(nosurf.Reason(req)).Str("path", req.URL.Path).Msg("CSRF check failed")
	http.Error(w, "Forbidden", http.StatusForbidden)
}

func sendJsonResponse(w http.ResponseWriter, httpCode int, payload interface{}) {
	respBody, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling response body")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	w.Write(respBody)
}
