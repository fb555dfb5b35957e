package ui

import (
	"context"
	"net/http"

	"github.com/changeset-demo/changeset-demo/services"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const homePageCtxKey ctxKey = iota

// pageSession middleware loads the home page a request belongs to.
// A page whose session is gone is sent back to "/", which mounts a fresh one.
func pageSession(sessionsService *services.SessionsService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			pageId := chi.URLParam(req, "pageId")

			page, ok := sessionsService.GetSession(pageId)
			if !ok {
				w.Header().Set("HX-Redirect", "/")
				w.WriteHeader(http.StatusGone)
				return
			}
			homePage, ok := page.(*HomePage)
			if !ok {
				w.Header().Set("HX-Redirect", "/")
				w.WriteHeader(http.StatusGone)
				return
			}

			ctx := context.WithValue(req.Context(), homePageCtxKey, homePage)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func homePageFrom(req *http.Request) *HomePage {
	return req.Context().Value(homePageCtxKey).(*HomePage)
}
