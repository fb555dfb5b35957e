package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/changeset-demo/changeset-demo/common"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

var (
	internalErrorRespBody []byte
)

func init() {
	var err error
	internalErrorRespBody, err = json.Marshal(common.ErrorResponse{Error: common.ErrMsgInternalServerError})
	if err != nil {
		panic(err)
	}
}

// RequestLogger logs every request with its status, size and duration.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	withLogger := hlog.NewHandler(logger)
	withAccessLog := hlog.AccessHandler(func(req *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(req).Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("request_id", middleware.GetReqID(req.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request completed")
	})

	return func(next http.Handler) http.Handler {
		return withLogger(withAccessLog(next))
	}
}

func sendInternalErrorResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(internalErrorRespBody)
}
