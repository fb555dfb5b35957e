package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/changeset-demo/changeset-demo/backend"
	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/db"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type EmailBackend interface {
	SendEmail(ctx context.Context, req common.BackendSendRequest) (*backend.Response, error)
}

type ActivityRecorder interface {
	InsertActivity(ctx context.Context, record *db.ActivityRecord) error
}

// EmailService forwards send requests to the backend and normalizes its answers.
type EmailService struct {
	backend  EmailBackend
	activity ActivityRecorder // nil when the activity log is disabled
	subject  string
}

func NewEmailService(emailBackend EmailBackend, activity ActivityRecorder, subject string) *EmailService {
	return &EmailService{
		backend:  emailBackend,
		activity: activity,
		subject:  subject,
	}
}

// Forward validates req, sends it to the backend and returns the backend's JSON body untouched on success.
// Every failure is returned as *common.ProxyError.
func (es *EmailService) Forward(ctx context.Context, req common.EmailRequest) ([]byte, error) {
	if req.Email == "" || req.Message == "" {
		log.Warn().Msg("send request without email or message")
		es.record(ctx, req.Email, 400, common.InvalidOutcome, common.ErrMsgEmailAndMessageRequired)
		return nil, common.ErrEmailAndMessageRequired
	}

	resp, err := es.backend.SendEmail(ctx, common.BackendSendRequest{
		To:      req.Email,
		Subject: es.subject,
		Body:    req.Message,
	})
	if err != nil {
		log.Error().Err(err).Msg("error sending email")
		es.record(ctx, req.Email, 500, common.FailedOutcome, err.Error())
		return nil, common.ErrInternal
	}

	if !resp.OK() {
		msg, ok := backendErrorMessage(resp.Body)
		if !ok {
			log.Error().Int("status", resp.StatusCode).Msg("backend error response is not valid JSON")
			es.record(ctx, req.Email, 500, common.FailedOutcome, "malformed backend error response")
			return nil, common.ErrInternal
		}
		log.Warn().Int("status", resp.StatusCode).Str("error", msg).Msg("backend rejected email")
		es.record(ctx, req.Email, resp.StatusCode, common.RejectedOutcome, msg)
		return nil, &common.ProxyError{Status: resp.StatusCode, Message: msg}
	}

	if !json.Valid(resp.Body) {
		log.Error().Int("status", resp.StatusCode).Msg("backend success response is not valid JSON")
		es.record(ctx, req.Email, 500, common.FailedOutcome, "malformed backend response")
		return nil, common.ErrInternal
	}

	es.record(ctx, req.Email, resp.StatusCode, common.SentOutcome, "")
	return resp.Body, nil
}

// SendEmail answers the same way POST /api/send-email does, for callers in the same process.
// An error is returned only when ctx ended, as no answer could be delivered then.
func (es *EmailService) SendEmail(ctx context.Context, req common.EmailRequest) (*common.SendResult, error) {
	body, err := es.Forward(ctx, req)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil {
		return &common.SendResult{StatusCode: 200, Body: body}, nil
	}

	pe, ok := err.(*common.ProxyError)
	if !ok {
		pe = common.ErrInternal
	}
	errBody, marshalErr := json.Marshal(common.ErrorResponse{Error: pe.Message})
	if marshalErr != nil {
		return nil, marshalErr
	}
	return &common.SendResult{StatusCode: pe.Status, Body: errBody}, nil
}

// backendErrorMessage extracts "error" from a backend error body.
// ok is false when the body cannot be read as a JSON value at all.
func backendErrorMessage(body []byte) (string, bool) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}

	switch p := payload.(type) {
	case nil:
		return "", false
	case map[string]any:
		if msg, isString := p["error"].(string); isString && msg != "" {
			return msg, true
		}
	}
	return common.ErrMsgFailedToSendEmail, true
}

func (es *EmailService) record(ctx context.Context, recipient string, statusCode int, outcome string, errText string) {
	if es.activity == nil {
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate activity ID")
		return
	}

	record := &db.ActivityRecord{
		Id:         id.String(),
		Recipient:  recipient,
		StatusCode: statusCode,
		Outcome:    outcome,
		CreatedAt:  time.Now().UnixMilli(),
	}
	if errText != "" {
		record.Error = &errText
	}

	// the activity log must not change what the caller gets back
	if err := es.activity.InsertActivity(context.WithoutCancel(ctx), record); err != nil {
		log.Warn().Err(err).Msg("failed to record send activity")
	}
}
