package common

import (
	"time"
)

// HealthState is the backend health as seen by the home page.
type HealthState string

const (
	HealthHealthy     HealthState = "healthy"
	HealthUnhealthy   HealthState = "unhealthy"
	HealthChecking    HealthState = "checking"
	HealthUnreachable HealthState = "unreachable"
)

// EmailRequest is the body accepted by the send-email proxy.
type EmailRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// BackendSendRequest is the body the send-email proxy forwards to the backend.
type BackendSendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// BackendStats are the counters reported by the backend's /stats endpoint.
type BackendStats struct {
	TotalEmailsSent  int64      `json:"total_emails_sent"`
	SuccessfulEmails int64      `json:"successful_emails"`
	FailedEmails     int64      `json:"failed_emails"`
	LastEmailSent    *time.Time `json:"last_email_sent,omitempty"`
	Uptime           string     `json:"uptime"`
}

// Equal compares stats by value, including the optional last send time.
func (bs *BackendStats) Equal(other *BackendStats) bool {
	if bs == nil || other == nil {
		return bs == other
	}
	if bs.TotalEmailsSent != other.TotalEmailsSent ||
		bs.SuccessfulEmails != other.SuccessfulEmails ||
		bs.FailedEmails != other.FailedEmails ||
		bs.Uptime != other.Uptime {
		return false
	}
	if bs.LastEmailSent == nil || other.LastEmailSent == nil {
		return bs.LastEmailSent == other.LastEmailSent
	}
	return bs.LastEmailSent.Equal(*other.LastEmailSent)
}

// SendResult is what the send-email proxy answered: the HTTP status and the raw JSON body.
type SendResult struct {
	StatusCode int
	Body       []byte
}

func (sr *SendResult) OK() bool {
	return sr.StatusCode >= 200 && sr.StatusCode < 300
}

// ResponseKind tags the home page response message.
type ResponseKind int

const (
	NoResponseKind ResponseKind = iota
	SuccessResponseKind
	ErrorResponseKind
)

// ResponseMessage is the transient notice shown under the form.
type ResponseMessage struct {
	Text string
	Kind ResponseKind
}

func (rm ResponseMessage) IsError() bool {
	return rm.Kind == ErrorResponseKind
}
