package common

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrMsgEmailAndMessageRequired   = "Email and message are required"
	ErrMsgFailedToSendEmail         = "Failed to send email"
	ErrMsgInternalServerError       = "Internal server error"
	ErrMsgFailedToFetchBackendState = "Failed to fetch backend status"
)

var (
	ErrEmailAndMessageRequired = &ProxyError{Status: http.StatusBadRequest, Message: ErrMsgEmailAndMessageRequired}
	ErrInternal                = &ProxyError{Status: http.StatusInternalServerError, Message: ErrMsgInternalServerError}

	ErrSubmitInProgress  = errors.New("a submission is already in progress")
	ErrBackendNotHealthy = errors.New("backend is not healthy")
	ErrSessionsClosed    = errors.New("sessions service is closed")
)

// ProxyError is an error that is reported to the caller of a proxy route as
// {"error": Message} with the Status HTTP code.
type ProxyError struct {
	Status  int
	Message string
}

func (pe *ProxyError) Error() string {
	return fmt.Sprintf("%d: %s", pe.Status, pe.Message)
}
