package ui

import (
	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/services"
)

type TemplateData struct {
	Title     string
	PageId    string
	CSRFToken string
	State     services.HomeState
	Indicator IndicatorView
	// Activity specific data
	ActivityEnabled bool
	Activity        []ActivityView
}

func (td TemplateData) Stats() *common.BackendStats {
	return td.State.BackendStats
}

type ActivityView struct {
	Recipient  string
	StatusCode int
	Outcome    string
	Error      string
	At         string
}

// pointerMoveRequest is a pointer position in the page's viewport, as reported by the browser.
type pointerMoveRequest struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}
