package common

import "encoding/json"

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// StatusSnapshot is the combined view of the backend returned by the status proxy.
// A nil Health or Stats is encoded as JSON null.
type StatusSnapshot struct {
	Health     json.RawMessage `json:"health"`
	Stats      json.RawMessage `json:"stats"`
	Timestamp  string          `json:"timestamp"`
	BackendURL string          `json:"backendUrl"`
}
