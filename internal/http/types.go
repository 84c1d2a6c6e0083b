package http

import (
	"github.com/fyrsmithlabs/mentord/internal/memory"
	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
	"github.com/fyrsmithlabs/mentord/internal/telemetry"
	"github.com/fyrsmithlabs/mentord/internal/tracelog"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Version   string                  `json:"version,omitempty"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}

// SubmitRequest is the request body for POST /api/v1/submit.
// Data is base64 encoded in JSON.
type SubmitRequest struct {
	Mode     orchestrator.Mode `json:"mode"`
	Text     string            `json:"text,omitempty"`
	Data     []byte            `json:"data,omitempty"`
	MIMEType string            `json:"mimeType,omitempty"`
}

// ReviewRequest is the request body for POST /api/v1/review/resolve.
type ReviewRequest struct {
	Text string `json:"text"`
}

// PreferencesRequest is the request body for PUT /api/v1/preferences.
type PreferencesRequest struct {
	ExplanationLevel orchestrator.ExplanationLevel `json:"explanationLevel"`
}

// PreferencesResponse is the response body for PUT /api/v1/preferences.
type PreferencesResponse struct {
	ExplanationLevel orchestrator.ExplanationLevel `json:"explanationLevel"`
}

// TraceResponse is the response body for GET /api/v1/trace.
type TraceResponse struct {
	Entries []tracelog.Entry `json:"entries"`
}

// MemoryResponse is the response body for GET /api/v1/memory.
type MemoryResponse struct {
	Items []memory.Item `json:"items"`
}

// ErrorResponse is returned for pipeline failures. Session is the state after the failure.
type ErrorResponse struct {
	Error   string                     `json:"error"`
	Kind    string                     `json:"kind,omitempty"`
	Session *orchestrator.SessionState `json:"session,omitempty"`
}
