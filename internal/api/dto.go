// Package api implements the Fiber HTTP surface for TaskGate: decision
// requests, audit queries, taxonomy inspection, and the live decision stream.
package api

import (
	"time"

	"github.com/taskgate/taskgate/internal/connectors"
	"github.com/taskgate/taskgate/internal/intent"
	"github.com/taskgate/taskgate/internal/pipeline"
)

// DecisionRequest is the payload for POST /api/decisions.
type DecisionRequest struct {
	Prompt    string `json:"prompt"`
	Resource  string `json:"resource"`
	Operation string `json:"operation"`

	// Path and Execute control post-ALLOW execution through the connector
	// manager. Denied requests never execute.
	Path    string `json:"path,omitempty"`
	Payload []byte `json:"payload,omitempty"`
	Execute bool   `json:"execute,omitempty"`
}

// DecisionResponse returns the terminal decision for a request.
type DecisionResponse struct {
	RequestID string    `json:"request_id"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason"`
	TaskType  string    `json:"task_type,omitempty"`
	Persona   string    `json:"persona,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	Execution *connectors.Result `json:"execution,omitempty"`
}

func toDecisionResponse(d pipeline.Decision) DecisionResponse {
	return DecisionResponse{
		RequestID: d.RequestID,
		Outcome:   d.Outcome.String(),
		Reason:    string(d.Reason),
		TaskType:  string(d.Task),
		Persona:   d.Persona,
		Timestamp: d.Timestamp,
	}
}

// ClassifyRequest is the payload for POST /api/classify.
type ClassifyRequest struct {
	Prompt string `json:"prompt"`
}

// ClassifyResponse reports the extractor's candidates and the classifier's
// verdict without resolving a persona or recording anything.
type ClassifyResponse struct {
	Candidates []intent.Candidate `json:"candidates"`
	TaskType   string             `json:"task_type,omitempty"`
	Unknown    bool               `json:"unknown"`
}

// ErrorResponse is the JSON body for error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}
