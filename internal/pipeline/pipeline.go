// Package pipeline runs the per-request decision state machine:
// extract → classify → resolve → evaluate → record.
//
// Every request passes through the machine exactly once. Each failure branch
// terminates in a DENY with a specific reason code; no branch falls through
// to an implicit allow. The only blocking I/O is the extraction call, and no
// lock is held across it.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskgate/taskgate/internal/authz"
	"github.com/taskgate/taskgate/internal/classify"
	"github.com/taskgate/taskgate/internal/intent"
	"github.com/taskgate/taskgate/internal/taxonomy"
)

// Request is one inbound access request.
type Request struct {
	Prompt    string
	Resource  taxonomy.ResourceClass
	Operation taxonomy.Operation
}

// Decision is the immutable record of one request's full resolution.
type Decision struct {
	RequestID string                 `json:"request_id"`
	Prompt    string                 `json:"prompt"`
	Task      taxonomy.TaskType      `json:"task,omitempty"` // empty when classification failed
	Persona   string                 `json:"persona,omitempty"`
	Resource  taxonomy.ResourceClass `json:"resource"`
	Operation taxonomy.Operation     `json:"operation"`
	Outcome   authz.Outcome          `json:"outcome"`
	Reason    authz.Reason           `json:"reason"`
	Timestamp time.Time              `json:"timestamp"`
}

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool { return d.Outcome == authz.Allow }

// Recorder receives completed decisions. Append must never fail the request
// path; persistence errors are the recorder's to surface.
type Recorder interface {
	Append(Decision)
}

// Publisher broadcasts completed decisions to external consumers.
type Publisher interface {
	Publish(Decision)
}

// Pipeline holds the immutable collaborators shared by all requests. It is
// stateless across requests and safe for concurrent use.
type Pipeline struct {
	reg       *taxonomy.Registry
	extractor intent.Extractor
	policy    classify.Policy
	recorder  Recorder
	publisher Publisher // optional
}

// New creates a Pipeline. The publisher may be nil.
func New(reg *taxonomy.Registry, extractor intent.Extractor, policy classify.Policy, recorder Recorder, publisher Publisher) *Pipeline {
	return &Pipeline{
		reg:       reg,
		extractor: extractor,
		policy:    policy,
		recorder:  recorder,
		publisher: publisher,
	}
}

// Decide resolves one request to a terminal decision and records it.
//
// If ctx is cancelled before the decision completes, Decide returns the
// context error and records nothing: a partial decision is never appended.
// All other failure modes produce a recorded DENY, not an error.
func (p *Pipeline) Decide(ctx context.Context, req Request) (Decision, error) {
	d := Decision{
		RequestID: uuid.New().String(),
		Prompt:    req.Prompt,
		Resource:  req.Resource,
		Operation: req.Operation,
	}

	// Malformed enum values are rejected before any evaluation.
	if !taxonomy.ValidResource(req.Resource) || !taxonomy.ValidOperation(req.Operation) {
		return p.finish(ctx, d, authz.Denied(authz.ReasonInvalidRequest))
	}

	candidates, err := p.extractor.Extract(ctx, req.Prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Decision{}, ctxErr
		}
		if !errors.Is(err, intent.ErrExtractionFailed) {
			slog.Warn("extractor returned unexpected error", "error", err, "request_id", d.RequestID)
		}
		return p.finish(ctx, d, authz.Denied(authz.ReasonExtractionUnavailable))
	}

	task, ok := p.policy.Classify(candidates)
	if !ok {
		return p.finish(ctx, d, authz.Denied(authz.ReasonAmbiguousTask))
	}
	d.Task = task

	persona, err := p.reg.ResolvePersona(task)
	if err != nil {
		// A classified task with no binding is a configuration defect,
		// fatal to this request only.
		slog.Error("task has no persona binding", "task", task, "error", err)
		return p.finish(ctx, d, authz.Denied(authz.ReasonUnknownTaskType))
	}
	d.Persona = persona.ID

	return p.finish(ctx, d, authz.Evaluate(p.reg, persona.ID, req.Resource, req.Operation))
}

// finish stamps the decision, records it, and returns it. An abandoned
// request is never recorded.
func (p *Pipeline) finish(ctx context.Context, d Decision, res authz.Result) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	d.Outcome = res.Outcome
	d.Reason = res.Reason
	d.Timestamp = time.Now().UTC()

	p.recorder.Append(d)
	if p.publisher != nil {
		p.publisher.Publish(d)
	}

	slog.Info("decision",
		"request_id", d.RequestID,
		"task", d.Task,
		"persona", d.Persona,
		"resource", d.Resource,
		"operation", d.Operation,
		"outcome", d.Outcome.String(),
		"reason", d.Reason,
	)
	return d, nil
}
