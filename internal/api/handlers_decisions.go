package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/taskgate/taskgate/internal/audit"
	"github.com/taskgate/taskgate/internal/authz"
	"github.com/taskgate/taskgate/internal/connectors"
	"github.com/taskgate/taskgate/internal/pipeline"
	"github.com/taskgate/taskgate/internal/taxonomy"
)

// CreateDecision runs the full decision pipeline for a request. A malformed
// resource class or operation resolves to DENY with reason invalid_request
// and a 400 status; all other outcomes return 200 with the decision body.
func (s *Server) CreateDecision(c *fiber.Ctx) error {
	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Prompt == "" {
		return fiber.NewError(fiber.StatusBadRequest, "prompt is required")
	}

	d, err := s.deps.Pipeline.Decide(c.UserContext(), pipeline.Request{
		Prompt:    req.Prompt,
		Resource:  taxonomy.ResourceClass(req.Resource),
		Operation: taxonomy.Operation(req.Operation),
	})
	if err != nil {
		// Only cancellation reaches here; the client is gone.
		return fiber.NewError(fiber.StatusServiceUnavailable, "request abandoned")
	}

	resp := toDecisionResponse(d)

	if d.Reason == authz.ReasonInvalidRequest {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	// Execute the call through the resource boundary only after ALLOW.
	if req.Execute && d.Allowed() && s.deps.Connectors != nil {
		result, execErr := s.deps.Connectors.Execute(c.UserContext(), connectors.Call{
			Resource:  d.Resource,
			Path:      req.Path,
			Operation: d.Operation,
			Payload:   req.Payload,
		})
		if execErr != nil {
			slog.Warn("post-allow execution failed", "request_id", d.RequestID, "error", execErr)
		} else {
			resp.Execution = &result
		}
	}

	return c.JSON(resp)
}

// ListDecisions queries the audit log. Filters: from/to (RFC3339), persona,
// outcome, after_seq, limit.
func (s *Server) ListDecisions(c *fiber.Ctx) error {
	var f audit.Filter

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid 'from' timestamp, use RFC3339 format")
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid 'to' timestamp, use RFC3339 format")
		}
		f.To = t
	}
	f.Persona = c.Query("persona")
	f.Outcome = c.Query("outcome")
	f.AfterSeq = uint64(c.QueryInt("after_seq", 0))
	f.Limit = c.QueryInt("limit", 100)

	recs, err := s.deps.Audit.Query(f)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to query audit log")
	}
	return c.JSON(recs)
}
