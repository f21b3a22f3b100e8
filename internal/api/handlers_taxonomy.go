package api

import (
	"github.com/gofiber/fiber/v2"
)

// ListTasks returns the closed task type catalog.
func (s *Server) ListTasks(c *fiber.Ctx) error {
	return c.JSON(s.deps.Registry.Tasks())
}

// ListPersonas returns all personas with their grant tables.
func (s *Server) ListPersonas(c *fiber.Ctx) error {
	return c.JSON(s.deps.Registry.Personas())
}

// GetPersonaGrants returns the ordered grants for one persona.
func (s *Server) GetPersonaGrants(c *fiber.Ctx) error {
	id := c.Params("id")
	if !s.deps.Registry.HasPersona(id) {
		return fiber.NewError(fiber.StatusNotFound, "persona not found")
	}
	return c.JSON(s.deps.Registry.GrantsFor(id))
}

// ClassifyPrompt is a dry run: it extracts and classifies without resolving
// a persona, evaluating permissions, or recording anything.
func (s *Server) ClassifyPrompt(c *fiber.Ctx) error {
	var req ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Prompt == "" {
		return fiber.NewError(fiber.StatusBadRequest, "prompt is required")
	}

	cands, err := s.deps.Extractor.Extract(c.UserContext(), req.Prompt)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "extraction unavailable")
	}

	resp := ClassifyResponse{Candidates: cands}
	if task, ok := s.deps.Policy.Classify(cands); ok {
		resp.TaskType = string(task)
	} else {
		resp.Unknown = true
	}
	return c.JSON(resp)
}
