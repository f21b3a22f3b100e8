package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) registerRoutes() {
	// Health check (unauthenticated).
	s.App.Get("/health", s.HealthCheck)

	api := s.App.Group("/api")
	if s.deps.AuthSecret != "" {
		api.Use(authRequired(s.deps.AuthSecret))
	}

	// Decisions.
	api.Post("/decisions", s.CreateDecision)
	api.Get("/decisions", s.ListDecisions)

	// Dry-run classification (no persona resolution, no audit record).
	api.Post("/classify", s.ClassifyPrompt)

	// Taxonomy inspection (read-only).
	taxo := api.Group("/taxonomy")
	taxo.Get("/tasks", s.ListTasks)
	taxo.Get("/personas", s.ListPersonas)
	taxo.Get("/personas/:id/grants", s.GetPersonaGrants)

	// WebSocket decision stream.
	s.App.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.App.Get("/ws/decisions", websocket.New(s.StreamDecisions))
}
