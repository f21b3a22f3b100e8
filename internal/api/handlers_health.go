package api

import (
	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports liveness and audit durability. The service stays "ok"
// through audit persistence failures (decisions remain correct), but the
// failure count is surfaced so operators can alert on durability loss.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if !s.deps.Audit.Healthy() {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":               status,
		"audit_write_failures": s.deps.Audit.FailureCount(),
	})
}
