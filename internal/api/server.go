package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/taskgate/taskgate/internal/audit"
	"github.com/taskgate/taskgate/internal/classify"
	"github.com/taskgate/taskgate/internal/connectors"
	"github.com/taskgate/taskgate/internal/intent"
	"github.com/taskgate/taskgate/internal/pipeline"
	"github.com/taskgate/taskgate/internal/taxonomy"
)

// Deps bundles the collaborators the HTTP surface exposes.
type Deps struct {
	Registry   *taxonomy.Registry
	Pipeline   *pipeline.Pipeline
	Extractor  intent.Extractor
	Policy     classify.Policy
	Audit      *audit.Log
	Connectors *connectors.Manager

	// AuthSecret enables JWT bearer auth on the /api group when non-empty.
	AuthSecret string
}

// Server holds dependencies for the HTTP API.
type Server struct {
	App  *fiber.App
	deps Deps
}

// NewServer creates a Fiber app with middleware and registers all routes.
func NewServer(deps Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "TaskGate API",
		ErrorHandler: globalErrorHandler,
	})

	// Middleware.
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(requestLogger())

	s := &Server{App: app, deps: deps}
	s.registerRoutes()
	return s
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	slog.Info("starting HTTP server", "addr", addr)
	return s.App.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	slog.Info("shutting down HTTP server")
	return s.App.Shutdown()
}
