// Package httpserver exposes the triage pipeline over HTTP: the event
// webhook plus a liveness endpoint.
package httpserver

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rescam/phish-triage/internal/core"
	"go.uber.org/zap"
)

// Pipeline runs the triage pipeline for one inbound event payload.
type Pipeline interface {
	Process(ctx context.Context, raw []byte, contentType string) *core.Outcome
}

// Server serves the event webhook and health endpoints.
type Server struct {
	app      *fiber.App
	pipeline Pipeline
	logger   *zap.Logger
	addr     string
}

// NewServer creates a new HTTP server around the pipeline.
func NewServer(pipeline Pipeline, logger *zap.Logger, addr string) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())

	s := &Server{
		app:      app,
		pipeline: pipeline,
		logger:   logger,
		addr:     addr,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Post("/route/firestore-incoming-email", s.handleIncomingEmail)
	s.app.Get("/health", s.handleHealth)
}

// App exposes the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.addr))
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

// handleIncomingEmail accepts a document change notification in any of the
// supported encodings and runs the pipeline on it.
func (s *Server) handleIncomingEmail(c *fiber.Ctx) error {
	body := make([]byte, len(c.Body()))
	copy(body, c.Body())

	outcome := s.pipeline.Process(c.Context(), body, c.Get(fiber.HeaderContentType))
	return c.Status(outcome.Status).JSON(outcome)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}
