package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Registry (snapshot read + mutations)
		r.Get("/registry", s.handleGetRegistry)
		r.Post("/registry", s.handlePostRegistry)

		// Moonraker proxy endpoints
		r.Route("/printer", func(r chi.Router) {
			r.Get("/telemetry", s.handleTelemetry)
			r.Post("/control", s.handleControl)
			r.Get("/console", s.handleConsole)
			r.Get("/macros", s.handleMacros)
		})

		// Per-printer state transition history
		r.Get("/printers/{id}/history", s.handleHistory)

		// WebSocket live updates
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
