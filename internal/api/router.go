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
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Admin key exchange (no auth required)
		r.Post("/auth/token", s.handleToken)

		// WebSocket (token passed as query parameter, validated in handler;
		// browsers cannot set Authorization headers on WebSocket upgrades)
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Deployment settings and runtime status
			r.Get("/system", s.handleSystem)

			// Unit conversion helpers
			r.Get("/units", s.handleUnits)
			r.Post("/convert", s.handleConvert)
			r.Post("/dewpoint", s.handleDewPoint)

			// Sensor catalogue
			r.Route("/sensors", func(r chi.Router) {
				r.Get("/", s.handleListSensors)
				r.With(s.requireWrite).Post("/", s.handleCreateSensor)
				r.Get("/stats", s.handleSensorStats)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSensor)
					r.With(s.requireWrite).Patch("/", s.handleUpdateSensor)
					r.With(s.requireWrite).Delete("/", s.handleDeleteSensor)
					r.Get("/history", s.handleSensorHistory)
					r.Get("/metrics", s.handleSensorMetrics)
				})
			})

			// Latest normalised readings
			r.Get("/readings", s.handleReadings)

			// Bulk catalogue commissioning
			r.Route("/catalog", func(r chi.Router) {
				r.Use(s.requireWrite)
				r.Post("/parse", s.handleCatalogParse)
				r.Post("/import", s.handleCatalogImport)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
