// Package api exposes the bitrec codec over HTTP: schemas are registered
// into the registry and records are encoded and decoded by schema ID.
package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the full router for the server
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Health check (unprotected)
	r.Get("/health", s.metrics.InstrumentHandler("GET", "/health", s.handleHealth))

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(apiKeyMiddleware(s.config.APIKey, s.metrics))
		}

		// Schema registry
		r.Post("/schemas", s.metrics.InstrumentHandler("POST", "/api/v1/schemas", s.handleRegisterSchema))
		r.Get("/schemas", s.metrics.InstrumentHandler("GET", "/api/v1/schemas", s.handleListSchemas))
		r.Get("/schemas/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/schemas/{id}", s.handleGetSchema))
		r.Delete("/schemas/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/schemas/{id}", s.handleDeleteSchema))

		// Record codec
		r.Post("/schemas/{id}/encode", s.metrics.InstrumentHandler("POST", "/api/v1/schemas/{id}/encode", s.handleEncode))
		r.Post("/schemas/{id}/decode", s.metrics.InstrumentHandler("POST", "/api/v1/schemas/{id}/decode", s.handleDecode))
	})

	return r
}

// StartServer starts the HTTP server with all routes configured. It blocks
// until the listener fails.
func StartServer(registry SchemaRegistry, config ServerConfig) error {
	metrics := NewMetrics(prometheus.DefaultRegisterer)
	server := NewServer(registry, config, metrics)

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	log.Printf("bitrec API listening on %s", addr)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpServer.ListenAndServe()
}
