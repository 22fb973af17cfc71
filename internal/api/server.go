// Package api serves the bridge's status and metrics endpoints.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"k1bridge/internal/bridge"
)

// Server exposes read-only operational state over HTTP.
type Server struct {
	router *chi.Mux
	bridge *bridge.Bridge
	logger *log.Logger
}

// NewServer creates the status server for a running bridge.
func NewServer(b *bridge.Bridge, logger *log.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		bridge: b,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.bridge.Status()); err != nil {
		s.logger.Printf("Failed to encode status: %v", err)
	}
}
