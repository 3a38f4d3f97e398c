// Package server exposes the resolved jobs and their stats over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/jobrun/internal/store"
	"github.com/me/jobrun/pkg/model"
)

// Version is reported by the health and discovery endpoints.
const Version = "0.1.0"

// Server is the read-only jobrun REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	startTime time.Time
	conf      model.Conf
	store     store.Store
}

// New creates a new Server with all routes registered.
// conf must already be resolved; st may be nil when no stats are available.
func New(conf model.Conf, st store.Store, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		startTime: time.Now(),
		conf:      conf,
		store:     st,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(accessLog(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Get("/{name}", s.handleGetJob)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", s.handleStats)
			r.Get("/table", s.handleStatsTable)
			r.Get("/{name}/history", s.handleStatsHistory)
		})
	})
}
