// ABOUTME: HTTP server assembly for the shelf API
// ABOUTME: Wires routes, request logging, CORS, and optional bearer auth

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/2389/shelf/internal/config"
	"github.com/2389/shelf/internal/store"
)

// Server exposes the record store over HTTP.
type Server struct {
	store  store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// New creates an API server backed by the given store.
func New(st store.Store, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  st,
		cfg:    cfg,
		logger: logger.With("component", "api"),
	}
}

// Handler builds the complete HTTP handler: routes wrapped in middleware.
// Record routes require a bearer token when auth.jwt_secret is configured;
// /healthz is always open so probes work unauthenticated.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	recordRoutes := s.recordMiddleware()
	mux.Handle("/api/records", recordRoutes(http.HandlerFunc(s.handleRecords)))
	mux.Handle("/api/records/", recordRoutes(http.HandlerFunc(s.handleRecordRoutes)))
	mux.HandleFunc("/healthz", s.handleHealthz)

	var handler http.Handler = mux
	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	return handler
}

// recordMiddleware returns the middleware applied to record routes.
func (s *Server) recordMiddleware() func(http.Handler) http.Handler {
	if s.cfg != nil && s.cfg.Auth.JWTSecret != "" {
		verifier := NewJWTVerifier([]byte(s.cfg.Auth.JWTSecret))
		return bearerAuthMiddleware(verifier)
	}
	return func(next http.Handler) http.Handler { return next }
}

// corsMiddleware applies CORS policy from configuration. Without configured
// origins no cross-origin access is granted.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	var origins []string
	if s.cfg != nil {
		origins = s.cfg.CORS.AllowedOrigins
	}
	if len(origins) == 0 {
		return next
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(next)
}

// loggingMiddleware logs one line per request with status and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
