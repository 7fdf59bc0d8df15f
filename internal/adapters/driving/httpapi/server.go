// Package httpapi exposes question answering, ingestion and document
// management over JSON HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Ports holds the services the API calls into.
type Ports struct {
	Answer    driving.AnswerService
	Ingestion driving.IngestionService
	Documents driving.DocumentService
	Health    driving.HealthService
}

// Config controls authentication and rate limiting.
type Config struct {
	// APIKey enables bearer authentication when non-empty.
	APIKey string

	// RateLimitCapacity is the bucket size per user.
	RateLimitCapacity int

	// RateLimitRefill is tokens per second per user.
	RateLimitRefill float64
}

// ConfigFromSettings derives the API config from settings.
func ConfigFromSettings(s domain.ServerSettings) Config {
	return Config{
		APIKey:            s.APIKey,
		RateLimitCapacity: s.RateLimitCapacity,
		RateLimitRefill:   s.RateLimitRefill,
	}
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	ports   Ports
	cfg     Config
	limiter *RateLimiter
	log     *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(ports Ports, cfg Config, log *slog.Logger) (*Server, error) {
	if ports.Answer == nil || ports.Ingestion == nil || ports.Documents == nil || ports.Health == nil {
		return nil, errors.New("httpapi: all ports are required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		ports:   ports,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RateLimitCapacity, cfg.RateLimitRefill),
		log:     log,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/v1/health", s.handleHealth)

	// Authenticated, rate-limited endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey))
		}
		r.Use(RateLimitMiddleware(s.limiter))

		r.Post("/v1/qa/query", s.handleQuery)
		r.Post("/v1/ingest/upsert", s.handleUpsert)

		r.Get("/v1/documents", s.handleListDocuments)
		r.Get("/v1/documents/{docID}", s.handleGetDocument)
		r.Delete("/v1/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting http api", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down http api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
