// Package server serves Violin SuperPlots over HTTP.
//
// The routes are:
//
//	GET  /                   upload form
//	POST /api/render         multipart upload, returns the plot
//	POST /api/stats          multipart upload, returns the comparison as JSON
//	GET  /api/reports/{id}   posthoc matrix of an earlier render
//	GET  /healthz            liveness
//	GET  /version            build information
//
// Uploads are rendered with the same pipeline as the CLI. When a Redis URL is
// configured, rendered artifacts, statistics and reports are shared between
// instances.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/superviolin/pkg/cache"
	"github.com/matzehuels/superviolin/pkg/pipeline"
)

// keyPrefix scopes cache keys in a shared Redis.
const keyPrefix = "superviolin:v1:"

// reportTTL is how long a posthoc report stays downloadable.
const reportTTL = time.Hour

// Server handles plot requests.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	logger *log.Logger
	router *chi.Mux
}

// New creates a server. It connects to Redis when cfg.RedisURL is set; an
// unreachable Redis is an error. Without Redis, entries live in a file cache
// under the system temp directory.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload << 20
	}

	var c cache.Cache
	if cfg.RedisURL == "" {
		fc, err := cache.NewFileCache(filepath.Join(os.TempDir(), "superviolin-server"))
		if err != nil {
			return nil, fmt.Errorf("create cache: %w", err)
		}
		c = fc
	} else {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		c = rc
		logger.Info("using redis cache", "ttl", cfg.CacheTTL)
	}
	c = cache.WithTTL(c, cfg.CacheTTL)

	return NewWithRunner(cfg, pipeline.NewRunner(c, cache.NewScopedKeyer(nil, keyPrefix), logger), logger), nil
}

// NewWithRunner creates a server around an existing runner.
func NewWithRunner(cfg Config, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload << 20
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestID)
	s.router.Use(s.observe)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/version", s.handleVersion)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/render", s.handleRender)
		r.Post("/stats", s.handleStats)
		r.Get("/reports/{id}", s.handleReport)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the cache connection.
func (s *Server) Close() error {
	return s.runner.Close()
}
