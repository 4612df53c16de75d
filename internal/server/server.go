// Package server exposes the export pipeline over HTTP.
//
// The API is deliberately small: POST /api/exports starts an export for the
// authenticated identity, GET /api/exports/{id} reports job state. Identity
// comes from a session token; --no-auth mode substitutes the mock local
// session for development.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/magpress/magpress/pkg/pipeline"
	"github.com/magpress/magpress/pkg/session"
)

// Options configures the server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// NoAuth disables session authentication. Every request runs as the
	// mock local identity.
	NoAuth bool

	// Render defaults applied when a request leaves them unset.
	RenderScale  float64
	ShiftRatio   float64
	FetchTimeout time.Duration
	AllowedFonts []string

	// Video defaults.
	VideoFPS      int
	VideoStrategy string

	// FFmpegPath overrides the ffmpeg binary for video exports.
	FFmpegPath string

	// Logger receives request and job logs. Defaults to log.Default().
	Logger *log.Logger
}

// Server serves the export API.
type Server struct {
	runner   *pipeline.Runner
	sessions session.Store
	jobs     *JobRegistry
	logger   *log.Logger
	noAuth   bool
	addr     string
	defaults Options

	// baseCtx outlives individual requests so async jobs survive their
	// originating request.
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// New creates a server around an export runner and a session store.
func New(runner *pipeline.Runner, sessions session.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		runner:     runner,
		sessions:   sessions,
		jobs:       NewJobRegistry(),
		logger:     logger,
		noAuth:     opts.NoAuth,
		addr:       opts.Addr,
		defaults:   opts,
		baseCtx:    ctx,
		cancelBase: cancel,
	}
}

// Handler builds the HTTP handler with middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withIdentity)
		r.Post("/exports", s.handleCreateExport)
		r.Get("/exports/{id}", s.handleGetExport)
	})

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // synchronous video exports are slow
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.cancelBase()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	s.cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// logRequests logs each request with method, path, status, and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
