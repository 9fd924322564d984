// Package api exposes the inbound HTTP boundary: it parses send
// requests from JSON or URL-encoded form parameters, builds and
// validates the core email model, and hands it to the dispatch layer.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/email-gateway/internal/dispatch"
	"github.com/shineum/email-gateway/internal/email"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// Sender dispatches a validated email through the failover protocol.
// It is satisfied by dispatch.Orchestrator; tests supply fakes.
type Sender interface {
	Send(ctx context.Context, e *email.Email, route string) (*dispatch.Result, error)
}

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	// DefaultFrom is the sender address used when a request does not
	// carry one. Optional.
	DefaultFrom string

	// Sender is the dispatch backend.
	Sender Sender

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// Server is the inbound HTTP server.
type Server struct {
	config ServerConfig
	logger *slog.Logger
	router chi.Router
}

// New creates a Server with its routes mounted.
func New(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{config: cfg, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Post("/email", s.handleSend)
	r.Get("/healthz", s.handleHealthz)

	s.router = r
	return s
}

// Handler returns the HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server and blocks until the context is
// cancelled, then drains in-flight requests for up to 30 seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.ListenAddr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.config.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// logRequests emits one structured log record per completed request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
