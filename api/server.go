// Package api exposes the retrieval pipeline over HTTP.
//
// Endpoints:
//
//	POST /api/prompt  - run a search or chat request through a pipeline
//	GET  /api/status  - report registered plugins and pipeline defaults
//	GET  /health      - liveness probe
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	pluginx "github.com/kittipos/callroom/rag/plugin"
)

const (
	// DefaultAddr is the default listen address for the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout caps header reads so slow clients cannot pin
	// connections open.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. Chat
	// completions can take a while, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the pipeline REST API.
type Server struct {
	mux *http.ServeMux

	prompt *PromptHandler
	status *StatusHandler
	health *HealthHandler
}

// NewServer creates a server with all routes registered. registry may be nil
// when the kernel engine is not wired, in which case /api/status reports an
// empty plugin list.
func NewServer(runner Runner, registry *pluginx.Registry, info StatusInfo) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		prompt: NewPromptHandler(runner),
		status: NewStatusHandler(registry, info),
		health: NewHealthHandler(),
	}

	s.prompt.RegisterRoutes(mux)
	s.status.RegisterRoutes(mux)
	s.health.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery -> logging -> handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware, loggingMiddleware)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
