package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/leaseworks/lease-engine/internal/infrastructure/cache"
	"github.com/leaseworks/lease-engine/internal/infrastructure/config"
)

// ServerDeps are the wired dependencies the HTTP server mounts.
type ServerDeps struct {
	Services    Services
	Logger      *slog.Logger
	Tracer      trace.Tracer
	RateLimiter cache.RateLimiter
	Health      map[string]HealthChecker
}

// Server owns the HTTP listener and its routes.
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer assembles the mux, middleware, and listener.
func NewServer(cfg *config.Config, deps ServerDeps) *Server {
	mux := http.NewServeMux()

	handler := NewHandler(deps.Services, deps.Logger)
	handler.RegisterRoutes(mux)

	mux.Handle("GET /healthz", NewHealthHandler(deps.Health))
	mux.Handle("GET /metrics", promhttp.Handler())

	chain := NewChain(
		RecoveryMiddleware(deps.Logger),
		RequestIDMiddleware(),
		SecurityHeadersMiddleware(),
		RequestLoggingMiddleware(deps.Logger),
		TracingMiddleware(deps.Tracer),
		RateLimitMiddleware(deps.RateLimiter, cfg.Security.RateLimit, deps.Logger),
	)

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      chain.Then(mux),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: deps.Logger,
	}
}

// Run serves until ctx is canceled, then drains in-flight requests within
// the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
