package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ossy/internal/adapters/config"
	"ossy/internal/api/health"
	"ossy/internal/api/web"
	"ossy/internal/metrics"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

// Server wraps the echo server with lifecycle management
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates the HTTP server with the UI, the JSON API, health probes and /metrics
func NewServer(cfg config.HTTPConfig, webHandler *web.Handler, healthHandler *health.Handler, log *logger.Logger) (*Server, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(web.RequestLogging(log))
	e.Use(web.HTTPMetrics())
	e.Use(web.Recover(log))

	webHandler.RegisterRoutes(e)

	// Health check endpoints (Kubernetes probes)
	e.GET("/health/live", echo.WrapHandler(http.HandlerFunc(healthHandler.HandleLiveness)))
	e.GET("/health/ready", echo.WrapHandler(http.HandlerFunc(healthHandler.HandleReadiness)))

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	log.Infof("HTTP server configured on %s", cfg.Addr)

	return &Server{
		echo: e,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}, nil
}

// Handler exposes the router, used by tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.echo.StartServer(s.httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.echo.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("✓ HTTP server stopped")
	return nil
}
