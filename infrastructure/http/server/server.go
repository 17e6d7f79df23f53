package server

import (
	"chat-relay/contract"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// LiveChannel upgrades an authenticated request into a live event channel.
type LiveChannel interface {
	Handle(c echo.Context) error
}

// Services groups the application services exposed over HTTP.
type Services struct {
	Auth   services.IAuthService
	Chat   services.IChatService
	Groups services.IGroupService
	Files  services.IFileService
}

type Server struct {
	echo     *echo.Echo
	log      *slog.Logger
	verifier contract.TokenVerifier
	services Services
	live     LiveChannel
	registry contract.IRegistry
	gatherer prometheus.Gatherer
	maxBody  int64
}

func NewServer(log *slog.Logger,
	verifier contract.TokenVerifier,
	svc Services,
	live LiveChannel,
	registry contract.IRegistry,
	gatherer prometheus.Gatherer,
	maxUploadSize int64) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		log:      log,
		verifier: verifier,
		services: svc,
		live:     live,
		registry: registry,
		gatherer: gatherer,
		maxBody:  maxUploadSize,
	}
	e.HTTPErrorHandler = s.handleError
	s.registerRoutes()
	return s
}

// Handler exposes the router, used by tests mounting the server on httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks until the server is shut down. A graceful shutdown is not an error.
func (s *Server) Start(addr string) error {
	s.log.Info("Starting HTTP server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
