package server

import (
	"chat-relay/auth"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// multipart framing on top of the attachment itself
const uploadOverhead = 64 << 10

func (s *Server) registerRoutes() {
	s.echo.Use(s.requestLogger())
	s.echo.Use(middleware.Recover())

	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	s.echo.POST("/register", s.handleRegister)
	s.echo.POST("/login", s.handleLogin)

	// The live channel authenticates itself so that a bad token is refused before the upgrade.
	s.echo.GET("/ws", s.live.Handle)

	protected := s.echo.Group("", auth.Middleware(s.verifier))
	protected.GET("/messages", s.handleListMessages)
	protected.POST("/messages", s.handleSendDirect)
	protected.GET("/messages/search", s.handleSearch)
	protected.POST("/groups", s.handleCreateGroup)
	protected.GET("/groups", s.handleListGroups)
	protected.POST("/groups/:groupId/messages", s.handleSendGroup)
	protected.GET("/groups/:groupId/messages", s.handleListGroupMessages)
	protected.GET("/file/:filename", s.handleDownload)

	upload := []echo.MiddlewareFunc{}
	if s.maxBody > 0 {
		upload = append(upload, middleware.BodyLimit(fmt.Sprintf("%dB", s.maxBody+uploadOverhead)))
	}
	protected.POST("/upload", s.handleUpload, upload...)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			s.log.Debug("Request", attrs...)
			return nil
		},
	})
}
