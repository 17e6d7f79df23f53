package server

import (
	"chat-relay/errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleError renders every error as {"error": "..."} with the status mapped
// from the domain sentinel. Internal failures never leak their cause.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := errors.HTTPStatus(err)
	message := err.Error()

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	}

	attrs := []any{
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"status", status,
		"error", err,
	}
	switch {
	case status >= http.StatusInternalServerError:
		s.log.Error("Request failed", attrs...)
		message = http.StatusText(status)
	case status == http.StatusNotFound || status == http.StatusBadRequest:
		s.log.Debug("Request rejected", attrs...)
	default:
		s.log.Info("Request rejected", attrs...)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Error: message})
	}
	if err != nil {
		s.log.Error("Failed to write error response", "error", err)
	}
}
