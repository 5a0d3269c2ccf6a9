package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessCheckTimeout = 5 * time.Second

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "alive",
		"uptime": s.clock.Since(s.startTime).String(),
	})
}

// handleReadiness probes every registered backing service. The first failure
// renders the instance not ready.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessCheckTimeout)
	defer cancel()

	for _, check := range s.healthChecks {
		if err := check.Check(ctx); err != nil {
			slog.Error("readiness check failed", "check", check.Name, "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":       "unhealthy",
				"failed_check": check.Name,
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
