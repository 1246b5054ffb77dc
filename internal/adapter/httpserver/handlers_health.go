package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saucecodee/praise/internal/platform/version"
)

const readinessProbeTimeout = 3 * time.Second

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool // a failing optional check degrades but does not fail readiness
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// handleReadiness runs every check and reports each result. Postgres is
// required; Redis only degrades the service since every Redis use has a
// fallback.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]string, len(s.healthChecks))
	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			checks[hc.Name] = err.Error()
			if hc.Optional {
				if code == http.StatusOK {
					status = "degraded"
				}
				continue
			}
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[hc.Name] = "ok"
	}

	if err := c.JSON(code, map[string]any{"status": status, "checks": checks}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
