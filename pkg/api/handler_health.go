package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/database"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status       string                 `json:"status"`
	Version      string                 `json:"version"`
	Database     *database.HealthStatus `json:"database"`
	LiveSessions int                    `json:"live_sessions"`
}

// healthHandler handles GET /health. Returns a minimal, safe response
// suitable for unauthenticated access: the database check plus the live
// session count. The automation system is deliberately not probed here so an
// external outage cannot make the orchestrator restart this process.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.dbClient.DB())

	status := healthStatusHealthy
	httpStatus := http.StatusOK
	if err != nil {
		status = healthStatusUnhealthy
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, &HealthResponse{
		Status:       status,
		Version:      version.Full(),
		Database:     dbHealth,
		LiveSessions: s.live.ActiveSessions(),
	})
}
