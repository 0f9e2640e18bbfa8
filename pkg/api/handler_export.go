package api

import (
	"fmt"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// exportStatsHandler handles GET /export/stats: per-table counts and the
// purge horizon for the export banner.
func (s *Server) exportStatsHandler(c *echo.Context) error {
	stats, err := s.export.Stats(c.Request().Context())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// exportDownloadHandler handles GET /export/download: streams the ZIP
// archive directly into the response.
func (s *Server) exportDownloadHandler(c *echo.Context) error {
	if user := currentUser(c); user != nil {
		slog.Info("Export requested", "user", user.Email)
	}

	resp := c.Response()
	resp.Header().Set("Content-Type", "application/zip")
	resp.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", s.export.Filename()))

	return s.export.WriteArchive(c.Request().Context(), resp)
}
