package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/actions"
)

type queryRequest struct {
	Action string         `json:"action"`
	Params actions.Params `json:"params"`
}

// queryHandler handles POST /db-query: runs one named action from the fixed
// registry and returns its rows.
func (s *Server) queryHandler(c *echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Action == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "action is required")
	}

	rows, err := s.actions.Execute(c.Request().Context(), req.Action, req.Params)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, rows)
}
