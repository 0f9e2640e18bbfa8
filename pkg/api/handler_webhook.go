package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

type webhookRequest struct {
	Target string         `json:"target"`
	Params map[string]any `json:"params"`
}

// webhookHandler handles POST /proxy-n8n: forwards a generation request to
// the automation system under the configured target path.
func (s *Server) webhookHandler(c *echo.Context) error {
	var req webhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target is required")
	}

	body, err := s.webhook.Trigger(c.Request().Context(), req.Target, req.Params)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, body)
}
