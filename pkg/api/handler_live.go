package api

import (
	echo "github.com/labstack/echo/v5"
)

// liveHandler handles GET /ws-live: hands the upgrade off to the live server,
// which authenticates the ?token= parameter and runs the session until the
// connection closes.
func (s *Server) liveHandler(c *echo.Context) error {
	return s.live.HandleConnection(c.Response(), c.Request())
}
