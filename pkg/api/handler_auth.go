package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// signupHandler handles POST /auth/signup.
func (s *Server) signupHandler(c *echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, err := s.users.Signup(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, sess)
}

// loginHandler handles POST /auth/login.
func (s *Server) loginHandler(c *echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, err := s.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, sess)
}

// logoutHandler handles POST /auth/logout. Tokens are stateless; the client
// discards its copy and this endpoint just acknowledges.
func (s *Server) logoutHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
