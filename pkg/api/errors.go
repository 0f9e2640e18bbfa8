package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/actions"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/auth"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/webhook"
)

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(err error) *echo.HTTPError {
	if errors.Is(err, auth.ErrMissingFields) {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password required")
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if errors.Is(err, auth.ErrEmailTaken) {
		return echo.NewHTTPError(http.StatusConflict, "email already exists")
	}
	if errors.Is(err, actions.ErrUnknownAction) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errors.Is(err, webhook.ErrUnknownTarget) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// An automation rejection relays the upstream status and body verbatim so
	// the dialog can show what the workflow said.
	var upstream *webhook.UpstreamError
	if errors.As(err, &upstream) {
		return echo.NewHTTPError(upstream.Status, upstream.Error())
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
