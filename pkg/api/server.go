// Package api is the HTTP surface of the dashboard backend: auth, the action
// registry, the automation webhook proxy, export, health, and the live
// WebSocket endpoint.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/actions"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/auth"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/database"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/export"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/live"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/webhook"
)

// Server wires the service layer into HTTP routes.
type Server struct {
	echo *echo.Echo
	http *http.Server

	dbClient *database.Client
	users    *auth.UserService
	jwt      *auth.JWTService
	actions  *actions.Registry
	webhook  *webhook.Client
	export   *export.Service
	live     *live.Server
}

// NewServer creates the API server and registers all routes.
func NewServer(
	dbClient *database.Client,
	users *auth.UserService,
	jwt *auth.JWTService,
	actionRegistry *actions.Registry,
	webhookClient *webhook.Client,
	exportService *export.Service,
	liveServer *live.Server,
) *Server {
	e := echo.New()

	s := &Server{
		echo:     e,
		dbClient: dbClient,
		users:    users,
		jwt:      jwt,
		actions:  actionRegistry,
		webhook:  webhookClient,
		export:   exportService,
		live:     liveServer,
	}

	e.Use(requestLogger())
	e.Use(securityHeaders())

	e.GET("/health", s.healthHandler)

	e.POST("/auth/signup", s.signupHandler)
	e.POST("/auth/login", s.loginHandler)
	e.POST("/auth/logout", s.logoutHandler)

	// The live endpoint authenticates itself via the ?token= parameter;
	// browsers cannot attach headers to a WebSocket upgrade.
	e.GET("/ws-live", s.liveHandler)

	protected := e.Group("", s.requireAuth)
	protected.POST("/db-query", s.queryHandler)
	protected.POST("/proxy-n8n", s.webhookHandler)
	protected.GET("/export/stats", s.exportStatsHandler)
	protected.GET("/export/download", s.exportDownloadHandler)

	return s
}

// Start begins serving on addr and blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// requestLogger logs one line per request at debug level, with failures
// escalated to warn.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)

			attrs := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"duration", time.Since(start),
			}
			if err != nil {
				slog.Warn("Request failed", append(attrs, "error", err)...)
			} else {
				slog.Debug("Request handled", attrs...)
			}
			return err
		}
	}
}
