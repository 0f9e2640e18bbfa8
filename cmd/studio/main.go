// Content studio backend server — serves the dashboard REST API, pushes
// live data over WebSocket, and runs the scheduled data purge.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/actions"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/api"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/auth"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/channels"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/cleanup"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/config"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/database"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/export"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/live"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/version"
	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/webhook"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	slog.Info("Starting content studio backend",
		"version", version.Full(), "config_dir", *configDir)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// 3. Domain services
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userService := auth.NewUserService(dbClient.DB(), jwtService)
	actionRegistry := actions.NewRegistry(dbClient.DB())
	channelRegistry := channels.NewRegistry(dbClient.DB())
	webhookClient := webhook.NewClient(cfg.Webhook)
	exportService := export.NewService(dbClient.DB(), cfg.Retention.RetentionDays)
	slog.Info("Services initialized")

	// 4. Live push server
	liveServer := live.NewServer(jwtService, channelRegistry, live.Config{
		PushInterval: cfg.Live.PushInterval,
		WriteTimeout: cfg.Live.WriteTimeout,
	})

	// 5. Scheduled purge
	purgeService := cleanup.NewService(cfg.Retention, dbClient.DB())
	if err := purgeService.Start(); err != nil {
		slog.Error("Failed to start purge scheduler", "error", err)
		os.Exit(1)
	}
	defer purgeService.Stop()
	slog.Info("Purge scheduler started",
		"schedule", cfg.Retention.Schedule,
		"retention_days", cfg.Retention.RetentionDays)

	// 6. HTTP server
	httpServer := api.NewServer(dbClient, userService, jwtService,
		actionRegistry, webhookClient, exportService, liveServer)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Content studio backend started")

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown: stop accepting HTTP first, then detach live
	// sessions so clients get a clean close frame.
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	liveServer.Shutdown()

	slog.Info("Shutdown complete")
}
