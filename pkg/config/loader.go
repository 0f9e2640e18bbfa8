package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const configFile = "studio.yaml"

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Read studio.yaml from configDir
//  2. Expand environment variables ({{.VAR}} template syntax)
//  3. Parse YAML over the built-in defaults
//  4. Validate the result
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	log.Info("Configuration initialized successfully",
		"port", cfg.Server.Port,
		"webhook_targets", len(cfg.Webhook.Targets),
		"retention_days", cfg.Retention.RetentionDays)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	cfg := defaultConfig()

	path := filepath.Join(configDir, configFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewLoadError(configFile, fmt.Errorf("%w: %s", ErrConfigNotFound, path))
		}
		return nil, NewLoadError(configFile, err)
	}

	// Note: ExpandEnv passes through original data on parse/execution errors,
	// allowing the YAML parser to handle the content (or fail with a clearer
	// error message).
	data = ExpandEnv(data)

	// Unmarshalling over the defaults means any section the file omits keeps
	// its built-in value.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewLoadError(configFile, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	if cfg.Retention == nil {
		cfg.Retention = DefaultRetentionConfig()
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return NewValidationError("server", "port", ErrInvalidValue)
	}
	if cfg.Auth.JWTSecret == "" {
		return NewValidationError("auth", "jwt_secret", ErrMissingRequiredField)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return NewValidationError("auth", "token_ttl", ErrInvalidValue)
	}
	if cfg.Live.PushInterval <= 0 {
		return NewValidationError("live", "push_interval", ErrInvalidValue)
	}
	if cfg.Live.WriteTimeout <= 0 {
		return NewValidationError("live", "write_timeout", ErrInvalidValue)
	}

	for target, path := range cfg.Webhook.Targets {
		if !strings.HasPrefix(path, "/") {
			return NewValidationError("webhook",
				fmt.Sprintf("targets.%s", target), ErrInvalidValue)
		}
	}

	if cfg.Retention.RetentionDays <= 0 {
		return NewValidationError("retention", "retention_days", ErrInvalidValue)
	}
	if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
		return NewValidationError("retention", "schedule",
			fmt.Errorf("%w: %v", ErrInvalidValue, err))
	}

	return nil
}
