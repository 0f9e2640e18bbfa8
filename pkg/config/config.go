// Package config loads and validates the dashboard's YAML configuration.
package config

import "time"

// Config is the fully resolved configuration the process runs with.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Auth      AuthConfig       `yaml:"auth"`
	Live      LiveConfig       `yaml:"live"`
	Webhook   WebhookConfig    `yaml:"webhook"`
	Retention *RetentionConfig `yaml:"retention"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AuthConfig holds token issuing and verification settings. The secret is
// normally supplied via {{.JWT_SECRET}} in the YAML.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// LiveConfig holds the live-data push timing knobs.
type LiveConfig struct {
	PushInterval time.Duration `yaml:"push_interval"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// WebhookConfig holds the outbound automation webhook settings. Targets maps
// a dashboard action name to a path under BaseURL.
type WebhookConfig struct {
	BaseURL string            `yaml:"base_url"`
	Targets map[string]string `yaml:"targets"`
}

// RetentionConfig controls the scheduled data purge.
type RetentionConfig struct {
	// RetentionDays is how long content rows are kept before the purge
	// deletes them.
	RetentionDays int `yaml:"retention_days"`

	// Schedule is a cron expression for when the purge runs.
	Schedule string `yaml:"schedule"`
}

// DefaultRetentionConfig returns the built-in retention defaults: a 30-day
// window purged daily at 02:00 server time.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		RetentionDays: 30,
		Schedule:      "0 2 * * *",
	}
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "",
			Port: 3001,
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Live: LiveConfig{
			PushInterval: 5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Webhook: WebhookConfig{
			Targets: map[string]string{
				"generate_image": "/generate-image-lovable",
				"make_video":     "/reels-lovable",
			},
		},
		Retention: DefaultRetentionConfig(),
	}
}
