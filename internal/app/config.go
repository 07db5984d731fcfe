package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all the necessary configuration for an App instance to run.
// Defaults come from REACTGRID_* environment variables; the CLI overrides
// them.
type Config struct {
	DeploymentPath string `env:"REACTGRID_DEPLOYMENT"`

	LogFormat      string        `env:"REACTGRID_LOG_FORMAT" envDefault:"json"`
	LogLevel       string        `env:"REACTGRID_LOG_LEVEL" envDefault:"info"`
	HTTPPort       int           `env:"REACTGRID_HTTP_PORT" envDefault:"0"`
	WorkerCount    int           `env:"REACTGRID_WORKERS" envDefault:"4"`
	HandlerTimeout time.Duration `env:"REACTGRID_HANDLER_TIMEOUT" envDefault:"0s"`
	OTelEndpoint   string        `env:"REACTGRID_OTEL_ENDPOINT"`
}

// ConfigFromEnv returns the configuration described by the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a normalized copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DeploymentPath == "" {
		return nil, errors.New("DeploymentPath is a required configuration field and cannot be empty")
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level '%s': must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.HandlerTimeout < 0 {
		return nil, fmt.Errorf("handler-timeout must not be negative, got %s", cfg.HandlerTimeout)
	}
	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("http-port must be between 0 and 65535, got %d", cfg.HTTPPort)
	}

	return &cfg, nil
}
