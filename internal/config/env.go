package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PANELMARK"

// Env mirrors the settings that may be overridden from the environment.
// Pointer fields stay nil when their variable is unset.
type Env struct {
	Theme          string         `envconfig:"THEME"`
	OutputDir      string         `envconfig:"OUTPUT_DIR"`
	ServiceURL     string         `envconfig:"SERVICE_URL"`
	ServiceTimeout *time.Duration `envconfig:"SERVICE_TIMEOUT"`
	Addr           string         `envconfig:"ADDR"`
	RateLimit      *float64       `envconfig:"RATE_LIMIT"`
	ViewportWidth  *int           `envconfig:"VIEWPORT_WIDTH"`
	ViewportHeight *int           `envconfig:"VIEWPORT_HEIGHT"`
	LogLevel       string         `envconfig:"LOG_LEVEL"`
	LogDevelopment *bool          `envconfig:"LOG_DEVELOPMENT"`
}

// ApplyEnv overlays PANELMARK_* variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	env.apply(cfg)
	return nil
}

func (e Env) apply(cfg *Config) {
	if e.Theme != "" {
		cfg.Theme = e.Theme
	}
	if e.OutputDir != "" {
		cfg.OutputDir = e.OutputDir
	}
	if e.ServiceURL != "" {
		cfg.Service.URL = e.ServiceURL
	}
	if e.ServiceTimeout != nil {
		cfg.Service.Timeout = *e.ServiceTimeout
	}
	if e.Addr != "" {
		cfg.Server.Addr = e.Addr
	}
	if e.RateLimit != nil {
		cfg.Server.RateLimit = *e.RateLimit
	}
	if e.ViewportWidth != nil {
		cfg.Viewport.Width = *e.ViewportWidth
	}
	if e.ViewportHeight != nil {
		cfg.Viewport.Height = *e.ViewportHeight
	}
	if e.LogLevel != "" {
		cfg.Log.Level = e.LogLevel
	}
	if e.LogDevelopment != nil {
		cfg.Log.Development = *e.LogDevelopment
	}
}
