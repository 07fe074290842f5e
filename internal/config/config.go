package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Browser   BrowserConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port   string `envconfig:"PORT" default:"8000" toml:"port"`
	Host   string `envconfig:"HOST" default:"0.0.0.0" toml:"host"`
	Stream bool   `envconfig:"STREAM" default:"false" toml:"stream"`
}

// ProviderConfig selects the chat provider and its interaction timing.
type ProviderConfig struct {
	Name                   string `envconfig:"PROVIDER" default:"mistral" toml:"name"`
	ModelID                string `envconfig:"MODEL_ID" default:"tabpilot" toml:"model_id"`
	LoadTimeoutSeconds     int    `envconfig:"LOAD_TIMEOUT" default:"120" toml:"load_timeout_seconds"`
	ResponseTimeoutSeconds int    `envconfig:"RESPONSE_TIMEOUT" default:"120" toml:"response_timeout_seconds"`
	PollIntervalSeconds    int    `envconfig:"POLL_INTERVAL" default:"1" toml:"poll_interval_seconds"`
}

// BrowserConfig holds browser session configuration.
type BrowserConfig struct {
	Headless   bool   `envconfig:"BROWSER_HEADLESS" default:"false" toml:"headless"`
	UseProfile bool   `envconfig:"BROWSER_USE_PROFILE" default:"true" toml:"use_profile"`
	ProfileDir string `envconfig:"BROWSER_PROFILE_DIR" default:"browser_profile" toml:"profile_dir"`
	UserAgent  string `envconfig:"BROWSER_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36" toml:"user_agent"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled"`
}

// Load loads configuration from environment variables, then overlays the
// optional TOML file at path. File values take precedence over environment
// so a checked-in config file behaves deterministically; CLI flags applied
// by the caller win over both.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Missing config file is fine, env/defaults apply.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration or returns defaults on failure.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Provider: ProviderConfig{
			Name:                   "mistral",
			ModelID:                "tabpilot",
			LoadTimeoutSeconds:     120,
			ResponseTimeoutSeconds: 120,
			PollIntervalSeconds:    1,
		},
		Browser: BrowserConfig{
			Headless:   false,
			UseProfile: true,
			ProfileDir: "browser_profile",
			UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
