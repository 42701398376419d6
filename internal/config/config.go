package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
// Values come from environment variables with sensible defaults; a .env file
// in the working directory is loaded first when present.
//
// Environment Variables:
// - VISTRAL_API_URL: base URL of the analysis backend (default: http://localhost:8000)
// - VISTRAL_TOKEN: bearer token; overrides the keyring entry when set
// - VISTRAL_HISTORY_LIMIT: history list size (default: 10)
// - VISTRAL_REVEAL_INTERVAL_MS: per-character reveal delay (default: 20)
// - VISTRAL_HIGHLIGHT_WINDOW: keyframe highlight pulse duration (default: 3s)
// - VISTRAL_HEALTH_INTERVAL: backend status poll interval (default: 30s)
// - VISTRAL_DATA_DIR: directory for the local cache and logs (default: ~/.vistral)
// - VISTRAL_LOG_LEVEL: debug|info|warn|error (default: info)
type Config struct {
	API     APIConfig     `json:"api"`
	Chat    ChatConfig    `json:"chat"`
	History HistoryConfig `json:"history"`
	Health  HealthConfig  `json:"health"`
	System  SystemConfig  `json:"system"`
}

// APIConfig holds the backend connection settings.
type APIConfig struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// ChatConfig holds presentation settings for the chat pane.
type ChatConfig struct {
	RevealInterval  time.Duration `json:"reveal_interval"`
	HighlightWindow time.Duration `json:"highlight_window"`
}

// HistoryConfig holds the history panel settings.
type HistoryConfig struct {
	Limit int `json:"limit"`
}

// HealthConfig holds the backend status poller settings.
type HealthConfig struct {
	Interval time.Duration `json:"interval"`
}

// SystemConfig holds local filesystem settings.
type SystemConfig struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
}

// DBPath returns the location of the local video cache database.
func (s SystemConfig) DBPath() string {
	return filepath.Join(s.DataDir, "cache.db")
}

// LogPath returns the location of the log file.
func (s SystemConfig) LogPath() string {
	return filepath.Join(s.DataDir, "vistral.log")
}

// Option is a function type for configuring Config
type Option func(*Config)

// WithBaseURL overrides the backend base URL.
func WithBaseURL(u string) Option {
	return func(c *Config) { c.API.BaseURL = u }
}

// WithToken overrides the bearer token.
func WithToken(t string) Option {
	return func(c *Config) { c.API.Token = t }
}

// New creates a Config from a .env file (if present), the environment, and
// any options, in that order of precedence.
func New(opts ...Option) (*Config, error) {
	_ = godotenv.Load()
	return NewFromEnv(opts...)
}

// NewFromEnv creates a Config from environment variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		API: APIConfig{
			BaseURL: getEnvString("VISTRAL_API_URL", "http://localhost:8000"),
			Token:   getEnvString("VISTRAL_TOKEN", ""),
		},
		Chat: ChatConfig{
			RevealInterval:  time.Duration(getEnvInt("VISTRAL_REVEAL_INTERVAL_MS", 20)) * time.Millisecond,
			HighlightWindow: getEnvDuration("VISTRAL_HIGHLIGHT_WINDOW", 3*time.Second),
		},
		History: HistoryConfig{
			Limit: getEnvInt("VISTRAL_HISTORY_LIMIT", 10),
		},
		Health: HealthConfig{
			Interval: getEnvDuration("VISTRAL_HEALTH_INTERVAL", 30*time.Second),
		},
		System: SystemConfig{
			DataDir:  getEnvString("VISTRAL_DATA_DIR", defaultDataDir()),
			LogLevel: getEnvString("VISTRAL_LOG_LEVEL", "info"),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("VISTRAL_API_URL %q is not a valid URL", c.API.BaseURL)
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("VISTRAL_HISTORY_LIMIT must be positive")
	}
	if c.Chat.RevealInterval <= 0 {
		return fmt.Errorf("VISTRAL_REVEAL_INTERVAL_MS must be positive")
	}
	if c.Health.Interval <= 0 {
		return fmt.Errorf("VISTRAL_HEALTH_INTERVAL must be positive")
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vistral"
	}
	return filepath.Join(home, ".vistral")
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration value from environment variables with default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
