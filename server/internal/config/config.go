package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHost           = "127.0.0.1"
	DefaultHTTPPort       = 5000
	DefaultLogLevel       = "info"
	DefaultHistoryTTL     = 30 * time.Minute
	DefaultMaxTextLength  = 5000
	DefaultRateLimitRPS   = 5
	DefaultRateLimitBurst = 20
	DefaultStreamInterval = 5 * time.Second
)

// Config holds the configuration parsed from the `server:` section of
// config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// Host is the interface the HTTP server binds to (default 127.0.0.1).
	Host string `yaml:"host"`

	// HTTPPort is the port for the page, the REST API and the stats stream
	// (default 5000).
	HTTPPort int `yaml:"http_port"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// Auth configures API key protection of the /api/ routes.
	Auth AuthConfig `yaml:"auth"`

	// History controls how long analysis results stay available for
	// re-sampling and stats.
	History HistoryConfig `yaml:"history"`

	// RateLimit throttles analyze calls per client IP.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Analysis bounds the accepted input.
	Analysis AnalysisConfig `yaml:"analysis"`

	// Suggestions optionally replaces the built-in step tables.
	Suggestions SuggestionsConfig `yaml:"suggestions"`

	// Stream controls the WebSocket stats broadcast.
	Stream StreamConfig `yaml:"stream"`
}

// AuthConfig controls client authentication for /api/ routes.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected
	// API key. Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// HistoryConfig controls in-memory result retention.
type HistoryConfig struct {
	// TTL is how long a result stays in the store after it was produced.
	// Default: 30m.
	TTL time.Duration `yaml:"ttl"`
}

// RateLimitConfig is a per-client token bucket.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// AnalysisConfig bounds the text accepted by the analyzer.
type AnalysisConfig struct {
	// MaxTextLength is the maximum input length in characters (default 5000).
	MaxTextLength int `yaml:"max_text_length"`
}

// SuggestionsConfig points at an optional YAML step catalog.
type SuggestionsConfig struct {
	// File is the catalog path. Empty means built-in tables only.
	File string `yaml:"file"`

	// Watch reloads File when it changes.
	Watch bool `yaml:"watch"`
}

// StreamConfig controls the WebSocket hub.
type StreamConfig struct {
	// Interval between stats broadcasts (default 5s).
	Interval time.Duration `yaml:"interval"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.HTTPPort)
}

// SlogLevel converts LogLevel to a slog.Level. Unknown values map to Info.
func (s ServerConfig) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the config file at path. An empty path returns the
// defaults. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     DefaultHost,
			HTTPPort: DefaultHTTPPort,
			LogLevel: DefaultLogLevel,
			History: HistoryConfig{
				TTL: DefaultHistoryTTL,
			},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
			Analysis: AnalysisConfig{
				MaxTextLength: DefaultMaxTextLength,
			},
			Stream: StreamConfig{
				Interval: DefaultStreamInterval,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		return fmt.Errorf("server.log_level %q unknown: want debug|info|warn|error", s.LogLevel)
	}
	switch s.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Auth.Mode == "apikey" && s.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required when auth.mode is apikey")
	}
	if s.History.TTL <= 0 {
		return fmt.Errorf("server.history.ttl must be positive")
	}
	if s.RateLimit.Enabled && (s.RateLimit.RPS <= 0 || s.RateLimit.Burst <= 0) {
		return fmt.Errorf("server.rate_limit: rps and burst must be positive when enabled")
	}
	if s.Analysis.MaxTextLength <= 0 {
		return fmt.Errorf("server.analysis.max_text_length must be positive")
	}
	if s.Suggestions.Watch && s.Suggestions.File == "" {
		return fmt.Errorf("server.suggestions.watch requires suggestions.file")
	}
	if s.Stream.Interval <= 0 {
		return fmt.Errorf("server.stream.interval must be positive")
	}
	return nil
}
