package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Courts        []string            `yaml:"courts"`
	Scorecard     ScorecardConfig     `yaml:"scorecard"`
	Session       SessionConfig       `yaml:"session"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ScorecardConfig holds export settings.
type ScorecardConfig struct {
	PixelRatio float64 `yaml:"pixel_ratio"`
	FontPath   string  `yaml:"font_path"` // optional; empty uses the bundled font
	// Timezone is the IANA zone the card date is shown in; empty uses the server's.
	Timezone string `yaml:"timezone"`
}

// Location resolves Timezone. It returns nil when none is configured.
func (c ScorecardConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SessionConfig holds in-memory session settings.
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	IdleTTL    time.Duration `yaml:"idle_ttl"`
	MaxEntries int           `yaml:"max_entries"` // 0 disables the cap
}

// RateLimitConfig limits image exports per client IP.
type RateLimitConfig struct {
	ExportsPerMinute float64 `yaml:"exports_per_minute"`
	Burst            int     `yaml:"burst"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	Environment    string `yaml:"environment"`
}

// DefaultCourts are the court ids pre-rendered by the prerender command.
var DefaultCourts = []string{"1", "2", "3", "4", "5", "6"}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Courts: append([]string(nil), DefaultCourts...),
		Scorecard: ScorecardConfig{
			PixelRatio: 2,
		},
		Session: SessionConfig{
			CookieName: "scorecard_session",
			IdleTTL:    2 * time.Hour,
			MaxEntries: 10000,
		},
		RateLimit: RateLimitConfig{
			ExportsPerMinute: 30,
			Burst:            5,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: true,
			Environment:    "development",
		},
	}
}

// LoadConfig loads the configuration from a YAML file. A missing file falls
// back to defaults; environment variables override both.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
		// env only
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("COURTS"); v != "" {
		cfg.Courts = splitList(v)
	}
	if v := os.Getenv("PIXEL_RATIO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PIXEL_RATIO value: %v", err)
		}
		cfg.Scorecard.PixelRatio = f
	}
	if v := os.Getenv("FONT_PATH"); v != "" {
		cfg.Scorecard.FontPath = v
	}
	if v := os.Getenv("SCORECARD_TIMEZONE"); v != "" {
		cfg.Scorecard.Timezone = v
	}
	if v := os.Getenv("SESSION_COOKIE_NAME"); v != "" {
		cfg.Session.CookieName = v
	}
	if v := os.Getenv("SESSION_IDLE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_IDLE_TTL value: %v", err)
		}
		cfg.Session.IdleTTL = d
	}
	if v := os.Getenv("SESSION_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_MAX_ENTRIES value: %v", err)
		}
		cfg.Session.MaxEntries = n
	}
	if v := os.Getenv("EXPORTS_PER_MINUTE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid EXPORTS_PER_MINUTE value: %v", err)
		}
		cfg.RateLimit.ExportsPerMinute = f
	}
	if v := os.Getenv("EXPORT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid EXPORT_BURST value: %v", err)
		}
		cfg.RateLimit.Burst = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.Observability.MetricsEnabled = v == "true"
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks values that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if len(c.Courts) == 0 {
		return fmt.Errorf("at least one court must be configured")
	}
	if c.Scorecard.PixelRatio <= 0 {
		return fmt.Errorf("pixel_ratio must be positive, got %v", c.Scorecard.PixelRatio)
	}
	if _, err := c.Scorecard.Location(); err != nil {
		return err
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie_name must not be empty")
	}
	if c.Session.MaxEntries < 0 {
		return fmt.Errorf("session max_entries must not be negative")
	}
	if c.RateLimit.ExportsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	if _, err := ParseLevel(c.Observability.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
