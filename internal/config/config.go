package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/hms/hms/internal/platform/persist"
)

type Config struct {
	Env               string        `mapstructure:"ENV"`
	Port              string        `mapstructure:"PORT"`
	APIBaseURL        string        `mapstructure:"API_BASE_URL"`
	AuthScheme        string        `mapstructure:"AUTH_SCHEME"`
	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT"`
	StateBackend      string        `mapstructure:"STATE_BACKEND"`
	StatePath         string        `mapstructure:"STATE_PATH"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	RedisPrefix       string        `mapstructure:"REDIS_PREFIX"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	Timezone          string        `mapstructure:"TIMEZONE"`
	LowStockThreshold int           `mapstructure:"LOW_STOCK_THRESHOLD"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
}

var keys = []string{
	"ENV", "PORT", "API_BASE_URL", "AUTH_SCHEME", "HTTP_TIMEOUT",
	"STATE_BACKEND", "STATE_PATH", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "REDIS_PREFIX", "LOG_LEVEL", "TIMEZONE", "LOW_STOCK_THRESHOLD",
	"CORS_ORIGINS",
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("API_BASE_URL", "http://localhost:8000/api/")
	v.SetDefault("AUTH_SCHEME", "Token")
	v.SetDefault("HTTP_TIMEOUT", "0s")
	v.SetDefault("STATE_BACKEND", persist.BackendFile)
	v.SetDefault("STATE_PATH", ".hms")
	v.SetDefault("DB_MAX_CONNS", 4)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("REDIS_PREFIX", "hms:")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Env values arrive as one comma separated string.
	cfg.CORSOrigins = nil
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative, got %s", c.HTTPTimeout)
	}

	switch strings.ToLower(c.StateBackend) {
	case persist.BackendMemory, persist.BackendFile, persist.BackendSQLite:
	case persist.BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STATE_BACKEND is %q", c.StateBackend)
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	case persist.BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STATE_BACKEND is %q", c.StateBackend)
		}
	default:
		return fmt.Errorf("STATE_BACKEND must be one of memory, file, sqlite, postgres, redis; got %q", c.StateBackend)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative, got %d", c.LowStockThreshold)
	}
	return nil
}

// Location resolves TIMEZONE. Appointment dates and times are read in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level is the parsed LOG_LEVEL, info when unset or invalid.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func (c *Config) PersistConfig() persist.Config {
	return persist.Config{
		Backend:     c.StateBackend,
		Path:        c.StatePath,
		DatabaseURL: c.DatabaseURL,
		MaxConns:    c.DBMaxConns,
		MinConns:    c.DBMinConns,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.RedisPrefix,
	}
}
