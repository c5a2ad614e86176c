// Package config loads server settings from the environment, optionally
// layered over a config file named by CONFIG_FILE.
//
// Environment variables always win over the file. Every key has a default,
// so an empty environment starts a working in-memory server on :8080.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Log    LogConfig
	HTTP   HTTPConfig
}

type ServerConfig struct {
	Port int
}

type StoreConfig struct {
	Driver string // DriverMemory or DriverSQLite
	DSN    string // SQLite data source, ":memory:" by default
}

type LogConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
}

type HTTPConfig struct {
	RateLimit      string   // ulule/limiter format, "" disables
	AllowedOrigins []string // CORS; "*" allows all, nil (CORS_ALLOWED_ORIGINS=none) disables
	Metrics        bool     // expose /metrics
	Development    bool     // relax security headers
}

// Load reads the configuration. It uses its own viper instance rather than
// the package-level one, so tests can call it repeatedly with t.Setenv.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("STORE_DSN", ":memory:")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("RATE_LIMIT", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("DEVELOPMENT", false)

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("PORT"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("STORE_DRIVER")),
			DSN:    v.GetString("STORE_DSN"),
		},
		Log: LogConfig{
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		HTTP: HTTPConfig{
			RateLimit:      v.GetString("RATE_LIMIT"),
			AllowedOrigins: origins(v.GetString("CORS_ALLOWED_ORIGINS")),
			Metrics:        v.GetBool("METRICS_ENABLED"),
			Development:    v.GetBool("DEVELOPMENT"),
		},
	}

	if err := cfg.Log.Level.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: STORE_DSN is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q (want %q or %q)", c.Store.Driver, DriverMemory, DriverSQLite)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown LOG_FORMAT %q (want \"text\" or \"json\")", c.Log.Format)
	}
	return nil
}

// origins parses CORS_ALLOWED_ORIGINS. viper ignores empty environment
// variables, so "none" is the way to switch CORS off.
func origins(s string) []string {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return nil
	}
	return splitList(s)
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
