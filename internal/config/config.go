package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerPort       string        `mapstructure:"SERVER_PORT"`
	ClientOrigin     string        `mapstructure:"CLIENT_ORIGIN"`
	DBDriver         string        `mapstructure:"DB_DRIVER"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	SQLitePath       string        `mapstructure:"SQLITE_PATH"`
	SeedDestinations string        `mapstructure:"SEED_DESTINATIONS"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	ConflictRetries  int           `mapstructure:"CONFLICT_RETRIES"`
	CatalogCacheTTL  time.Duration `mapstructure:"CATALOG_CACHE_TTL"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	SESRegion        string        `mapstructure:"SES_REGION"`
	EmailFrom        string        `mapstructure:"EMAIL_FROM"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"SERVER_PORT":       "8080",
	"CLIENT_ORIGIN":     "",
	"DB_DRIVER":         DriverPostgres,
	"DATABASE_URL":      "",
	"SQLITE_PATH":       "data/itinerary.db",
	"SEED_DESTINATIONS": "",
	"JWT_SECRET":        "",
	"CONFLICT_RETRIES":  3,
	"CATALOG_CACHE_TTL": "10m",
	"REQUEST_TIMEOUT":   "15s",
	"SES_REGION":        "",
	"EMAIL_FROM":        "",
	"LOG_LEVEL":         "info",
}

// LoadConfig reads configuration from app.env in path, if present, and from
// environment variables, which take precedence.
func LoadConfig(path string) (Config, error) {
	var config Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	// Every key needs a default so that Unmarshal sees values coming only from the environment.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("config.LoadConfig: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config.LoadConfig: %w", err)
	}
	return config, config.Validate()
}

// Validate reports settings the application cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER is postgres")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when DB_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.ConflictRetries < 0 {
		return errors.New("CONFLICT_RETRIES must not be negative")
	}
	if c.CatalogCacheTTL <= 0 || c.RequestTimeout <= 0 {
		return errors.New("CATALOG_CACHE_TTL and REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// EmailEnabled reports whether itinerary sharing can send email.
func (c Config) EmailEnabled() bool {
	return c.SESRegion != "" && c.EmailFrom != ""
}

// Level converts LOG_LEVEL to a gommon log level. Unknown values mean info.
func (c Config) Level() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// NewLogger returns a logger with the given prefix at the configured level.
func (c Config) NewLogger(prefix string) *log.Logger {
	logger := log.New(prefix)
	logger.SetLevel(c.Level())
	return logger
}
