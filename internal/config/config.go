// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

type Config struct {
	Port   int
	DB     DatabaseConfig
	Redis  RedisConfig
	Admin  AdminConfig
	Limits LimitConfig
	Log    LogConfig
}

type DatabaseConfig struct {
	Driver       string
	Path         string // sqlite file, or ":memory:"
	URL          string // postgres DSN
	MaxOpenConns int
	Timeout      time.Duration // per storage call
}

type RedisConfig struct {
	URL string // empty selects the in-process limiter
}

type AdminConfig struct {
	Password      string
	SessionSecret string // empty generates a per-process secret
	SessionTTL    time.Duration
	BcryptCost    int
}

type LimitConfig struct {
	SubmissionCooldown time.Duration
	MaxEntries         int
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("db_path", "data/directory.db")
	v.SetDefault("database_url", "")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("store_timeout", 5*time.Second)
	v.SetDefault("redis_url", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("submission_cooldown", 5*time.Minute)
	v.SetDefault("rate_limit_max_entries", 10000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads envFile if it exists (a missing file is not an error), then
// the process environment, then defaults, and validates the result.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Port: v.GetInt("port"),
		DB: DatabaseConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("db_driver"))),
			Path:         v.GetString("db_path"),
			URL:          v.GetString("database_url"),
			MaxOpenConns: v.GetInt("db_max_open_conns"),
			Timeout:      v.GetDuration("store_timeout"),
		},
		Redis: RedisConfig{
			URL: v.GetString("redis_url"),
		},
		Admin: AdminConfig{
			Password:      v.GetString("admin_password"),
			SessionSecret: v.GetString("session_secret"),
			SessionTTL:    v.GetDuration("session_ttl"),
			BcryptCost:    v.GetInt("bcrypt_cost"),
		},
		Limits: LimitConfig{
			SubmissionCooldown: v.GetDuration("submission_cooldown"),
			MaxEntries:         v.GetInt("rate_limit_max_entries"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log_level")),
			Format: strings.ToLower(v.GetString("log_format")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot work. Missing optional secrets are
// not errors; they degrade the features that need them.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres, DriverNone:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite, postgres or none, got %q", c.DB.Driver))
	}
	if c.DB.Driver == DriverSQLite && c.DB.Path == "" {
		errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
	}
	if c.DB.Timeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.Admin.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Admin.SessionSecret != "" && len(c.Admin.SessionSecret) < 16 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 16 characters"))
	}
	if c.Limits.SubmissionCooldown < 0 {
		errs = append(errs, errors.New("SUBMISSION_COOLDOWN must not be negative"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// StorageDriver returns the driver actually used. Postgres without a URL
// falls back to the soft-disabled store.
func (c *Config) StorageDriver() string {
	if c.DB.Driver == DriverPostgres && c.DB.URL == "" {
		return DriverNone
	}
	return c.DB.Driver
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return l, nil
}
