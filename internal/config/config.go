package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode        string `env:"APP_MODE" envDefault:"dev"`
	Port           string `env:"PORT" envDefault:"3000"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	Database  DatabaseConfig
	Session   SessionConfig
	Cookie    CookieConfig
	Retention RetentionConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"mysql"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/loantracker.db"`
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
}

// modeDatabaseConfig is parsed once per APP_MODE prefix (DEV_ / PROD_)
type modeDatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER" envDefault:"root"`
	Password string `env:"DB_PASS"`
	DBName   string `env:"DB_NAME" envDefault:"loantracker"`
}

// SessionConfig holds login session settings
type SessionConfig struct {
	Days      int    `env:"SESSION_DAYS" envDefault:"7"`
	SweepCron string `env:"SESSION_SWEEP_CRON" envDefault:"@hourly"`
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool   `env:"COOKIE_SECURE"`
	SameSite string `env:"COOKIE_SAMESITE" envDefault:"Lax"`
	Domain   string `env:"COOKIE_DOMAIN"`
}

// RetentionConfig holds how long terminal loans are kept before cleanup
type RetentionConfig struct {
	ReleasedDays  int `env:"RETENTION_RELEASED_DAYS" envDefault:"365"`
	CancelledDays int `env:"RETENTION_CANCELLED_DAYS" envDefault:"182"`
}

// ReleasedPeriod is the retention window for released loans
func (r RetentionConfig) ReleasedPeriod() time.Duration {
	return time.Duration(r.ReleasedDays) * 24 * time.Hour
}

// CancelledPeriod is the retention window for cancelled loans
func (r RetentionConfig) CancelledPeriod() time.Duration {
	return time.Duration(r.CancelledDays) * 24 * time.Hour
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional; production passes real environment variables
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment variables")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	slog.Info("✅ Configuration loaded", "mode", cfg.AppMode, "db_driver", cfg.Database.Driver)
	return cfg, nil
}

// Parse builds a Config from the current environment without touching .env
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// trim spaces for Windows-edited .env files
	cfg.AppMode = strings.TrimSpace(cfg.AppMode)
	if cfg.AppMode != "dev" && cfg.AppMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", cfg.AppMode)
	}

	switch cfg.Database.Driver {
	case "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'sqlite')", cfg.Database.Driver)
	}

	var modeDB modeDatabaseConfig
	if err := env.ParseWithOptions(&modeDB, env.Options{Prefix: modePrefix(cfg.AppMode)}); err != nil {
		return nil, fmt.Errorf("failed to parse database environment: %w", err)
	}
	cfg.Database.Host = modeDB.Host
	cfg.Database.Port = modeDB.Port
	cfg.Database.User = modeDB.User
	cfg.Database.Password = modeDB.Password
	cfg.Database.DBName = modeDB.DBName

	if cfg.Session.Days < 1 {
		return nil, fmt.Errorf("invalid SESSION_DAYS: %d", cfg.Session.Days)
	}
	if cfg.Retention.ReleasedDays < 1 || cfg.Retention.CancelledDays < 1 {
		return nil, fmt.Errorf("retention periods must be at least one day")
	}

	// secure cookies are always on in production
	if cfg.IsProd() {
		cfg.Cookie.Secure = true
	}

	return &cfg, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// SessionDuration is how long a login session stays valid
func (c *Config) SessionDuration() time.Duration {
	return time.Duration(c.Session.Days) * 24 * time.Hour
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:3000"
	}
	return c.AllowedOrigins
}
