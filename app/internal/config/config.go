package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port               string
	DevAllowAllOrigins bool
	CacheEnabled       bool

	// Storage
	DBDriver    string
	DBPath      string
	DatabaseURL string

	// Background work
	EnableRollups bool

	// Timeline
	DefaultMaxBeat int

	// Logging
	LogDir string

	// Alerts
	StatusPageURL     string
	WebhookURL        string
	WebhookSecret     string
	DiscordWebhookURL string
	TelegramBotToken  string
	TelegramChatID    string
}

// Load reads configuration from .env and environment variables. It does not
// validate, so flags bound afterwards can still fill required settings.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg := &Config{
		Port:               getenv("PORT", "4555"),
		DevAllowAllOrigins: envBool("DEV_ALLOW_ALL_ORIGINS", false),
		CacheEnabled:       envBool("CACHE_ENABLED", true),
		DBDriver:           strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
		DBPath:             getenv("DB_PATH", "./status.db"),
		DatabaseURL:        getenv("DATABASE_URL", ""),
		EnableRollups:      envBool("ENABLE_ROLLUPS", true),
		DefaultMaxBeat:     envInt("DEFAULT_MAX_BEAT", 120),
		LogDir:             getenv("LOG_DIR", "logs"),
		StatusPageURL:      getenv("STATUS_PAGE_URL", ""),
		WebhookURL:         getenv("ALERT_WEBHOOK_URL", ""),
		WebhookSecret:      getenv("ALERT_WEBHOOK_SECRET", ""),
		DiscordWebhookURL:  getenv("ALERT_DISCORD_WEBHOOK_URL", ""),
		TelegramBotToken:   getenv("ALERT_TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:     getenv("ALERT_TELEGRAM_CHAT_ID", ""),
	}
	return cfg, nil
}

// BindFlags registers command line overrides for cfg on fs. Flags default to
// the values already loaded, so unset flags leave cfg unchanged.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Port, "port", "p", c.Port, "HTTP listen port")
	fs.StringVar(&c.DBDriver, "db-driver", c.DBDriver, "database driver (sqlite|postgres)")
	fs.StringVar(&c.DBPath, "db-path", c.DBPath, "SQLite database file")
	fs.StringVar(&c.DatabaseURL, "database-url", c.DatabaseURL, "PostgreSQL connection string")
	fs.StringVar(&c.LogDir, "log-dir", c.LogDir, "directory for rotated log files")
	fs.BoolVar(&c.EnableRollups, "rollups", c.EnableRollups, "run hourly/daily rollup jobs")
	fs.BoolVar(&c.CacheEnabled, "cache", c.CacheEnabled, "cache API responses")
	fs.BoolVar(&c.DevAllowAllOrigins, "dev-allow-all-origins", c.DevAllowAllOrigins, "allow CORS from any origin")
	fs.IntVar(&c.DefaultMaxBeat, "max-beat", c.DefaultMaxBeat, "default timeline bucket count")
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH must be set for driver %q", c.DBDriver)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for driver %q", c.DBDriver)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.DefaultMaxBeat < 1 || c.DefaultMaxBeat > 1000 {
		return fmt.Errorf("DEFAULT_MAX_BEAT must be within [1, 1000], got %d", c.DefaultMaxBeat)
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}
