package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURI string `envconfig:"DATABASE_URI"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/reminders.db"`

	AIAPIKey  string `envconfig:"AI_API_KEY"`
	AIBaseURL string `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel   string `envconfig:"AI_MODEL" default:"openai/gpt-4o-mini"`

	PollInterval      time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
	CleanupSchedule   string        `envconfig:"CLEANUP_SCHEDULE" default:"0 4 * * *"`
	InactiveRetention time.Duration `envconfig:"INACTIVE_RETENTION" default:"720h"`
	SendRatePerSec    int           `envconfig:"SEND_RATE_PER_SEC" default:"25"`

	Port       string `envconfig:"PORT" default:"3000"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogConsole bool   `envconfig:"LOG_CONSOLE" default:"true"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// .env file is optional in production
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURI == "" {
			return errors.New("DATABASE_URI is required for the postgres store")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if c.InactiveRetention <= 0 {
		return errors.New("INACTIVE_RETENTION must be positive")
	}
	if c.SendRatePerSec <= 0 {
		return errors.New("SEND_RATE_PER_SEC must be positive")
	}
	return nil
}

// AIEnabled reports whether free-text messages go through the AI extractor.
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}
