package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds every tunable the bot reads from the environment.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN, required"`

	// "sqlite" (pure Go, default), "sqlite3" (cgo) or "postgres".
	DatabaseType string `env:"DATABASE_TYPE, default=sqlite"`
	DatabasePath string `env:"DATABASE_PATH, default=./data/hibikase.db"`
	DatabaseDSN  string `env:"DATABASE_DSN"`

	// Timezone used for schedule matching and timestamp display.
	// Rows are stored in UTC regardless.
	DisplayTimezone string `env:"TZ_DISPLAY, default=Asia/Tokyo"`

	QuakeAPIBaseURL           string `env:"QUAKE_API_BASE_URL, default=https://api.p2pquake.net/v2"`
	QuakePollIntervalSeconds  int    `env:"QUAKE_POLL_INTERVAL_SECONDS, default=60"`
	HealthFlushIntervalSecond int    `env:"HEALTH_FLUSH_INTERVAL_SECONDS, default=30"`

	Debug bool `env:"DEBUG"`

	location *time.Location
}

// Load reads .env (if present) and the process environment.
func Load(ctx context.Context) (*Config, error) {
	// A missing .env file is fine; containers set real env vars.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_DISPLAY %q: %w", cfg.DisplayTimezone, err)
	}
	cfg.location = loc

	return &cfg, nil
}

// Location returns the parsed display timezone.
func (c *Config) Location() *time.Location {
	return c.location
}

// DatabaseConnectionString returns the DSN handed to the gorm driver.
func (c *Config) DatabaseConnectionString() string {
	if c.DatabaseType == "postgres" {
		return c.DatabaseDSN
	}
	return c.DatabasePath
}
