package server

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	appenv "github.com/garrettladley/inbox/internal/env"
	"github.com/garrettladley/inbox/internal/storage"
)

type Config struct {
	Port       string             `env:"PORT" envDefault:"8080"`
	Env        appenv.Environment `env:"ENV" envDefault:"development"`
	Store      storage.Kind       `env:"STORE" envDefault:"memory"`
	SQLitePath string             `env:"SQLITE_PATH"`
	Database   Database           `envPrefix:"DATABASE_"`
	Redis      Redis              `envPrefix:"REDIS_"`
	RateLimit  RateLimit          `envPrefix:"RATE_"`
	// DevUsers get a token printed at startup when Store is memory.
	DevUsers   []string           `env:"DEV_USERS" envSeparator:","`
}

type Database struct {
	URL string `env:"URL"`
}

// Redis is optional. When URL is set, live events and rate limiting are
// shared across server instances through it.
type Redis struct {
	URL string `env:"URL"`
}

type RateLimit struct {
	Limit float64 `env:"LIMIT" envDefault:"10"`
	Burst int     `env:"BURST" envDefault:"20"`
}

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required when STORE=postgres")

func ReadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Store == storage.KindPostgres && c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive (limit=%v burst=%d)", c.RateLimit.Limit, c.RateLimit.Burst)
	}
	return nil
}
