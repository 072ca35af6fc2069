package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultServerURL = "http://localhost:8080"
	DefaultNamespace = "marketplace-chat"
)

// Config is the client configuration, read from INBOX_* environment variables.
type Config struct {
	ServerURL string        `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	UserID    string        `env:"USER_ID"`
	Token     string        `env:"TOKEN"`
	Namespace string        `env:"NAMESPACE" envDefault:"marketplace-chat"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

func Read() (Config, error) {
	return env.ParseAsWithOptions[Config](env.Options{Prefix: "INBOX_"})
}
