package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

type Kind string

const (
	KindMemory   Kind = "memory"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

func (k *Kind) UnmarshalText(text []byte) error {
	switch v := Kind(text); v {
	case KindMemory, KindSQLite, KindPostgres:
		*k = v
		return nil
	default:
		return errors.New("unknown store kind " + string(text) + " (valid: memory, sqlite, postgres)")
	}
}
