package postgres

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garrettladley/inbox/internal/migrations"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var migrationsFS embed.FS

var dialect = migrations.Dialect{
	CreateHistory: `CREATE TABLE IF NOT EXISTS migrations_history (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		applied_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	CountApplied:  "SELECT COUNT(*) FROM migrations_history WHERE name = $1",
	RecordApplied: "INSERT INTO migrations_history (name) VALUES ($1)",
}

type poolExecutor struct {
	pool *pgxpool.Pool
}

func (e poolExecutor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.pool.Exec(ctx, query, args...)
	return err
}

func (e poolExecutor) Count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := e.pool.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

// Apply brings a Postgres database up to date.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	return migrations.Run(ctx, migrationsFS, migrationsDir, dialect, poolExecutor{pool: pool})
}
