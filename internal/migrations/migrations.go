package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var migrationsFS embed.FS

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	CreateHistory string
	CountApplied  string
	RecordApplied string
}

// Executor is the minimal surface Run needs from a database handle.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) error
	Count(ctx context.Context, query string, args ...any) (int, error)
}

// Run applies every *.sql file under dir in fsys, in lexical order, skipping
// files already recorded in the history table.
func Run(ctx context.Context, fsys fs.FS, dir string, d Dialect, e Executor) error {
	if err := e.Exec(ctx, d.CreateHistory); err != nil {
		return fmt.Errorf("creating migrations history table: %w", err)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)

	for _, name := range names {
		applied, err := e.Count(ctx, d.CountApplied, name)
		if err != nil {
			return fmt.Errorf("checking if migration %s applied: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		content, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		for stmt := range strings.SplitSeq(string(content), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := e.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
		}

		if err := e.Exec(ctx, d.RecordApplied, name); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

var sqliteDialect = Dialect{
	CreateHistory: `CREATE TABLE IF NOT EXISTS migrations_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	CountApplied:  "SELECT COUNT(*) FROM migrations_history WHERE name = ?",
	RecordApplied: "INSERT INTO migrations_history (name) VALUES (?)",
}

type sqlExecutor struct {
	db *sql.DB
}

func (e sqlExecutor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.db.ExecContext(ctx, query, args...)
	return err
}

func (e sqlExecutor) Count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := e.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// Apply brings a SQLite database up to date.
func Apply(ctx context.Context, db *sql.DB) error {
	return Run(ctx, migrationsFS, migrationsDir, sqliteDialect, sqlExecutor{db: db})
}
