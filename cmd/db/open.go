package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/garrettladley/inbox/internal/db"
	"github.com/garrettladley/inbox/internal/paths"
	"github.com/garrettladley/inbox/internal/server"
	"github.com/garrettladley/inbox/internal/service/user"
	"github.com/garrettladley/inbox/internal/storage"
)

var errMemoryStore = errors.New("STORE=memory has nothing to manage; set STORE to sqlite or postgres")

// openUsers opens the database selected by the server configuration, applying
// pending migrations, and returns its user service.
func openUsers(ctx context.Context) (user.Service, func(), error) {
	cfg, err := server.ReadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch cfg.Store {
	case storage.KindSQLite:
		path := cfg.SQLitePath
		if path == "" {
			if _, err := paths.EnsureDir(); err != nil {
				return nil, nil, err
			}
			if path, err = paths.DB(); err != nil {
				return nil, nil, err
			}
		}
		sqlDB, err := db.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return user.NewSQLiteService(sqlDB), func() { _ = sqlDB.Close() }, nil

	case storage.KindPostgres:
		pool, err := db.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return user.NewPostgresService(pool), pool.Close, nil

	default:
		return nil, nil, errMemoryStore
	}
}
