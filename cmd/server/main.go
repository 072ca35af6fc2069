package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/garrettladley/inbox/internal/db"
	"github.com/garrettladley/inbox/internal/paths"
	xredis "github.com/garrettladley/inbox/internal/redis"
	"github.com/garrettladley/inbox/internal/server"
	"github.com/garrettladley/inbox/internal/service/notification"
	"github.com/garrettladley/inbox/internal/service/user"
	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/xslog"
	"github.com/garrettladley/inbox/internal/xsync"
)

const (
	keyPort        = "port"
	keyGracePeriod = "grace_period"
	keyPath        = "path"
	keyToken       = "token"

	sseShutdownGracePeriod = 2 * time.Second
	redisRateLimitWindow   = time.Second
)

func main() {
	_ = godotenv.Load()

	logger := xslog.NewLoggerFromEnv(os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", xslog.Error(err))
		os.Exit(1)
	}
}

// backend is everything the server needs from its storage choice.
type backend struct {
	records storage.NotificationRecords
	users   user.Service
	closers []io.Closer
}

func (b *backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := server.ReadConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	stores, err := initBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close backend", xslog.Error(err))
		}
	}()

	var redisClient *goredis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = xredis.New(ctx, xredis.Config{URL: cfg.Redis.URL})
		if err != nil {
			return fmt.Errorf("failed to initialize redis client: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
	}

	live := initLivePublisher(ctx, redisClient, logger)
	limiter := initRateLimiter(ctx, cfg, redisClient, logger)
	if c, ok := limiter.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	notificationService := notification.NewStore(storage.NewNotificationStore(stores.records, live))

	router := server.NewRouter(server.Deps{
		Logger:        logger,
		Notifications: notificationService,
		Users:         stores.users,
		Limiter:       limiter,
		Namespace:     xsync.DefaultNamespace,
	})

	shutdownCoordinator := server.NewShutdownCoordinator(sseShutdownGracePeriod)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // disabled for SSE; use SetWriteDeadline per-request
		IdleTimeout:       60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return shutdownCoordinator.BaseContext()
		},
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting server",
			xslog.Version(),
			xslog.Store(string(cfg.Store)),
			slog.String(keyPort, cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}
	logger.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// cancel base context and wait grace period for SSE connections to close
	shutdownCoordinator.InitiateShutdown(shutdownCtx)
	logger.InfoContext(ctx, "SSE grace period complete, shutting down server",
		slog.Duration(keyGracePeriod, sseShutdownGracePeriod))

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.InfoContext(ctx, "server stopped")
	return nil
}

func initBackend(ctx context.Context, cfg server.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Store {
	case storage.KindSQLite:
		path := cfg.SQLitePath
		if path == "" {
			if _, err := paths.EnsureDir(); err != nil {
				return nil, err
			}
			var err error
			if path, err = paths.DB(); err != nil {
				return nil, err
			}
		}
		logger.InfoContext(ctx, "initializing SQLite store", slog.String(keyPath, path))

		sqlDB, err := db.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return sqliteBackend(sqlDB), nil

	case storage.KindPostgres:
		logger.InfoContext(ctx, "initializing PostgreSQL store")

		pool, err := db.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return postgresBackend(pool), nil

	default:
		logger.InfoContext(ctx, "initializing in-memory store")
		return &backend{
			records: storage.NewMemoryNotificationRecords(),
			users:   seedMemoryUsers(ctx, cfg.DevUsers, logger),
		}, nil
	}
}

func sqliteBackend(sqlDB *sql.DB) *backend {
	return &backend{
		records: storage.NewSQLiteNotificationRecords(sqlDB),
		users:   user.NewSQLiteService(sqlDB),
		closers: []io.Closer{sqlDB},
	}
}

func postgresBackend(pool *pgxpool.Pool) *backend {
	return &backend{
		records: storage.NewPostgresNotificationRecords(pool),
		users:   user.NewPostgresService(pool),
		closers: []io.Closer{closerFunc(pool.Close)},
	}
}

// seedMemoryUsers issues a token for each of ids so the in-memory server is
// usable without cmd/db.
func seedMemoryUsers(ctx context.Context, ids []string, logger *slog.Logger) *user.MemoryService {
	users := user.NewMemoryService()
	for _, id := range ids {
		token, err := users.IssueToken(ctx, id)
		if err != nil {
			logger.WarnContext(ctx, "failed to issue dev token", xslog.UserID(id), xslog.Error(err))
			continue
		}
		logger.InfoContext(ctx, "issued dev token", xslog.UserID(id), slog.String(keyToken, token))
	}
	return users
}

func initLivePublisher(ctx context.Context, client *goredis.Client, logger *slog.Logger) storage.LivePublisher {
	if client == nil {
		logger.InfoContext(ctx, "initializing in-process live publisher")
		return storage.NewMemoryLivePublisher()
	}
	logger.InfoContext(ctx, "initializing Redis live publisher")
	return storage.NewRedisLivePublisher(client)
}

func initRateLimiter(ctx context.Context, cfg server.Config, client *goredis.Client, logger *slog.Logger) storage.RateLimiter {
	if client == nil {
		logger.InfoContext(ctx, "initializing in-memory rate limiter")
		return storage.NewMemoryRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Burst)
	}
	logger.InfoContext(ctx, "initializing Redis rate limiter")
	return storage.NewRedisRateLimiter(client, cfg.RateLimit.Burst, redisRateLimitWindow)
}
