package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/geo-attendance/internal/config"
	"github.com/example/geo-attendance/internal/persistence"
	"github.com/example/geo-attendance/internal/persistence/memory"
	"github.com/example/geo-attendance/internal/persistence/postgres"
	"github.com/example/geo-attendance/internal/persistence/redis"
	"github.com/example/geo-attendance/internal/persistence/sqlite"
)

const redisKeyPrefix = "geo-attendance:"

type repository interface {
	persistence.KeyValueRepository
	Close() error
}

// openRepository connects the configured backend and prepares its schema.
func openRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository, error) {
	logger = logger.With("backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage; records are lost on restart")
		return memory.Open(), nil

	case config.BackendPostgres:
		store, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Info("storage ready")
		return store, nil

	case config.BackendRedis:
		store, err := redis.Open(ctx, redis.Config{URL: cfg.RedisURL, KeyPrefix: redisKeyPrefix})
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready")
		return store, nil

	case config.BackendSQLite, "":
		store, err := sqlite.Open(cfg.SQLiteDSN, sqlite.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Info("storage ready")
		return store, nil
	}

	return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
}
