package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/jobstatus/config"
	"github.com/target/jobstatus/internal/core"
	"github.com/target/jobstatus/internal/data"
)

// Store is the selected JobStore together with the connections backing it.
type Store struct {
	JobStore core.JobStore
	Backend  config.StoreBackend
	DB       *sql.DB
	Redis    redis.UniversalClient
}

// Close releases the store's connections.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// OpenStore connects the backend named by cfg.Store. The postgres backend
// applies migrations first when DB_RUN_MIGRATIONS_ON_START is set.
func OpenStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend, err := cfg.Store.GetBackend()
	if err != nil {
		return nil, err
	}

	switch backend {
	case config.StoreBackendPostgres:
		return openPostgresStore(ctx, cfg, logger)
	case config.StoreBackendRedis:
		return openRedisStore(ctx, cfg, logger)
	default:
		logger.WarnContext(ctx, "using in-memory job store; records are lost on restart")
		return &Store{JobStore: data.NewMemoryJobStore(), Backend: config.StoreBackendMemory}, nil
	}
}

func openPostgresStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Store, error) {
	db, err := ConnectDB(ctx, DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err := RunMigrations(ctx, db, logger); err != nil {
			if cerr := db.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close database: %w", cerr))
			}
			return nil, err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	return &Store{
		JobStore: data.NewJobRepo(db, data.RepoConfig{Logger: logger}),
		Backend:  config.StoreBackendPostgres,
		DB:       db,
	}, nil
}

func openRedisStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Store, error) {
	client, err := ConnectRedis(ctx, DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	store, err := data.NewRedisJobStore(data.RedisJobStoreOptions{
		Client:    client,
		KeyPrefix: cfg.Redis.KeyPrefix,
		RecordTTL: cfg.Redis.RecordTTL,
	})
	if err != nil {
		if cerr := client.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close redis: %w", cerr))
		}
		return nil, err
	}

	return &Store{JobStore: store, Backend: config.StoreBackendRedis, Redis: client}, nil
}
