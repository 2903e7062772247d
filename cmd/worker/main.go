package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/paintify/backend-paintify/internal/config"
	"github.com/paintify/backend-paintify/internal/jobs"
	"github.com/paintify/backend-paintify/internal/obs"
	"github.com/paintify/backend-paintify/internal/shop"
	"github.com/paintify/backend-paintify/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	if cfg.RedisURL == "" {
		logger.Fatal().Msg("REDIS_URL is required to run the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "paintify"), nil)

	kv, cleanup := mustOpenStore(ctx, cfg, logger)
	defer cleanup()

	repo, err := shop.NewRepository(ctx, kv)
	if err != nil {
		logger.Fatal().Err(err).Msg("load shop document")
	}
	// The API process owns the writes, so the worker always re-reads.
	repo.WithSharedStore(true)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     redisOpts.Addr,
			Username: redisOpts.Username,
			Password: redisOpts.Password,
			DB:       redisOpts.DB,
		},
		Tasks: jobs.Tasks{
			Repo:              repo,
			ExportDir:         cfg.ExportDir,
			LowStockThreshold: cfg.LowStockThreshold,
			Logger:            logger,
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ArchiveCronSpec, Task: jobs.NewLedgerArchiveTask()},
			{Spec: cfg.LowStockCronSpec, Task: jobs.NewLowStockScanTask()},
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("configure worker")
	}

	logger.Info().
		Str("store", cfg.StoreDriver).
		Str("archive_cron", cfg.ArchiveCronSpec).
		Str("lowstock_cron", cfg.LowStockCronSpec).
		Msg("worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
}

func mustOpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.KV, func()) {
	switch cfg.StoreDriver {
	case "redis":
		client := mustInitRedis(ctx, cfg.RedisURL, logger)
		return store.RedisKV{R: client}, func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}
	case "postgres":
		pool := mustInitDatabase(ctx, cfg.DatabaseURL, logger)
		kv, err := store.NewPostgresKV(ctx, pool)
		if err != nil {
			logger.Fatal().Err(err).Msg("prepare postgres store")
		}
		return kv, pool.Close
	default:
		kv, err := store.NewFileKV(cfg.StoreFileDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("open file store")
		}
		return kv, func() {}
	}
}

func mustInitDatabase(ctx context.Context, url string, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, url string, logger zerolog.Logger) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
