package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/meatstock/internal/app"
	"github.com/odyssey-erp/meatstock/internal/platform/cache"
	"github.com/odyssey-erp/meatstock/internal/platform/db"
	"github.com/odyssey-erp/meatstock/internal/shared"
	"github.com/odyssey-erp/meatstock/jobs"
	"github.com/odyssey-erp/meatstock/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg).With(slog.String("process", "worker"))

	if !cfg.RedisEnabled() {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if _, err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	svc, err := app.NewLedgerService(cfg, app.LedgerDeps{Pool: pool, Redis: redisClient, Logger: logger})
	if err != nil {
		logger.Error("init ledger service", slog.Any("error", err))
		os.Exit(1)
	}
	ledgerJobs := jobs.NewLedgerJobs(svc, shared.NewIdempotencyStore(pool), logger, nil)

	openDayTask, err := jobs.NewOpenDayTask("")
	if err != nil {
		logger.Error("build open-day task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(0)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts, err := cfg.RedisClientOpt()
	if err != nil {
		logger.Error("redis options", slog.Any("error", err))
		os.Exit(1)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers:  ledgerJobs.Handlers(),
		Location:  cfg.Location(),
		Cron: []jobs.CronRegistration{
			{Spec: "5 0 * * *", Task: openDayTask, Options: []asynq.Option{asynq.MaxRetry(5)}},
			{Spec: "30 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("scheduling ledger tasks", slog.String("timezone", cfg.Location().String()))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
