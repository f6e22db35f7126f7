package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/meatstock/cmd/meatstock/cli"
	"github.com/odyssey-erp/meatstock/internal/app"
	"github.com/odyssey-erp/meatstock/internal/authz"
	"github.com/odyssey-erp/meatstock/internal/ledger"
	"github.com/odyssey-erp/meatstock/internal/observability"
	"github.com/odyssey-erp/meatstock/internal/platform/cache"
	"github.com/odyssey-erp/meatstock/internal/platform/db"
	"github.com/odyssey-erp/meatstock/jobs"
	"github.com/odyssey-erp/meatstock/migrations"
)

const usage = `usage:
  meatstock                      run the HTTP API
  meatstock jobs <task> [date]   enqueue ledger:open-day, ledger:recalculate or ledger:idempotency-cleanup
  meatstock token <user> <role>  print a development bearer token`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	args := os.Args[1:]
	if len(args) > 0 {
		os.Exit(runCommand(cfg, logger, args))
	}
	if err := serve(cfg, logger); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}

func runCommand(cfg *app.Config, logger *slog.Logger, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "jobs":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, usage)
			return 2
		}
		date := ""
		if len(args) > 2 {
			date = args[2]
		}
		opts, err := cfg.RedisClientOpt()
		if err != nil {
			logger.Error("jobs cli", slog.Any("error", err))
			return 1
		}
		c, err := cli.NewJobsCLI(opts)
		if err != nil {
			logger.Error("jobs cli", slog.Any("error", err))
			return 1
		}
		defer func() { _ = c.Close() }()
		info, err := c.Trigger(ctx, args[1], date)
		if err != nil {
			logger.Error("enqueue job", slog.String("task", args[1]), slog.Any("error", err))
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "token":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, usage)
			return 2
		}
		if err := cli.IssueToken(os.Stdout, authz.NewManager(cfg.JWTSecret, cfg.JWTIssuer), args[1], args[2], 24*time.Hour); err != nil {
			logger.Error("issue token", slog.Any("error", err))
			return 1
		}
		return 0
	default:
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
}

func serve(cfg *app.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		applied, err := db.Migrate(ctx, pool, migrations.FS)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", slog.Int("count", len(applied)))
	}

	metrics := observability.NewMetrics()

	var redisClient *redis.Client
	var jobHandler *jobs.Handler
	if app.UseRedis(cfg) {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, running without cache and distributed locks", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			opts, err := cfg.RedisClientOpt()
			if err != nil {
				return err
			}
			inspector := asynq.NewInspector(opts)
			defer func() { _ = inspector.Close() }()
			jobHandler = jobs.NewHandler(inspector, logger)
		}
	}
	if jobHandler == nil {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	svc, err := app.NewLedgerService(cfg, app.LedgerDeps{
		Pool:    pool,
		Redis:   redisClient,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	tokens := authz.NewManager(cfg.JWTSecret, cfg.JWTIssuer)
	ledgerHandler := ledger.NewHandler(logger, svc, authz.Middleware{Tokens: tokens, Logger: logger})

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		LedgerHandler: ledgerHandler,
		JobHandler:    jobHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", cfg.Location().String()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
