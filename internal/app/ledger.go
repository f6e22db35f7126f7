package app

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/meatstock/internal/catalog"
	"github.com/odyssey-erp/meatstock/internal/ledger"
	"github.com/odyssey-erp/meatstock/internal/observability"
	"github.com/odyssey-erp/meatstock/internal/shared"
)

// LedgerDeps carries the infrastructure the ledger service runs on. Redis
// and Metrics are optional.
type LedgerDeps struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// NewLedgerService wires the ledger service against Postgres and, when
// configured, Redis.
func NewLedgerService(cfg *Config, deps LedgerDeps) (*ledger.Service, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	svcCfg := ledger.ServiceConfig{
		Catalog:     cat,
		Locker:      ledgerLocker(cfg, deps.Redis, deps.Logger),
		Logger:      deps.Logger,
		Location:    cfg.Location(),
		HistoryDays: cfg.HistoryDays,
	}
	if deps.Redis != nil {
		svcCfg.Cache = ledger.NewReportCache(deps.Redis, cfg.CacheTTL)
	}
	if deps.Metrics != nil {
		svcCfg.Metrics = deps.Metrics
	}
	return ledger.NewService(
		ledger.NewRepository(deps.Pool),
		shared.NewAuditLogger(deps.Pool),
		shared.NewIdempotencyStore(deps.Pool),
		svcCfg,
	), nil
}

// ledgerLocker serializes per date in process and, with Redis, across replicas.
func ledgerLocker(cfg *Config, rdb *redis.Client, logger *slog.Logger) ledger.Locker {
	local := ledger.NewKeyedMutex()
	if rdb == nil {
		return local
	}
	return ledger.ChainLocker{local, ledger.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockTTL, logger)}
}
