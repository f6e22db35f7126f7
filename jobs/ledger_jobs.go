package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/meatstock/internal/jobs"
	"github.com/odyssey-erp/meatstock/internal/ledger"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LedgerService is the subset of the ledger service the jobs drive.
type LedgerService interface {
	Today() time.Time
	GetOrCreate(ctx context.Context, date time.Time, actor ledger.Actor) (ledger.Ledger, error)
	GetByDate(ctx context.Context, date time.Time) (ledger.Ledger, error)
	Recalculate(ctx context.Context, id uuid.UUID, actor ledger.Actor) (ledger.Ledger, error)
}

// KeyCleaner prunes idempotency keys.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// LedgerJobs handles the scheduled ledger tasks.
type LedgerJobs struct {
	Service LedgerService
	Keys    KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

var workerActor = ledger.Actor{ID: "worker"}

// NewLedgerJobs wires dependencies for the ledger task handlers.
func NewLedgerJobs(svc LedgerService, keys KeyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerJobs {
	return &LedgerJobs{Service: svc, Keys: keys, Logger: logger, Metrics: metrics}
}

// Handlers lists the task handlers for WorkerConfig.
func (j *LedgerJobs) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskLedgerOpenDay, Handler: j.HandleOpenDay},
		{Type: TaskLedgerRecalculate, Handler: j.HandleRecalculate},
		{Type: TaskIdempotencyCleanup, Handler: j.HandleIdempotencyCleanup},
	}
}

// HandleOpenDay makes sure the ledger for the payload date exists.
func (j *LedgerJobs) HandleOpenDay(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Service == nil {
		return errors.New("open day: handler not configured")
	}
	date, err := j.payloadDate(t, true)
	if err != nil {
		return err
	}
	tracker := j.metrics().Track(TaskLedgerOpenDay)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.String("date", date.Format(dateLayout)))
	l, err := j.Service.GetOrCreate(ctx, date, workerActor)
	if err != nil {
		logger.Error("open ledger day", slog.Any("error", err))
		return err
	}
	seeded := len(l.OpeningStock) > 0
	j.metrics().AddOpenedDay(seeded)
	logger.Info("ledger day open", slog.String("ledger_id", l.ID.String()), slog.String("status", string(l.Status)), slog.Bool("seeded", seeded))
	return nil
}

// HandleRecalculate re-derives stock for the ledger of the payload date.
func (j *LedgerJobs) HandleRecalculate(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Service == nil {
		return errors.New("recalculate: handler not configured")
	}
	date, err := j.payloadDate(t, false)
	if err != nil {
		return err
	}
	tracker := j.metrics().Track(TaskLedgerRecalculate)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.String("date", date.Format(dateLayout)))
	l, err := j.Service.GetByDate(ctx, date)
	if errors.Is(err, ledger.ErrLedgerNotFound) {
		logger.Warn("no ledger to recalculate")
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if err != nil {
		return err
	}
	if _, err := j.Service.Recalculate(ctx, l.ID, workerActor); err != nil {
		if errors.Is(err, ledger.ErrLedgerFinalized) {
			logger.Warn("ledger finalized, recalculation skipped")
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		logger.Error("recalculate ledger", slog.Any("error", err))
		return err
	}
	logger.Info("ledger recalculated", slog.String("ledger_id", l.ID.String()))
	return nil
}

// HandleIdempotencyCleanup removes idempotency keys past the payload age.
func (j *LedgerJobs) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload CleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.OlderThan <= 0 {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	removed, err := j.Keys.Cleanup(ctx, payload.OlderThan)
	if err != nil {
		j.logger().Error("idempotency cleanup", slog.Any("error", err))
		return err
	}
	j.logger().Info("idempotency keys pruned", slog.Int64("removed", removed), slog.Duration("older_than", payload.OlderThan))
	return nil
}

func (j *LedgerJobs) payloadDate(t *asynq.Task, allowToday bool) (time.Time, error) {
	var payload DatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return time.Time{}, asynq.SkipRetry
	}
	if payload.Date == "" {
		if !allowToday {
			return time.Time{}, asynq.SkipRetry
		}
		return j.Service.Today(), nil
	}
	date, err := ledger.ParseDate(payload.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return date, nil
}

func (j *LedgerJobs) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *LedgerJobs) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
