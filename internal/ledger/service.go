package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/meatstock/internal/catalog"
	"github.com/odyssey-erp/meatstock/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByID(ctx context.Context, id uuid.UUID) (Ledger, error)
	GetByDate(ctx context.Context, date time.Time) (Ledger, error)
	ListRange(ctx context.Context, from, to time.Time) ([]Ledger, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards replayed create requests.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// MetricsPort receives operation outcomes.
type MetricsPort interface {
	ObserveOperation(op string, err error)
	ObserveRejectedTransfer(productType string)
}

// CachePort caches read-only reports.
type CachePort interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// ServiceConfig groups optional collaborators and settings.
type ServiceConfig struct {
	Catalog     *catalog.Catalog
	Locker      Locker
	Cache       CachePort
	Metrics     MetricsPort
	Logger      *slog.Logger
	Location    *time.Location
	HistoryDays int
}

// Service coordinates daily ledger operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	catalog     *catalog.Catalog
	calc        *Calculator
	locker      Locker
	cache       CachePort
	metrics     MetricsPort
	logger      *slog.Logger
	loc         *time.Location
	historyDays int
	now         func() time.Time
	creating    singleflight.Group
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, cfg ServiceConfig) *Service {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Locker == nil {
		cfg.Locker = NewKeyedMutex()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 30
	}
	return &Service{
		repo:        repo,
		audit:       audit,
		idempotency: idem,
		catalog:     cfg.Catalog,
		calc:        NewCalculator(cfg.Catalog),
		locker:      cfg.Locker,
		cache:       cfg.Cache,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		loc:         cfg.Location,
		historyDays: cfg.HistoryDays,
		now:         time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Catalog exposes the product and shop catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Today returns the calendar date of now in the ledger timezone.
func (s *Service) Today() time.Time {
	return NormalizeDate(s.now(), s.loc)
}

// Get loads a ledger by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Ledger, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByDate loads the ledger for date without creating it.
func (s *Service) GetByDate(ctx context.Context, date time.Time) (Ledger, error) {
	return s.repo.GetByDate(ctx, NormalizeDate(date, time.UTC))
}

// GetOrCreate returns the ledger for date, creating it seeded from the
// previous day's final stock when absent.
func (s *Service) GetOrCreate(ctx context.Context, date time.Time, actor Actor) (Ledger, error) {
	date = NormalizeDate(date, time.UTC)
	l, err := s.repo.GetByDate(ctx, date)
	if err == nil || !errors.Is(err, ErrLedgerNotFound) {
		return l, err
	}
	key := date.Format(DateLayout)
	ch := s.creating.DoChan(key, func() (any, error) {
		return s.create(context.WithoutCancel(ctx), date, actor)
	})
	select {
	case <-ctx.Done():
		return Ledger{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Ledger{}, res.Err
		}
		created := res.Val.(Ledger)
		return created.Clone(), nil
	}
}

func (s *Service) create(ctx context.Context, date time.Time, actor Actor) (l Ledger, err error) {
	defer func() { s.observe("create", err) }()
	unlock, err := s.locker.Lock(ctx, shared.LedgerLockKey(date))
	if err != nil {
		return Ledger{}, err
	}
	defer unlock()

	created := false
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetByDateForUpdate(ctx, date)
		if err == nil {
			l = existing
			return nil
		}
		if !errors.Is(err, ErrLedgerNotFound) {
			return err
		}
		l, err = s.seed(ctx, date, actor)
		if err != nil {
			return err
		}
		if err := tx.Insert(ctx, l); err != nil {
			return err
		}
		created = true
		return nil
	})
	if errors.Is(err, ErrDuplicateDate) {
		return s.repo.GetByDate(ctx, date)
	}
	if err != nil {
		return Ledger{}, err
	}
	if created {
		s.afterMutation(ctx, l, "ledger.create", actor, nil)
	}
	return l, nil
}

// seed builds a new DRAFT ledger whose opening stock is the previous day's final stock.
func (s *Service) seed(ctx context.Context, date time.Time, actor Actor) (Ledger, error) {
	now := s.now().UTC()
	l := Ledger{
		ID:             uuid.New(),
		Date:           date,
		OpeningStock:   []ProductLine{},
		Purchases:      []Purchase{},
		Transfers:      []Transfer{},
		Reconciliation: []ReconciliationLine{},
		FinalStock:     []ProductLine{},
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      actor.name(),
		LastModifiedBy: actor.name(),
	}
	prev, err := s.repo.GetByDate(ctx, date.AddDate(0, 0, -1))
	switch {
	case err == nil:
		l.OpeningStock = CarryForward(prev.FinalStock)
	case !errors.Is(err, ErrLedgerNotFound):
		return Ledger{}, err
	}
	s.calc.Recompute(&l)
	return l, nil
}

// Upsert replaces opening stock, notes and shop stock description of the ledger for a date.
func (s *Service) Upsert(ctx context.Context, in UpsertInput, actor Actor) (l Ledger, err error) {
	defer func() { s.observe("upsert", err) }()
	if in.Date.IsZero() {
		return Ledger{}, invalidf("date required")
	}
	date := NormalizeDate(in.Date, time.UTC)
	var opening []ProductLine
	if in.OpeningStock != nil {
		if opening, err = validateLines(s.catalog, "opening stock", *in.OpeningStock, false); err != nil {
			return Ledger{}, err
		}
	}
	unlock, err := s.locker.Lock(ctx, shared.LedgerLockKey(date))
	if err != nil {
		return Ledger{}, err
	}
	defer unlock()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var insert bool
		l, err = tx.GetByDateForUpdate(ctx, date)
		if errors.Is(err, ErrLedgerNotFound) {
			if l, err = s.seed(ctx, date, actor); err != nil {
				return err
			}
			insert = true
		} else if err != nil {
			return err
		}
		if err := CheckMutation(l.Status, MutationUpsert); err != nil {
			return err
		}
		if in.OpeningStock != nil {
			prev, err := s.repo.GetByDate(ctx, date.AddDate(0, 0, -1))
			if err == nil && prev.Status == StatusFinalized {
				return ErrOpeningStockLocked
			}
			if err != nil && !errors.Is(err, ErrLedgerNotFound) {
				return err
			}
			l.OpeningStock = CarryForward(opening)
		}
		if in.Notes != nil {
			l.Notes = *in.Notes
		}
		if in.ShopStockDescription != nil {
			l.ShopStockDescription = *in.ShopStockDescription
		}
		s.calc.Recompute(&l)
		s.touch(&l, actor)
		if insert {
			return tx.Insert(ctx, l)
		}
		return tx.Update(ctx, l)
	})
	if err != nil {
		return Ledger{}, err
	}
	s.afterMutation(ctx, l, "ledger.upsert", actor, map[string]any{"opening_stock_replaced": in.OpeningStock != nil})
	return l, nil
}

// AddPurchase records a supplier delivery and refreshes derived stock.
func (s *Service) AddPurchase(ctx context.Context, id uuid.UUID, in PurchaseInput, idemKey string, actor Actor) (Ledger, error) {
	p, err := s.buildPurchase(uuid.New(), in)
	if err != nil {
		s.observe("purchase.add", err)
		return Ledger{}, err
	}
	return s.withIdempotency(ctx, idemKey, "purchase", func() (Ledger, error) {
		return s.mutate(ctx, id, MutationPurchase, "purchase.add", actor, map[string]any{"purchase_id": p.ID.String()}, func(l *Ledger) error {
			l.Purchases = append(l.Purchases, p)
			return nil
		})
	})
}

// UpdatePurchase replaces a purchase, keeping its id.
func (s *Service) UpdatePurchase(ctx context.Context, id, purchaseID uuid.UUID, in PurchaseInput, actor Actor) (Ledger, error) {
	p, err := s.buildPurchase(purchaseID, in)
	if err != nil {
		s.observe("purchase.update", err)
		return Ledger{}, err
	}
	return s.mutate(ctx, id, MutationPurchase, "purchase.update", actor, map[string]any{"purchase_id": purchaseID.String()}, func(l *Ledger) error {
		for i := range l.Purchases {
			if l.Purchases[i].ID == purchaseID {
				l.Purchases[i] = p
				return nil
			}
		}
		return ErrPurchaseNotFound
	})
}

// DeletePurchase removes a purchase by id.
func (s *Service) DeletePurchase(ctx context.Context, id, purchaseID uuid.UUID, actor Actor) (Ledger, error) {
	return s.mutate(ctx, id, MutationPurchase, "purchase.delete", actor, map[string]any{"purchase_id": purchaseID.String()}, func(l *Ledger) error {
		for i := range l.Purchases {
			if l.Purchases[i].ID == purchaseID {
				l.Purchases = append(l.Purchases[:i:i], l.Purchases[i+1:]...)
				return nil
			}
		}
		return ErrPurchaseNotFound
	})
}

func (s *Service) buildPurchase(id uuid.UUID, in PurchaseInput) (Purchase, error) {
	supplier := strings.TrimSpace(in.Supplier)
	if supplier == "" {
		return Purchase{}, invalidf("supplier required")
	}
	lines, err := validateLines(s.catalog, "purchase", in.Products, true)
	if err != nil {
		return Purchase{}, err
	}
	at := in.PurchasedAt
	if at.IsZero() {
		at = s.now()
	}
	return PricePurchase(Purchase{
		ID:          id,
		Supplier:    supplier,
		Products:    lines,
		PurchasedAt: at.UTC(),
		Notes:       in.Notes,
	}), nil
}

// AddTransfer records stock sent to a shop after checking it against available stock.
func (s *Service) AddTransfer(ctx context.Context, id uuid.UUID, in TransferInput, idemKey string, actor Actor) (Ledger, error) {
	t, err := s.buildTransfer(uuid.New(), in)
	if err != nil {
		s.observe("transfer.add", err)
		return Ledger{}, err
	}
	return s.withIdempotency(ctx, idemKey, "transfer", func() (Ledger, error) {
		return s.mutate(ctx, id, MutationTransfer, "transfer.add", actor, map[string]any{"transfer_id": t.ID.String(), "shop": t.Shop}, func(l *Ledger) error {
			if err := s.checkTransfer(l, t); err != nil {
				return err
			}
			l.Transfers = append(l.Transfers, t)
			return nil
		})
	})
}

// UpdateTransfer replaces a transfer, keeping its id.
func (s *Service) UpdateTransfer(ctx context.Context, id, transferID uuid.UUID, in TransferInput, actor Actor) (Ledger, error) {
	t, err := s.buildTransfer(transferID, in)
	if err != nil {
		s.observe("transfer.update", err)
		return Ledger{}, err
	}
	return s.mutate(ctx, id, MutationTransfer, "transfer.update", actor, map[string]any{"transfer_id": transferID.String(), "shop": t.Shop}, func(l *Ledger) error {
		for i := range l.Transfers {
			if l.Transfers[i].ID == transferID {
				if err := s.checkTransfer(l, t); err != nil {
					return err
				}
				l.Transfers[i] = t
				return nil
			}
		}
		return ErrTransferNotFound
	})
}

// DeleteTransfer removes a transfer by id.
func (s *Service) DeleteTransfer(ctx context.Context, id, transferID uuid.UUID, actor Actor) (Ledger, error) {
	return s.mutate(ctx, id, MutationTransfer, "transfer.delete", actor, map[string]any{"transfer_id": transferID.String()}, func(l *Ledger) error {
		for i := range l.Transfers {
			if l.Transfers[i].ID == transferID {
				l.Transfers = append(l.Transfers[:i:i], l.Transfers[i+1:]...)
				return nil
			}
		}
		return ErrTransferNotFound
	})
}

func (s *Service) buildTransfer(id uuid.UUID, in TransferInput) (Transfer, error) {
	shop := strings.TrimSpace(in.Shop)
	if !s.catalog.HasShop(shop) {
		return Transfer{}, invalidf("unknown shop %q", shop)
	}
	lines, err := validateLines(s.catalog, "transfer", in.Products, true)
	if err != nil {
		return Transfer{}, err
	}
	at := in.TransferredAt
	if at.IsZero() {
		at = s.now()
	}
	return Transfer{
		ID:            id,
		Shop:          shop,
		Products:      lines,
		TransferredAt: at.UTC(),
		Notes:         in.Notes,
	}, nil
}

func (s *Service) checkTransfer(l *Ledger, t Transfer) error {
	available := s.calc.Available(l.OpeningStock, l.Purchases)
	err := s.calc.CheckTransfer(available, t.Products)
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) && s.metrics != nil {
		s.metrics.ObserveRejectedTransfer(stockErr.ProductType)
	}
	return err
}

// SaveReconciliation replaces the reconciliation list and marks the ledger RECONCILED.
// A FINALIZED ledger is rejected with ErrLedgerFinalized; unfinalize it first.
func (s *Service) SaveReconciliation(ctx context.Context, id uuid.UUID, input []ReconciliationInput, actor Actor) (Ledger, error) {
	if err := validateReconciliation(s.catalog, input); err != nil {
		s.observe("reconciliation", err)
		return Ledger{}, err
	}
	return s.mutate(ctx, id, MutationReconciliation, "reconciliation", actor, map[string]any{"lines": len(input)}, func(l *Ledger) error {
		s.calc.Recompute(l)
		l.Reconciliation = s.calc.ReconcileInput(l.RemainingStock, input)
		l.FinalStock = FinalStock(l.Reconciliation)
		return nil
	})
}

// Recalculate re-derives all stock lists from the ledger's inputs.
func (s *Service) Recalculate(ctx context.Context, id uuid.UUID, actor Actor) (Ledger, error) {
	return s.mutate(ctx, id, MutationRecalculate, "recalculate", actor, nil, func(*Ledger) error { return nil })
}

// Unfinalize reopens a finalized ledger as DRAFT. Recorded data is untouched
// and next-day opening stock already carried forward stays in place.
func (s *Service) Unfinalize(ctx context.Context, id uuid.UUID, actor Actor) (Ledger, error) {
	if !actor.Admin {
		s.observe("unfinalize", ErrForbidden)
		return Ledger{}, ErrForbidden
	}
	return s.mutate(ctx, id, MutationUnfinalize, "unfinalize", actor, nil, nil)
}

// Finalize locks a RECONCILED ledger and carries its final stock into the next day.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID, actor Actor) (l Ledger, err error) {
	defer func() { s.observe("finalize", err) }()
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Ledger{}, err
	}
	date := current.Date
	nextDate := date.AddDate(0, 0, 1)
	unlock, err := s.locker.Lock(ctx, shared.LedgerLockKey(date))
	if err != nil {
		return Ledger{}, err
	}
	defer unlock()
	unlockNext, err := s.locker.Lock(ctx, shared.LedgerLockKey(nextDate))
	if err != nil {
		return Ledger{}, err
	}
	defer unlockNext()

	var next Ledger
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		l, err = tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := Transition(&l, MutationFinalize); err != nil {
			return err
		}
		if len(l.FinalStock) == 0 {
			l.FinalStock = FinalStock(l.Reconciliation)
		}
		s.touch(&l, actor)

		next, err = s.chain(ctx, tx, l, actor)
		if err != nil {
			return err
		}
		return tx.Update(ctx, l)
	})
	if err != nil {
		return Ledger{}, err
	}
	s.afterMutation(ctx, l, "ledger.finalize", actor, map[string]any{"next_ledger_id": next.ID.String()})
	s.logger.Info("ledger finalized",
		slog.String("date", l.DateKey()),
		slog.String("next_date", next.DateKey()),
		slog.Int("final_lines", len(l.FinalStock)))
	return l, nil
}

// chain writes l's final stock as the opening stock of the following day,
// creating that day when absent.
func (s *Service) chain(ctx context.Context, tx TxRepository, l Ledger, actor Actor) (Ledger, error) {
	nextDate := l.Date.AddDate(0, 0, 1)
	next, err := tx.GetByDateForUpdate(ctx, nextDate)
	if errors.Is(err, ErrLedgerNotFound) {
		now := s.now().UTC()
		next = Ledger{
			ID:             uuid.New(),
			Date:           nextDate,
			OpeningStock:   CarryForward(l.FinalStock),
			Purchases:      []Purchase{},
			Transfers:      []Transfer{},
			Reconciliation: []ReconciliationLine{},
			FinalStock:     []ProductLine{},
			Status:         StatusDraft,
			CreatedAt:      now,
			UpdatedAt:      now,
			CreatedBy:      actor.name(),
			LastModifiedBy: actor.name(),
		}
		s.calc.Recompute(&next)
		return next, tx.Insert(ctx, next)
	}
	if err != nil {
		return Ledger{}, err
	}
	if next.Status == StatusFinalized {
		return Ledger{}, ErrNextDayFinalized
	}
	next.OpeningStock = CarryForward(l.FinalStock)
	s.calc.Recompute(&next)
	s.touch(&next, actor)
	return next, tx.Update(ctx, next)
}

// mutate runs fn on the ledger under the day lock inside one transaction.
// A nil fn changes only the status and skips recomputation.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, op Mutation, name string, actor Actor, meta map[string]any, fn func(*Ledger) error) (l Ledger, err error) {
	defer func() { s.observe(name, err) }()
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Ledger{}, err
	}
	unlock, err := s.locker.Lock(ctx, shared.LedgerLockKey(current.Date))
	if err != nil {
		return Ledger{}, err
	}
	defer unlock()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		l, err = tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := Transition(&l, op); err != nil {
			return err
		}
		if fn != nil {
			if err := fn(&l); err != nil {
				return err
			}
			s.calc.Recompute(&l)
		}
		s.touch(&l, actor)
		return tx.Update(ctx, l)
	})
	if err != nil {
		return Ledger{}, err
	}
	s.afterMutation(ctx, l, "ledger."+name, actor, meta)
	return l, nil
}

func (s *Service) withIdempotency(ctx context.Context, key, operation string, fn func() (Ledger, error)) (Ledger, error) {
	key = strings.TrimSpace(key)
	if key == "" || s.idempotency == nil {
		return fn()
	}
	if err := s.idempotency.CheckAndInsert(ctx, key, shared.IdempotencyModule(operation)); err != nil {
		return Ledger{}, err
	}
	l, err := fn()
	if err != nil {
		if delErr := s.idempotency.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", delErr))
		}
		return Ledger{}, err
	}
	return l, nil
}

func (s *Service) touch(l *Ledger, actor Actor) {
	l.UpdatedAt = s.now().UTC()
	l.LastModifiedBy = actor.name()
}

func (s *Service) afterMutation(ctx context.Context, l Ledger, action string, actor Actor, meta map[string]any) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump ledger cache", slog.Any("error", err))
		}
	}
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["date"] = l.DateKey()
	meta["status"] = string(l.Status)
	if err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor.name(),
		Action:   action,
		Entity:   "daily_ledger",
		EntityID: l.ID.String(),
		Meta:     meta,
		At:       s.now().UTC(),
	}); err != nil {
		s.logger.Warn("record ledger audit", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, err)
	}
}

// History lists ledgers in the filter range, newest first. A zero range
// covers the configured number of days up to today.
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]Ledger, error) {
	to := filter.To
	if to.IsZero() {
		to = s.Today()
	}
	from := filter.From
	if from.IsZero() {
		from = to.AddDate(0, 0, -s.historyDays)
	}
	from, to = NormalizeDate(from, time.UTC), NormalizeDate(to, time.UTC)
	if from.After(to) {
		return nil, invalidf("from must not be after to")
	}
	load := func(ctx context.Context) (any, error) {
		items, err := s.repo.ListRange(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []Ledger{}
		}
		return items, nil
	}
	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]Ledger), nil
	}
	key, err := s.cache.BuildKey(ctx, "history", from.Format(DateLayout), to.Format(DateLayout))
	if err != nil {
		return nil, err
	}
	var out []Ledger
	if err := s.cache.FetchJSON(ctx, key, &out, load); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary reports today's ledger status without creating it.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	today := s.Today()
	load := func(ctx context.Context) (any, error) {
		sum := Summary{Date: today.Format(DateLayout), TodayStatus: StatusNotStarted}
		l, err := s.repo.GetByDate(ctx, today)
		if errors.Is(err, ErrLedgerNotFound) {
			return sum, nil
		}
		if err != nil {
			return nil, err
		}
		sum.TodayStatus = string(l.Status)
		sum.TotalPurchases = len(l.Purchases)
		sum.TotalTransfers = len(l.Transfers)
		for _, p := range l.Purchases {
			sum.PurchaseCost = sum.PurchaseCost.Add(p.TotalCost)
		}
		sum.IsReconciled = l.Status == StatusReconciled || l.Status == StatusFinalized
		return sum, nil
	}
	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return Summary{}, err
		}
		return v.(Summary), nil
	}
	key, err := s.cache.BuildKey(ctx, "summary", today.Format(DateLayout))
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	if err := s.cache.FetchJSON(ctx, key, &out, load); err != nil {
		return Summary{}, fmt.Errorf("ledger: summary: %w", err)
	}
	return out, nil
}
