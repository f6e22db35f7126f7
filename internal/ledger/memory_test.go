package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/meatstock/internal/shared"
)

// memoryRepo stores ledgers in maps. Transactions stage writes and apply
// them on success only.
type memoryRepo struct {
	mu      sync.Mutex
	txMu    sync.Mutex
	ledgers map[uuid.UUID]Ledger
	failTx  error
}

type memoryTx struct {
	repo    *memoryRepo
	staged  map[uuid.UUID]Ledger
	updates int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{ledgers: make(map[uuid.UUID]Ledger)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	tx := &memoryTx{repo: r, staged: make(map[uuid.UUID]Ledger)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTx != nil {
		return r.failTx
	}
	for id, l := range tx.staged {
		r.ledgers[id] = l
	}
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ledgers[id]
	if !ok {
		return Ledger{}, ErrLedgerNotFound
	}
	return l.Clone(), nil
}

func (r *memoryRepo) GetByDate(_ context.Context, date time.Time) (Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byDate(r.ledgers, date)
}

func (r *memoryRepo) byDate(set map[uuid.UUID]Ledger, date time.Time) (Ledger, error) {
	for _, l := range set {
		if l.Date.Equal(date) {
			return l.Clone(), nil
		}
	}
	return Ledger{}, ErrLedgerNotFound
}

func (r *memoryRepo) ListRange(_ context.Context, from, to time.Time) ([]Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Ledger
	for _, l := range r.ledgers {
		if !l.Date.Before(from) && !l.Date.After(to) {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ledgers)
}

func (tx *memoryTx) view() map[uuid.UUID]Ledger {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	out := make(map[uuid.UUID]Ledger, len(tx.repo.ledgers))
	for id, l := range tx.repo.ledgers {
		out[id] = l
	}
	for id, l := range tx.staged {
		out[id] = l
	}
	return out
}

func (tx *memoryTx) GetByIDForUpdate(_ context.Context, id uuid.UUID) (Ledger, error) {
	l, ok := tx.view()[id]
	if !ok {
		return Ledger{}, ErrLedgerNotFound
	}
	return l.Clone(), nil
}

func (tx *memoryTx) GetByDateForUpdate(_ context.Context, date time.Time) (Ledger, error) {
	return tx.repo.byDate(tx.view(), date)
}

func (tx *memoryTx) Insert(_ context.Context, l Ledger) error {
	for _, existing := range tx.view() {
		if existing.Date.Equal(l.Date) {
			return ErrDuplicateDate
		}
	}
	tx.staged[l.ID] = l.Clone()
	return nil
}

func (tx *memoryTx) Update(_ context.Context, l Ledger) error {
	if _, ok := tx.view()[l.ID]; !ok {
		return ErrLedgerNotFound
	}
	tx.updates++
	tx.staged[l.ID] = l.Clone()
	return nil
}

type memoryAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *memoryAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]string)}
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = module
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type memoryMetrics struct {
	mu       sync.Mutex
	ops      map[string]int
	failed   map[string]int
	rejected map[string]int
}

func newMemoryMetrics() *memoryMetrics {
	return &memoryMetrics{ops: map[string]int{}, failed: map[string]int{}, rejected: map[string]int{}}
}

func (m *memoryMetrics) ObserveOperation(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op]++
	if err != nil {
		m.failed[op]++
	}
}

func (m *memoryMetrics) ObserveRejectedTransfer(productType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[productType]++
}

var errStoreDown = errors.New("store unavailable")

func (r *memoryRepo) setFailTx(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failTx = err
}
