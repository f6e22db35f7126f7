package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/meatstock/internal/platform/db"
)

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Ledger, error)
	GetByDateForUpdate(ctx context.Context, date time.Time) (Ledger, error)
	Insert(ctx context.Context, l Ledger) error
	Update(ctx context.Context, l Ledger) error
}

// Repository persists daily ledgers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txRepo struct {
	q querier
}

// WithTx executes fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{q: tx})
	})
}

const ledgerColumns = `id, ledger_date, status, opening_stock, purchases, available_stock, transfers,
	remaining_stock, reconciliation, final_stock, shop_stock_description, notes,
	created_at, updated_at, created_by, last_modified_by`

// GetByID loads a ledger by identifier.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Ledger, error) {
	return scanLedger(r.pool.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM daily_ledgers WHERE id=$1`, id))
}

// GetByDate loads the ledger of a calendar day.
func (r *Repository) GetByDate(ctx context.Context, date time.Time) (Ledger, error) {
	return scanLedger(r.pool.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM daily_ledgers WHERE ledger_date=$1`, pgDate(date)))
}

// ListRange returns ledgers between from and to inclusive, newest first.
func (r *Repository) ListRange(ctx context.Context, from, to time.Time) ([]Ledger, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ledgerColumns+` FROM daily_ledgers
		WHERE ledger_date BETWEEN $1 AND $2 ORDER BY ledger_date DESC`, pgDate(from), pgDate(to))
	if err != nil {
		return nil, fmt.Errorf("ledger: list range: %w", err)
	}
	defer rows.Close()
	var out []Ledger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *txRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Ledger, error) {
	return scanLedger(r.q.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM daily_ledgers WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepo) GetByDateForUpdate(ctx context.Context, date time.Time) (Ledger, error) {
	return scanLedger(r.q.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM daily_ledgers WHERE ledger_date=$1 FOR UPDATE`, pgDate(date)))
}

func (r *txRepo) Insert(ctx context.Context, l Ledger) error {
	doc, err := encodeDocument(l)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `INSERT INTO daily_ledgers (`+ledgerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		l.ID, pgDate(l.Date), string(l.Status),
		doc.opening, doc.purchases, doc.available, doc.transfers, doc.remaining, doc.reconciliation, doc.final,
		l.ShopStockDescription, l.Notes, l.CreatedAt, l.UpdatedAt, l.CreatedBy, l.LastModifiedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateDate
		}
		return fmt.Errorf("ledger: insert: %w", err)
	}
	return nil
}

func (r *txRepo) Update(ctx context.Context, l Ledger) error {
	doc, err := encodeDocument(l)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `UPDATE daily_ledgers SET status=$2, opening_stock=$3, purchases=$4,
		available_stock=$5, transfers=$6, remaining_stock=$7, reconciliation=$8, final_stock=$9,
		shop_stock_description=$10, notes=$11, updated_at=$12, last_modified_by=$13
		WHERE id=$1`,
		l.ID, string(l.Status),
		doc.opening, doc.purchases, doc.available, doc.transfers, doc.remaining, doc.reconciliation, doc.final,
		l.ShopStockDescription, l.Notes, l.UpdatedAt, l.LastModifiedBy)
	if err != nil {
		return fmt.Errorf("ledger: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLedgerNotFound
	}
	return nil
}

type document struct {
	opening, purchases, available, transfers, remaining, reconciliation, final []byte
}

func encodeDocument(l Ledger) (document, error) {
	var (
		doc document
		err error
	)
	fields := []struct {
		dst *[]byte
		src any
	}{
		{&doc.opening, nonNil(l.OpeningStock)},
		{&doc.purchases, nonNilPurchases(l.Purchases)},
		{&doc.available, nonNil(l.AvailableStock)},
		{&doc.transfers, nonNilTransfers(l.Transfers)},
		{&doc.remaining, nonNil(l.RemainingStock)},
		{&doc.reconciliation, nonNilRecon(l.Reconciliation)},
		{&doc.final, nonNil(l.FinalStock)},
	}
	for _, f := range fields {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return document{}, fmt.Errorf("ledger: encode document: %w", err)
		}
	}
	return doc, nil
}

func scanLedger(row pgx.Row) (Ledger, error) {
	var (
		l      Ledger
		status string
		doc    document
	)
	err := row.Scan(&l.ID, &l.Date, &status,
		&doc.opening, &doc.purchases, &doc.available, &doc.transfers, &doc.remaining, &doc.reconciliation, &doc.final,
		&l.ShopStockDescription, &l.Notes, &l.CreatedAt, &l.UpdatedAt, &l.CreatedBy, &l.LastModifiedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ledger{}, ErrLedgerNotFound
		}
		return Ledger{}, fmt.Errorf("ledger: scan: %w", err)
	}
	l.Status = Status(status)
	if !l.Status.Valid() {
		return Ledger{}, fmt.Errorf("ledger: scan: unknown status %q", status)
	}
	l.Date = NormalizeDate(l.Date, time.UTC)
	fields := []struct {
		src []byte
		dst any
	}{
		{doc.opening, &l.OpeningStock},
		{doc.purchases, &l.Purchases},
		{doc.available, &l.AvailableStock},
		{doc.transfers, &l.Transfers},
		{doc.remaining, &l.RemainingStock},
		{doc.reconciliation, &l.Reconciliation},
		{doc.final, &l.FinalStock},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return Ledger{}, fmt.Errorf("ledger: decode document: %w", err)
		}
	}
	return l, nil
}

func pgDate(t time.Time) time.Time {
	return NormalizeDate(t, time.UTC)
}

func nonNil(lines []ProductLine) []ProductLine {
	if lines == nil {
		return []ProductLine{}
	}
	return lines
}

func nonNilPurchases(p []Purchase) []Purchase {
	if p == nil {
		return []Purchase{}
	}
	return p
}

func nonNilTransfers(t []Transfer) []Transfer {
	if t == nil {
		return []Transfer{}
	}
	return t
}

func nonNilRecon(r []ReconciliationLine) []ReconciliationLine {
	if r == nil {
		return []ReconciliationLine{}
	}
	return r
}
