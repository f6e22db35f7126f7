package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates the daily ledger lifecycle.
type Status string

const (
	// StatusDraft is the initial state of a new day.
	StatusDraft Status = "DRAFT"
	// StatusInProgress marks a day with recorded purchases or transfers.
	StatusInProgress Status = "IN_PROGRESS"
	// StatusReconciled is set when physical counts are saved.
	StatusReconciled Status = "RECONCILED"
	// StatusFinalized locks the day and seeds the next one.
	StatusFinalized Status = "FINALIZED"
)

// StatusNotStarted is reported by summaries for a date with no ledger.
const StatusNotStarted = "NOT_STARTED"

// DateLayout is the wire format of ledger dates.
const DateLayout = "2006-01-02"

// ProductLine is one product's quantity and cost record.
type ProductLine struct {
	ProductType   string          `json:"product_type"`
	Category      string          `json:"category,omitempty"`
	Pieces        int64           `json:"pieces"`
	Weight        decimal.Decimal `json:"weight"`
	PricePerKg    decimal.Decimal `json:"price_per_kg"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	VATPercentage decimal.Decimal `json:"vat_percentage"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// IsZero reports whether the line carries no quantity.
func (p ProductLine) IsZero() bool {
	return p.Pieces == 0 && p.Weight.IsZero()
}

// Purchase is a supplier delivery recorded against a day.
type Purchase struct {
	ID          uuid.UUID       `json:"id"`
	Supplier    string          `json:"supplier"`
	Products    []ProductLine   `json:"products"`
	PurchasedAt time.Time       `json:"purchased_at"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Notes       string          `json:"notes,omitempty"`
}

// Transfer is stock sent to one shop.
type Transfer struct {
	ID            uuid.UUID     `json:"id"`
	Shop          string        `json:"shop"`
	Products      []ProductLine `json:"products"`
	TransferredAt time.Time     `json:"transferred_at"`
	Notes         string        `json:"notes,omitempty"`
}

// ReconciliationLine compares calculated against counted stock for one product.
type ReconciliationLine struct {
	ProductType      string          `json:"product_type"`
	CalculatedPieces int64           `json:"calculated_pieces"`
	CalculatedWeight decimal.Decimal `json:"calculated_weight"`
	ActualPieces     int64           `json:"actual_pieces"`
	ActualWeight     decimal.Decimal `json:"actual_weight"`
	DifferencePieces int64           `json:"difference_pieces"`
	DifferenceWeight decimal.Decimal `json:"difference_weight"`
	Notes            string          `json:"notes,omitempty"`
}

// ReconciliationInput is an operator count. Nil actuals default to the calculated value.
type ReconciliationInput struct {
	ProductType  string
	ActualPieces *int64
	ActualWeight *decimal.Decimal
	Notes        string
}

// Ledger is the aggregate root for one calendar day.
type Ledger struct {
	ID                   uuid.UUID            `json:"id"`
	Date                 time.Time            `json:"date"`
	OpeningStock         []ProductLine        `json:"opening_stock"`
	Purchases            []Purchase           `json:"purchases"`
	AvailableStock       []ProductLine        `json:"available_stock"`
	Transfers            []Transfer           `json:"transfers"`
	RemainingStock       []ProductLine        `json:"remaining_stock"`
	Reconciliation       []ReconciliationLine `json:"reconciliation"`
	FinalStock           []ProductLine        `json:"final_stock"`
	Status               Status               `json:"status"`
	ShopStockDescription string               `json:"shop_stock_description"`
	Notes                string               `json:"notes,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	CreatedBy            string               `json:"created_by,omitempty"`
	LastModifiedBy       string               `json:"last_modified_by,omitempty"`
}

// DateKey returns the ledger date in wire format.
func (l Ledger) DateKey() string {
	return l.Date.Format(DateLayout)
}

// Clone returns a deep copy safe to mutate.
func (l Ledger) Clone() Ledger {
	out := l
	out.OpeningStock = cloneLines(l.OpeningStock)
	out.AvailableStock = cloneLines(l.AvailableStock)
	out.RemainingStock = cloneLines(l.RemainingStock)
	out.FinalStock = cloneLines(l.FinalStock)
	if l.Reconciliation != nil {
		out.Reconciliation = append([]ReconciliationLine{}, l.Reconciliation...)
	}
	if l.Purchases != nil {
		out.Purchases = make([]Purchase, len(l.Purchases))
		for i, p := range l.Purchases {
			p.Products = cloneLines(p.Products)
			out.Purchases[i] = p
		}
	}
	if l.Transfers != nil {
		out.Transfers = make([]Transfer, len(l.Transfers))
		for i, t := range l.Transfers {
			t.Products = cloneLines(t.Products)
			out.Transfers[i] = t
		}
	}
	return out
}

func cloneLines(lines []ProductLine) []ProductLine {
	if lines == nil {
		return nil
	}
	return append([]ProductLine{}, lines...)
}

// Actor identifies the caller performing an operation.
type Actor struct {
	ID    string
	Admin bool
}

func (a Actor) name() string {
	if a.ID == "" {
		return "system"
	}
	return a.ID
}

// NormalizeDate truncates t to midnight UTC of its calendar day in loc.
func NormalizeDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD ledger date.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return d, nil
}

// UpsertInput replaces ledger fields by date. Nil fields are left untouched.
type UpsertInput struct {
	Date                 time.Time
	OpeningStock         *[]ProductLine
	Notes                *string
	ShopStockDescription *string
}

// PurchaseInput carries a supplier delivery.
type PurchaseInput struct {
	Supplier    string
	Products    []ProductLine
	PurchasedAt time.Time
	Notes       string
}

// TransferInput carries stock sent to a shop.
type TransferInput struct {
	Shop          string
	Products      []ProductLine
	TransferredAt time.Time
	Notes         string
}

// HistoryFilter bounds the history listing, inclusive on both ends.
type HistoryFilter struct {
	From time.Time
	To   time.Time
}

// Summary reports today's progress.
type Summary struct {
	Date           string          `json:"date"`
	TodayStatus    string          `json:"today_status"`
	TotalPurchases int             `json:"total_purchases"`
	TotalTransfers int             `json:"total_transfers"`
	PurchaseCost   decimal.Decimal `json:"purchase_cost"`
	IsReconciled   bool            `json:"is_reconciled"`
}
