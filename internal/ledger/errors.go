package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrLedgerNotFound indicates no ledger for the id or date.
	ErrLedgerNotFound = errors.New("ledger: inventory not found")
	// ErrPurchaseNotFound indicates an unknown purchase id.
	ErrPurchaseNotFound = errors.New("ledger: purchase not found")
	// ErrTransferNotFound indicates an unknown transfer id.
	ErrTransferNotFound = errors.New("ledger: transfer not found")
	// ErrDuplicateDate is returned when a ledger for the date already exists.
	ErrDuplicateDate = errors.New("ledger: inventory already exists for date")

	// ErrNotReconciled blocks finalize outside RECONCILED.
	ErrNotReconciled = errors.New("ledger: inventory must be reconciled before finalizing")
	// ErrLedgerFinalized blocks mutations on a finalized day.
	ErrLedgerFinalized = errors.New("ledger: inventory is finalized")
	// ErrNotFinalized blocks unfinalize outside FINALIZED.
	ErrNotFinalized = errors.New("ledger: inventory is not finalized")
	// ErrNextDayFinalized blocks chaining into a finalized next day.
	ErrNextDayFinalized = errors.New("ledger: next day is already finalized")
	// ErrOpeningStockLocked blocks editing opening stock carried from a finalized day.
	ErrOpeningStockLocked = errors.New("ledger: opening stock is carried from a finalized day")
	// ErrForbidden is returned when a privileged operation is attempted by a non-admin.
	ErrForbidden = errors.New("ledger: admin role required")

	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("ledger: invalid input")
	// ErrInsufficientStock matches any *InsufficientStockError.
	ErrInsufficientStock = errors.New("ledger: insufficient stock")
)

// InsufficientStockError names the product and quantities of a rejected transfer line.
type InsufficientStockError struct {
	ProductType string
	Unit        string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	if e.Available.IsZero() && e.Unit == unitPieces {
		return fmt.Sprintf("Cannot transfer %s: No available stock. Available: 0 pieces.", e.ProductType)
	}
	return fmt.Sprintf("Cannot transfer %s %s of %s: Only %s %s available.",
		e.Requested.String(), e.Unit, e.ProductType, e.Available.String(), e.Unit)
}

// Is lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

const (
	unitPieces = "pieces"
	unitKg     = "kg"
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
