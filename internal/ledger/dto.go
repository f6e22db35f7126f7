package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ProductLineRequest is the wire form of a product line.
type ProductLineRequest struct {
	ProductType   string          `json:"product_type" validate:"required"`
	Category      string          `json:"category"`
	Pieces        int64           `json:"pieces" validate:"gte=0"`
	Weight        decimal.Decimal `json:"weight" validate:"gte=0"`
	PricePerKg    decimal.Decimal `json:"price_per_kg" validate:"gte=0"`
	VATPercentage decimal.Decimal `json:"vat_percentage" validate:"gte=0,lte=100"`
}

// UpsertRequest replaces the editable fields of a ledger by date.
type UpsertRequest struct {
	Date                 string                `json:"date" validate:"required"`
	OpeningStock         *[]ProductLineRequest `json:"opening_stock" validate:"omitempty,dive"`
	Notes                *string               `json:"notes"`
	ShopStockDescription *string               `json:"shop_stock_description" validate:"omitempty,max=4000"`
}

// PurchaseRequest records or replaces a purchase.
type PurchaseRequest struct {
	Supplier    string               `json:"supplier" validate:"required,max=200"`
	Products    []ProductLineRequest `json:"products" validate:"required,min=1,dive"`
	PurchasedAt *time.Time           `json:"purchased_at"`
	Notes       string               `json:"notes" validate:"max=2000"`
}

// TransferRequest records or replaces a transfer.
type TransferRequest struct {
	Shop          string               `json:"shop" validate:"required"`
	Products      []ProductLineRequest `json:"products" validate:"required,min=1,dive"`
	TransferredAt *time.Time           `json:"transferred_at"`
	Notes         string               `json:"notes" validate:"max=2000"`
}

// ReconciliationLineRequest is one physical count. Omitted actuals take the calculated value.
type ReconciliationLineRequest struct {
	ProductType  string           `json:"product_type" validate:"required"`
	ActualPieces *int64           `json:"actual_pieces" validate:"omitempty,gte=0"`
	ActualWeight *decimal.Decimal `json:"actual_weight" validate:"omitempty,gte=0"`
	Notes        string           `json:"notes" validate:"max=2000"`
}

// ReconciliationRequest replaces the reconciliation list.
type ReconciliationRequest struct {
	Reconciliation []ReconciliationLineRequest `json:"reconciliation" validate:"dive"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError turns validator output into ErrInvalidInput.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s item", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func (r ProductLineRequest) line() ProductLine {
	return ProductLine{
		ProductType:   r.ProductType,
		Category:      r.Category,
		Pieces:        r.Pieces,
		Weight:        r.Weight,
		PricePerKg:    r.PricePerKg,
		VATPercentage: r.VATPercentage,
	}
}

func toLines(in []ProductLineRequest) []ProductLine {
	out := make([]ProductLine, len(in))
	for i, r := range in {
		out[i] = r.line()
	}
	return out
}

func (r UpsertRequest) input() (UpsertInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return UpsertInput{}, err
	}
	in := UpsertInput{Date: date, Notes: r.Notes, ShopStockDescription: r.ShopStockDescription}
	if r.OpeningStock != nil {
		lines := toLines(*r.OpeningStock)
		in.OpeningStock = &lines
	}
	return in, nil
}

func (r PurchaseRequest) input() PurchaseInput {
	in := PurchaseInput{Supplier: r.Supplier, Products: toLines(r.Products), Notes: r.Notes}
	if r.PurchasedAt != nil {
		in.PurchasedAt = *r.PurchasedAt
	}
	return in
}

func (r TransferRequest) input() TransferInput {
	in := TransferInput{Shop: r.Shop, Products: toLines(r.Products), Notes: r.Notes}
	if r.TransferredAt != nil {
		in.TransferredAt = *r.TransferredAt
	}
	return in
}

func (r ReconciliationRequest) input() []ReconciliationInput {
	out := make([]ReconciliationInput, len(r.Reconciliation))
	for i, line := range r.Reconciliation {
		out[i] = ReconciliationInput{
			ProductType:  line.ProductType,
			ActualPieces: line.ActualPieces,
			ActualWeight: line.ActualWeight,
			Notes:        line.Notes,
		}
	}
	return out
}
