package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/meatstock/internal/catalog"
)

var hundred = decimal.NewFromInt(100)

// Calculator derives available, remaining and final stock. It performs no I/O.
type Calculator struct {
	catalog *catalog.Catalog
}

// NewCalculator binds a calculator to a product catalog.
func NewCalculator(c *catalog.Catalog) *Calculator {
	if c == nil {
		c = catalog.Default()
	}
	return &Calculator{catalog: c}
}

type bucket struct {
	pieces int64
	weight decimal.Decimal
}

func (b bucket) empty() bool {
	return b.pieces <= 0 && !b.weight.IsPositive()
}

func (c *Calculator) buckets() map[string]*bucket {
	out := make(map[string]*bucket)
	for _, p := range c.catalog.Products() {
		out[p.Code] = &bucket{}
	}
	return out
}

// emit returns non-empty buckets in catalog order with quantities clamped at zero.
func (c *Calculator) emit(totals map[string]*bucket) []ProductLine {
	out := []ProductLine{}
	for _, p := range c.catalog.Products() {
		b := totals[p.Code]
		if b == nil || b.empty() {
			continue
		}
		out = append(out, stockLine(p.Code, max(b.pieces, 0), decimal.Max(b.weight, decimal.Zero)))
	}
	return out
}

// Available sums opening stock and purchase lines by product type.
func (c *Calculator) Available(opening []ProductLine, purchases []Purchase) []ProductLine {
	totals := c.buckets()
	add := func(line ProductLine) {
		if b, ok := totals[line.ProductType]; ok {
			b.pieces += line.Pieces
			b.weight = b.weight.Add(line.Weight)
		}
	}
	for _, line := range opening {
		add(line)
	}
	for _, p := range purchases {
		for _, line := range p.Products {
			add(line)
		}
	}
	return c.emit(totals)
}

// Remaining subtracts transfer lines from available stock. Parts categories
// only lose weight. Buckets already at zero absorb nothing.
func (c *Calculator) Remaining(available []ProductLine, transfers []Transfer) []ProductLine {
	totals := c.buckets()
	for _, line := range available {
		if b, ok := totals[line.ProductType]; ok {
			b.pieces = line.Pieces
			b.weight = line.Weight
		}
	}
	for _, t := range transfers {
		for _, line := range t.Products {
			b, ok := totals[line.ProductType]
			if !ok || b.empty() {
				continue
			}
			if !c.catalog.IsPartsCategory(line.Category) {
				b.pieces -= line.Pieces
			}
			b.weight = b.weight.Sub(line.Weight)
		}
	}
	return c.emit(totals)
}

// Reconcile refreshes the calculated side of each line from remaining stock
// and recomputes differences. Lines keep their order.
func (c *Calculator) Reconcile(remaining []ProductLine, lines []ReconciliationLine) []ReconciliationLine {
	index := indexLines(remaining)
	out := make([]ReconciliationLine, len(lines))
	for i, line := range lines {
		calc := index[line.ProductType]
		line.CalculatedPieces = calc.Pieces
		line.CalculatedWeight = calc.Weight
		line.DifferencePieces = line.ActualPieces - line.CalculatedPieces
		line.DifferenceWeight = line.ActualWeight.Sub(line.CalculatedWeight)
		out[i] = line
	}
	return out
}

// ReconcileInput turns operator counts into reconciliation lines. Missing
// actuals take the calculated value.
func (c *Calculator) ReconcileInput(remaining []ProductLine, input []ReconciliationInput) []ReconciliationLine {
	index := indexLines(remaining)
	lines := make([]ReconciliationLine, 0, len(input))
	for _, in := range input {
		calc := index[in.ProductType]
		line := ReconciliationLine{
			ProductType:  in.ProductType,
			ActualPieces: calc.Pieces,
			ActualWeight: calc.Weight,
			Notes:        in.Notes,
		}
		if in.ActualPieces != nil {
			line.ActualPieces = *in.ActualPieces
		}
		if in.ActualWeight != nil {
			line.ActualWeight = *in.ActualWeight
		}
		lines = append(lines, line)
	}
	return c.Reconcile(remaining, lines)
}

// Recompute refreshes every derived list on l from its authoritative inputs.
func (c *Calculator) Recompute(l *Ledger) {
	l.AvailableStock = c.Available(l.OpeningStock, l.Purchases)
	l.RemainingStock = c.Remaining(l.AvailableStock, l.Transfers)
	if len(l.Reconciliation) > 0 {
		l.Reconciliation = c.Reconcile(l.RemainingStock, l.Reconciliation)
		l.FinalStock = FinalStock(l.Reconciliation)
	}
}

// FinalStock returns one cost-free line per reconciliation line using the actual counts.
func FinalStock(lines []ReconciliationLine) []ProductLine {
	out := make([]ProductLine, 0, len(lines))
	for _, r := range lines {
		out = append(out, stockLine(r.ProductType, r.ActualPieces, r.ActualWeight))
	}
	return out
}

// CarryForward strips the cost basis so final stock can open the next day.
func CarryForward(final []ProductLine) []ProductLine {
	out := make([]ProductLine, 0, len(final))
	for _, line := range final {
		out = append(out, stockLine(line.ProductType, line.Pieces, line.Weight))
	}
	return out
}

// PriceLine fills subtotal, VAT amount and total cost from price, weight and VAT percentage.
func PriceLine(line ProductLine) ProductLine {
	line.Subtotal = line.PricePerKg.Mul(line.Weight)
	line.VATAmount = line.Subtotal.Mul(line.VATPercentage).Div(hundred)
	line.TotalCost = line.Subtotal.Add(line.VATAmount)
	return line
}

// PricePurchase reprices every line and sums the purchase totals.
func PricePurchase(p Purchase) Purchase {
	p.Subtotal, p.VATAmount = decimal.Zero, decimal.Zero
	lines := make([]ProductLine, len(p.Products))
	for i, line := range p.Products {
		line = PriceLine(line)
		p.Subtotal = p.Subtotal.Add(line.Subtotal)
		p.VATAmount = p.VATAmount.Add(line.VATAmount)
		lines[i] = line
	}
	p.Products = lines
	p.TotalCost = p.Subtotal.Add(p.VATAmount)
	return p
}

// CheckTransfer rejects a transfer whose lines exceed available stock.
// Each line is compared to the available bucket on its own.
func (c *Calculator) CheckTransfer(available []ProductLine, lines []ProductLine) error {
	index := indexLines(available)
	for _, line := range lines {
		avail := index[line.ProductType]
		if avail.Pieces == 0 {
			return &InsufficientStockError{
				ProductType: line.ProductType,
				Unit:        unitPieces,
				Available:   decimal.Zero,
				Requested:   decimal.NewFromInt(line.Pieces),
			}
		}
		if line.Pieces > avail.Pieces {
			return &InsufficientStockError{
				ProductType: line.ProductType,
				Unit:        unitPieces,
				Available:   decimal.NewFromInt(avail.Pieces),
				Requested:   decimal.NewFromInt(line.Pieces),
			}
		}
		if line.Weight.GreaterThan(avail.Weight) {
			return &InsufficientStockError{
				ProductType: line.ProductType,
				Unit:        unitKg,
				Available:   avail.Weight,
				Requested:   line.Weight,
			}
		}
	}
	return nil
}

func indexLines(lines []ProductLine) map[string]ProductLine {
	out := make(map[string]ProductLine, len(lines))
	for _, line := range lines {
		out[line.ProductType] = line
	}
	return out
}

func stockLine(productType string, pieces int64, weight decimal.Decimal) ProductLine {
	return ProductLine{
		ProductType:   productType,
		Pieces:        pieces,
		Weight:        weight,
		PricePerKg:    decimal.Zero,
		Subtotal:      decimal.Zero,
		VATPercentage: decimal.Zero,
		VATAmount:     decimal.Zero,
		TotalCost:     decimal.Zero,
	}
}
