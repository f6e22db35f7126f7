package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/meatstock/internal/catalog"
)

func validateLines(cat *catalog.Catalog, kind string, lines []ProductLine, requireLines bool) ([]ProductLine, error) {
	if requireLines && len(lines) == 0 {
		return nil, invalidf("%s requires at least one product", kind)
	}
	out := make([]ProductLine, len(lines))
	for i, line := range lines {
		line.ProductType = strings.TrimSpace(line.ProductType)
		line.Category = strings.TrimSpace(line.Category)
		if !cat.HasProduct(line.ProductType) {
			return nil, invalidf("%s line %d: unknown product type %q", kind, i+1, line.ProductType)
		}
		if !cat.ValidCategory(line.Category) {
			return nil, invalidf("%s line %d: unknown category %q", kind, i+1, line.Category)
		}
		if line.Pieces < 0 {
			return nil, invalidf("%s line %d: pieces must not be negative", kind, i+1)
		}
		if line.Weight.IsNegative() {
			return nil, invalidf("%s line %d: weight must not be negative", kind, i+1)
		}
		if line.PricePerKg.IsNegative() {
			return nil, invalidf("%s line %d: price must not be negative", kind, i+1)
		}
		if line.VATPercentage.IsNegative() || line.VATPercentage.GreaterThan(hundred) {
			return nil, invalidf("%s line %d: vat percentage must be between 0 and 100", kind, i+1)
		}
		out[i] = line
	}
	return out, nil
}

func validateReconciliation(cat *catalog.Catalog, input []ReconciliationInput) error {
	seen := make(map[string]struct{}, len(input))
	for i, in := range input {
		if !cat.HasProduct(in.ProductType) {
			return invalidf("reconciliation line %d: unknown product type %q", i+1, in.ProductType)
		}
		if _, dup := seen[in.ProductType]; dup {
			return invalidf("reconciliation line %d: duplicate product type %s", i+1, in.ProductType)
		}
		seen[in.ProductType] = struct{}{}
		if in.ActualPieces != nil && *in.ActualPieces < 0 {
			return invalidf("reconciliation line %d: actual pieces must not be negative", i+1)
		}
		if in.ActualWeight != nil && in.ActualWeight.LessThan(decimal.Zero) {
			return invalidf("reconciliation line %d: actual weight must not be negative", i+1)
		}
	}
	return nil
}
