package ledger

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/meatstock/internal/catalog"
)

func testCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		[]catalog.Entry{{Code: "LAMB"}, {Code: "GOAT"}, {Code: "BEEF"}},
		[]catalog.Entry{{Code: "SHOP_47"}, {Code: "SHOP_43"}},
		[]string{catalog.CategoryBeefParts, catalog.CategoryMuttonParts},
	)
	require.NoError(t, err)
	return c
}

func kg(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func line(product string, pieces int64, weight string) ProductLine {
	return ProductLine{ProductType: product, Pieces: pieces, Weight: kg(weight)}
}

func requireStock(t *testing.T, lines []ProductLine, product string, pieces int64, weight string) {
	t.Helper()
	for _, l := range lines {
		if l.ProductType == product {
			require.Equal(t, pieces, l.Pieces, "pieces of %s", product)
			require.True(t, kg(weight).Equal(l.Weight), "weight of %s: want %s got %s", product, weight, l.Weight)
			return
		}
	}
	t.Fatalf("product %s not found in %+v", product, lines)
}

func TestAvailableConservesOpeningAndPurchases(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	opening := []ProductLine{line("LAMB", 10, "20"), line("GOAT", 2, "7.5")}
	purchases := []Purchase{
		{Products: []ProductLine{line("LAMB", 5, "10"), line("BEEF", 1, "40.25")}},
		{Products: []ProductLine{line("GOAT", 3, "4.5"), line("UNKNOWN", 9, "9")}},
	}

	available := calc.Available(opening, purchases)

	require.Len(t, available, 3)
	requireStock(t, available, "LAMB", 15, "30")
	requireStock(t, available, "GOAT", 5, "12")
	requireStock(t, available, "BEEF", 1, "40.25")
	for _, l := range available {
		require.True(t, l.PricePerKg.IsZero())
		require.True(t, l.TotalCost.IsZero())
	}
}

func TestAvailableOmitsEmptyProducts(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	available := calc.Available([]ProductLine{line("LAMB", 0, "0")}, nil)
	require.Empty(t, available)
	require.NotNil(t, available)
}

func TestRemainingClampsAtZero(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	available := []ProductLine{line("LAMB", 3, "6"), line("GOAT", 4, "2")}
	transfers := []Transfer{
		{Products: []ProductLine{line("LAMB", 5, "1")}},
		{Products: []ProductLine{line("GOAT", 1, "5")}},
	}

	remaining := calc.Remaining(available, transfers)

	requireStock(t, remaining, "LAMB", 0, "5")
	requireStock(t, remaining, "GOAT", 3, "0")
	for _, l := range remaining {
		require.GreaterOrEqual(t, l.Pieces, int64(0))
		require.False(t, l.Weight.IsNegative())
	}
}

func TestRemainingSkipsEmptyBuckets(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	available := []ProductLine{line("LAMB", 2, "4")}
	transfers := []Transfer{
		{Products: []ProductLine{line("LAMB", 2, "4")}},
		{Products: []ProductLine{line("LAMB", 1, "1")}},
		{Products: []ProductLine{line("BEEF", 1, "1")}},
	}
	require.Empty(t, calc.Remaining(available, transfers))
}

func TestRemainingPartsCategoryKeepsPieces(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	available := []ProductLine{line("BEEF", 4, "100"), line("LAMB", 6, "30")}
	parts := line("BEEF", 2, "25")
	parts.Category = catalog.CategoryBeefParts
	mutton := line("LAMB", 3, "5")
	mutton.Category = catalog.CategoryMuttonParts
	whole := line("LAMB", 1, "5")

	remaining := calc.Remaining(available, []Transfer{{Products: []ProductLine{parts, mutton, whole}}})

	requireStock(t, remaining, "BEEF", 4, "75")
	requireStock(t, remaining, "LAMB", 5, "20")
}

func TestReconcileInputDefaultsActualToCalculated(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	remaining := []ProductLine{line("LAMB", 10, "20"), line("GOAT", 1, "3")}
	pieces := int64(8)
	weight := kg("19")

	lines := calc.ReconcileInput(remaining, []ReconciliationInput{
		{ProductType: "LAMB", ActualPieces: &pieces, ActualWeight: &weight, Notes: "two missing"},
		{ProductType: "GOAT"},
		{ProductType: "BEEF", ActualWeight: &weight},
	})

	require.Len(t, lines, 3)
	require.Equal(t, int64(-2), lines[0].DifferencePieces)
	require.True(t, kg("-1").Equal(lines[0].DifferenceWeight))
	require.Equal(t, "two missing", lines[0].Notes)

	require.Equal(t, int64(1), lines[1].ActualPieces)
	require.Zero(t, lines[1].DifferencePieces)
	require.True(t, lines[1].DifferenceWeight.IsZero())

	require.Zero(t, lines[2].CalculatedPieces)
	require.True(t, kg("19").Equal(lines[2].DifferenceWeight))

	final := FinalStock(lines)
	require.Len(t, final, 3)
	requireStock(t, final, "LAMB", 8, "19")
	requireStock(t, final, "BEEF", 0, "19")
}

func TestRecomputeIsIdempotent(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	parts := line("BEEF", 1, "3")
	parts.Category = catalog.CategoryBeefParts
	l := Ledger{
		OpeningStock: []ProductLine{line("LAMB", 10, "20.5"), line("BEEF", 2, "50")},
		Purchases:    []Purchase{{Products: []ProductLine{line("GOAT", 4, "12.125")}}},
		Transfers:    []Transfer{{Products: []ProductLine{line("LAMB", 3, "6"), parts}}},
		Reconciliation: []ReconciliationLine{
			{ProductType: "LAMB", ActualPieces: 7, ActualWeight: kg("14")},
		},
	}

	calc.Recompute(&l)
	first, err := json.Marshal(l)
	require.NoError(t, err)
	calc.Recompute(&l)
	second, err := json.Marshal(l)
	require.NoError(t, err)

	require.Equal(t, string(first), string(second))
	requireStock(t, l.RemainingStock, "BEEF", 2, "47")
	require.Equal(t, int64(7), l.Reconciliation[0].CalculatedPieces)
}

func TestCheckTransfer(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	available := []ProductLine{line("LAMB", 15, "30")}

	cases := []struct {
		name    string
		line    ProductLine
		message string
	}{
		{"no stock", line("GOAT", 1, "1"), "Cannot transfer GOAT: No available stock. Available: 0 pieces."},
		{"too many pieces", line("LAMB", 20, "10"), "Cannot transfer 20 pieces of LAMB: Only 15 pieces available."},
		{"too much weight", line("LAMB", 5, "30.5"), "Cannot transfer 30.5 kg of LAMB: Only 30 kg available."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := calc.CheckTransfer(available, []ProductLine{line("LAMB", 1, "1"), tc.line})
			require.ErrorIs(t, err, ErrInsufficientStock)
			var stockErr *InsufficientStockError
			require.True(t, errors.As(err, &stockErr))
			require.Equal(t, tc.line.ProductType, stockErr.ProductType)
			require.Equal(t, tc.message, err.Error())
		})
	}

	require.NoError(t, calc.CheckTransfer(available, []ProductLine{line("LAMB", 15, "30")}))
}

func TestPricePurchase(t *testing.T) {
	p := PricePurchase(Purchase{Products: []ProductLine{
		{ProductType: "LAMB", Weight: kg("10"), PricePerKg: kg("25"), VATPercentage: kg("5")},
		{ProductType: "GOAT", Weight: kg("2.5"), PricePerKg: kg("40")},
	}})

	require.True(t, kg("250").Equal(p.Products[0].Subtotal))
	require.True(t, kg("12.5").Equal(p.Products[0].VATAmount))
	require.True(t, kg("262.5").Equal(p.Products[0].TotalCost))
	require.True(t, kg("350").Equal(p.Subtotal))
	require.True(t, kg("12.5").Equal(p.VATAmount))
	require.True(t, kg("362.5").Equal(p.TotalCost))
}

func TestLambScenario(t *testing.T) {
	calc := NewCalculator(testCatalog(t))
	l := Ledger{
		OpeningStock: []ProductLine{line("LAMB", 10, "20")},
		Purchases:    []Purchase{{Products: []ProductLine{line("LAMB", 5, "10")}}},
	}
	calc.Recompute(&l)
	requireStock(t, l.AvailableStock, "LAMB", 15, "30")

	require.ErrorIs(t, calc.CheckTransfer(l.AvailableStock, []ProductLine{line("LAMB", 20, "10")}), ErrInsufficientStock)

	accepted := []ProductLine{line("LAMB", 5, "10")}
	require.NoError(t, calc.CheckTransfer(l.AvailableStock, accepted))
	l.Transfers = append(l.Transfers, Transfer{Products: accepted})
	calc.Recompute(&l)
	requireStock(t, l.RemainingStock, "LAMB", 10, "20")
}
