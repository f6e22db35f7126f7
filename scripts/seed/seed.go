package main

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/meatstock/internal/ledger"
)

type seedFile struct {
	Date                 string     `yaml:"date"`
	Notes                *string    `yaml:"notes"`
	ShopStockDescription *string    `yaml:"shop_stock_description"`
	OpeningStock         []seedLine `yaml:"opening_stock"`
}

type seedLine struct {
	ProductType string `yaml:"product_type"`
	Category    string `yaml:"category"`
	Pieces      int64  `yaml:"pieces"`
	Weight      string `yaml:"weight"`
}

// parseSeed turns a seed document into an upsert for its date.
func parseSeed(raw []byte) (ledger.UpsertInput, error) {
	var doc seedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return ledger.UpsertInput{}, err
	}
	if doc.Date == "" {
		return ledger.UpsertInput{}, errors.New("date is required")
	}
	date, err := ledger.ParseDate(doc.Date)
	if err != nil {
		return ledger.UpsertInput{}, err
	}
	lines := make([]ledger.ProductLine, 0, len(doc.OpeningStock))
	for i, l := range doc.OpeningStock {
		weight := decimal.Zero
		if l.Weight != "" {
			weight, err = decimal.NewFromString(l.Weight)
			if err != nil {
				return ledger.UpsertInput{}, fmt.Errorf("opening_stock[%d].weight: %w", i, err)
			}
		}
		lines = append(lines, ledger.ProductLine{
			ProductType: l.ProductType,
			Category:    l.Category,
			Pieces:      l.Pieces,
			Weight:      weight,
		})
	}
	return ledger.UpsertInput{
		Date:                 date,
		OpeningStock:         &lines,
		Notes:                doc.Notes,
		ShopStockDescription: doc.ShopStockDescription,
	}, nil
}
