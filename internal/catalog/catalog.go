// Package catalog holds the fixed product and shop enumerations used by the ledger.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Parts categories track weight only through transfers.
const (
	CategoryBeefParts   = "BEEF PARTS"
	CategoryMuttonParts = "MUTTON PARTS"
)

// Entry is a catalog code with its display name.
type Entry struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Catalog is an immutable set of product types, shops and parts categories.
type Catalog struct {
	products []Entry
	shops    []Entry
	parts    []string

	productIndex map[string]int
	shopIndex    map[string]int
	partsIndex   map[string]struct{}
}

// ErrEmptyCatalog indicates a catalog without products or shops.
var ErrEmptyCatalog = errors.New("catalog: products and shops required")

// New validates entries and builds a Catalog. Missing display names are derived from the code.
func New(products, shops []Entry, partsCategories []string) (*Catalog, error) {
	if len(products) == 0 || len(shops) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		productIndex: make(map[string]int, len(products)),
		shopIndex:    make(map[string]int, len(shops)),
		partsIndex:   make(map[string]struct{}, len(partsCategories)),
	}
	var err error
	if c.products, err = normalizeEntries("product", products, c.productIndex); err != nil {
		return nil, err
	}
	if c.shops, err = normalizeEntries("shop", shops, c.shopIndex); err != nil {
		return nil, err
	}
	for _, p := range partsCategories {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := c.partsIndex[p]; dup {
			continue
		}
		c.partsIndex[p] = struct{}{}
		c.parts = append(c.parts, p)
	}
	return c, nil
}

func normalizeEntries(kind string, in []Entry, index map[string]int) ([]Entry, error) {
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		code := strings.TrimSpace(e.Code)
		if code == "" {
			return nil, fmt.Errorf("catalog: %s code required", kind)
		}
		if _, dup := index[code]; dup {
			return nil, fmt.Errorf("catalog: duplicate %s code %s", kind, code)
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = displayName(code)
		}
		index[code] = len(out)
		out = append(out, Entry{Code: code, Name: name})
	}
	return out, nil
}

// displayName turns SHOP_47 into "Shop 47".
func displayName(code string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.ReplaceAll(code, "_", " ")))
}

// Default returns the built-in meat product and shop catalog.
func Default() *Catalog {
	c, err := New(
		[]Entry{
			{Code: "KK_KENYA_LAMB", Name: "KK (Kenya Lamb)"},
			{Code: "KENYA_BAKRA_GOAT", Name: "Kenya Bakra (Goat)"},
			{Code: "BEEF_DASTI_SHOULDER", Name: "Beef Dasti (Shoulder)"},
			{Code: "BEEF_RAAN_LEG", Name: "Beef Raan (Leg)"},
			{Code: "AFQ_AFRICA_LAMB", Name: "AFQ (Africa Lamb)"},
			{Code: "MAHALI_LOCAL_LAMB", Name: "Mahali (Local Lamb)"},
			{Code: "AUSTRALIAN_LAMB", Name: "Australian Lamb"},
			{Code: "KAZAKHSTAN_LAMB", Name: "Kazakhstan Lamb"},
		},
		[]Entry{
			{Code: "SHOP_47", Name: "Shop 47"},
			{Code: "SHOP_43", Name: "Shop 43"},
			{Code: "SHOP_59", Name: "Shop 59"},
		},
		[]string{CategoryBeefParts, CategoryMuttonParts},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Products lists product types in catalog order.
func (c *Catalog) Products() []Entry {
	out := make([]Entry, len(c.products))
	copy(out, c.products)
	return out
}

// Shops lists shops in catalog order.
func (c *Catalog) Shops() []Entry {
	out := make([]Entry, len(c.shops))
	copy(out, c.shops)
	return out
}

// PartsCategories lists categories whose pieces are not decremented on transfer.
func (c *Catalog) PartsCategories() []string {
	out := make([]string, len(c.parts))
	copy(out, c.parts)
	return out
}

// HasProduct reports whether code is a known product type.
func (c *Catalog) HasProduct(code string) bool {
	_, ok := c.productIndex[code]
	return ok
}

// HasShop reports whether code is a known shop.
func (c *Catalog) HasShop(code string) bool {
	_, ok := c.shopIndex[code]
	return ok
}

// IsPartsCategory reports whether the category tracks weight only.
func (c *Catalog) IsPartsCategory(category string) bool {
	_, ok := c.partsIndex[category]
	return ok
}

// ValidCategory accepts the empty category or a parts category.
func (c *Catalog) ValidCategory(category string) bool {
	return category == "" || c.IsPartsCategory(category)
}

// ProductNames maps product code to display name.
func (c *Catalog) ProductNames() map[string]string {
	return names(c.products)
}

// ShopNames maps shop code to display name.
func (c *Catalog) ShopNames() map[string]string {
	return names(c.shops)
}

func names(entries []Entry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Code] = e.Name
	}
	return out
}
