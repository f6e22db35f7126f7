package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileFormat struct {
	Products        []Entry  `yaml:"products"`
	Shops           []Entry  `yaml:"shops"`
	PartsCategories []string `yaml:"parts_categories"`
}

// Load reads a YAML catalog. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if doc.PartsCategories == nil {
		doc.PartsCategories = []string{CategoryBeefParts, CategoryMuttonParts}
	}
	return New(doc.Products, doc.Shops, doc.PartsCategories)
}
