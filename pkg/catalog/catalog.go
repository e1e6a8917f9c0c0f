// Package catalog holds the immutable product list and the listing query
// used by the products page.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var seedYAML []byte

// FeaturedCount is the number of products shown on the home page
const FeaturedCount = 4

var (
	// ErrEmptyCatalog is returned when a catalog document lists no products
	ErrEmptyCatalog = errors.New("catalog has no products")
	// ErrDuplicateProduct is returned when two products share an id
	ErrDuplicateProduct = errors.New("duplicate product id")
	// ErrInvalidProduct is returned for products missing required data
	ErrInvalidProduct = errors.New("invalid product")
	// ErrProductNotFound is returned by Get for unknown ids
	ErrProductNotFound = errors.New("product not found")
)

// Product is a catalog entry. Price is in whole rupees.
type Product struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Price       int     `json:"price" yaml:"price"`
	ImageURL    string  `json:"image_url" yaml:"image_url"`
	Description string  `json:"description" yaml:"description"`
	Rating      float64 `json:"rating" yaml:"rating"`
	Category    string  `json:"category" yaml:"category"`
}

type document struct {
	Products []Product `yaml:"products"`
}

// Catalog is a read-only, ordered product collection
type Catalog struct {
	products []Product
	byID     map[string]int
}

// Seed returns the built-in catalog
func Seed() *Catalog {
	c, err := Parse(seedYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded seed is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file, or returns the seed when path is empty.
// YAML and JSON documents are both accepted.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Seed(), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("unsupported catalog file format: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document of the form {products: [...]}
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(doc.Products)
}

// New builds a catalog from products, keeping their order
func New(products []Product) (*Catalog, error) {
	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	copy(c.products, products)

	for i, p := range c.products {
		switch {
		case p.ID == "":
			return nil, fmt.Errorf("%w: product %d has no id", ErrInvalidProduct, i)
		case p.Name == "":
			return nil, fmt.Errorf("%w: product %s has no name", ErrInvalidProduct, p.ID)
		case p.Price < 0:
			return nil, fmt.Errorf("%w: product %s has a negative price", ErrInvalidProduct, p.ID)
		case p.Rating < 0 || p.Rating > 5:
			return nil, fmt.Errorf("%w: product %s rating %.1f out of range", ErrInvalidProduct, p.ID, p.Rating)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		c.byID[p.ID] = i
	}

	return c, nil
}

// All returns a copy of every product in catalog order
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len returns the number of products
func (c *Catalog) Len() int {
	return len(c.products)
}

// Find looks up a product by id
func (c *Catalog) Find(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Get is Find with an error for unknown ids
func (c *Catalog) Get(id string) (Product, error) {
	p, ok := c.Find(id)
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return p, nil
}

// Featured returns the first n products
func (c *Catalog) Featured(n int) []Product {
	if n > len(c.products) {
		n = len(c.products)
	}
	if n < 0 {
		n = 0
	}
	out := make([]Product, n)
	copy(out, c.products[:n])
	return out
}

// Categories returns the distinct categories, sorted
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}
