package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	c := Seed()
	require.Equal(t, 8, c.Len())

	p, ok := c.Find("1")
	require.True(t, ok)
	assert.Equal(t, "Premium Wireless Headphones", p.Name)
	assert.Equal(t, 15999, p.Price)
	assert.Equal(t, 4.5, p.Rating)
	assert.Equal(t, "Electronics", p.Category)
	assert.True(t, strings.HasPrefix(p.ImageURL, "https://images.unsplash.com/"))
	assert.NotEmpty(t, p.Description)

	_, ok = c.Find("99")
	assert.False(t, ok)
	_, err := c.Get("99")
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.Equal(t, []string{"Accessories", "Electronics", "Fashion"}, c.Categories())
}

func TestFeatured(t *testing.T) {
	c := Seed()

	featured := c.Featured(FeaturedCount)
	require.Len(t, featured, 4)
	for i, p := range featured {
		assert.Equal(t, c.All()[i].ID, p.ID)
	}

	assert.Len(t, c.Featured(100), 8)
	assert.Empty(t, c.Featured(-1))
}

func TestAllReturnsCopy(t *testing.T) {
	c := Seed()
	all := c.All()
	all[0].Name = "changed"

	p, _ := c.Find(all[0].ID)
	assert.Equal(t, "Premium Wireless Headphones", p.Name)
}

func TestNewRejectsBadProducts(t *testing.T) {
	tests := []struct {
		name     string
		products []Product
		want     error
	}{
		{"empty", nil, ErrEmptyCatalog},
		{"missing id", []Product{{Name: "x"}}, ErrInvalidProduct},
		{"missing name", []Product{{ID: "1"}}, ErrInvalidProduct},
		{"negative price", []Product{{ID: "1", Name: "x", Price: -1}}, ErrInvalidProduct},
		{"rating range", []Product{{ID: "1", Name: "x", Rating: 5.5}}, ErrInvalidProduct},
		{"duplicate", []Product{{ID: "1", Name: "a"}, {ID: "1", Name: "b"}}, ErrDuplicateProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.products)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"products":[{"id":"a","name":"Mug","price":500,"rating":4,"category":"Home"}]}`), 0o644))

	c, err := Load(jsonPath)
	require.NoError(t, err)
	p, ok := c.Find("a")
	require.True(t, ok)
	assert.Equal(t, 500, p.Price)

	yamlPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("products:\n  - id: b\n    name: Pen\n    price: 20\n"), 0o644))
	c, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Load(filepath.Join(dir, "catalog.toml"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, c.Len())
}
