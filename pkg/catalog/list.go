package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey orders a product listing
type SortKey string

const (
	SortName      SortKey = "name"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
)

// AllCategories matches every category
const AllCategories = "all"

// SortKeys lists the supported keys in display order
var SortKeys = []SortKey{SortName, SortPriceLow, SortPriceHigh, SortRating}

// ParseSortKey maps a raw value to a SortKey; anything unknown sorts by name
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortPriceLow, SortPriceHigh, SortRating:
		return SortKey(s)
	default:
		return SortName
	}
}

// Label is the human text for a sort option
func (k SortKey) Label() string {
	switch k {
	case SortPriceLow:
		return "Price: Low to High"
	case SortPriceHigh:
		return "Price: High to Low"
	case SortRating:
		return "Highest Rated"
	default:
		return "Name"
	}
}

// Query describes a product listing request
type Query struct {
	Text     string
	Category string
	Sort     SortKey
}

func (q Query) matches(p Product) bool {
	if q.Category != "" && q.Category != AllCategories && p.Category != q.Category {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), text) ||
		strings.Contains(strings.ToLower(p.Description), text)
}

// List filters products by q and sorts the result. Names sort by English
// collation, so case does not split the alphabet. The input slice is not
// modified. Ties keep their input order.
func List(products []Product, q Query) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if q.matches(p) {
			out = append(out, p)
		}
	}

	var less func(a, b Product) bool
	switch ParseSortKey(string(q.Sort)) {
	case SortPriceLow:
		less = func(a, b Product) bool { return a.Price < b.Price }
	case SortPriceHigh:
		less = func(a, b Product) bool { return a.Price > b.Price }
	case SortRating:
		less = func(a, b Product) bool { return a.Rating > b.Rating }
	default:
		names := collate.New(language.English)
		less = func(a, b Product) bool { return names.CompareString(a.Name, b.Name) < 0 }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
