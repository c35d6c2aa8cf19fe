/*
Package catalog provides the smartphone catalog savers pick targets from.

PURPOSE:
  Every subscription saves toward one phone. The catalog holds the phone
  records (brand, model, price, specs) and the pure query logic the API
  exposes: in-stock listing by popularity, substring search over
  brand/model, and category filtering by ascending price.

  Query logic lives here rather than in SQL so the same semantics apply to
  any store and can be tested without a database.

SEE ALSO:
  - seed.go: Built-in demo catalog
  - store/sqlite: Phone persistence
*/
package catalog

import (
	"sort"
	"strings"

	"github.com/kopichu/savings-engine/accrual"
)

// =============================================================================
// PHONE - Catalog entry
// =============================================================================

// Category buckets phones by price tier.
type Category string

const (
	CategoryFlagship Category = "flagship"
	CategoryMidrange Category = "midrange"
	CategoryBudget   Category = "budget"
)

// IsValid reports whether the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFlagship, CategoryMidrange, CategoryBudget:
		return true
	}
	return false
}

// Specifications are the display-only hardware details of a phone.
type Specifications struct {
	Storage   string `json:"storage,omitempty"`
	RAM       string `json:"ram,omitempty"`
	Screen    string `json:"screen,omitempty"`
	Camera    string `json:"camera,omitempty"`
	Battery   string `json:"battery,omitempty"`
	Processor string `json:"processor,omitempty"`
}

// Phone is a catalog entry a subscription can target.
type Phone struct {
	ID             string
	Brand          string
	Model          string
	Price          accrual.Money
	Image          string
	Description    string
	Specifications Specifications
	Category       Category
	InStock        bool
	Popularity     int
}

// Name returns the display name, e.g. "Apple iPhone 15".
func (p Phone) Name() string {
	return p.Brand + " " + p.Model
}

// =============================================================================
// QUERIES - Pure filtering and ordering over phone slices
// =============================================================================

// InStockByPopularity returns in-stock phones, most popular first.
func InStockByPopularity(phones []Phone) []Phone {
	out := filter(phones, func(p Phone) bool { return p.InStock })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Popularity > out[j].Popularity })
	return out
}

// Search returns in-stock phones whose brand or model contains the query,
// case-insensitively.
func Search(phones []Phone, query string) []Phone {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return filter(phones, func(p Phone) bool {
		return p.InStock &&
			(strings.Contains(strings.ToLower(p.Brand), q) ||
				strings.Contains(strings.ToLower(p.Model), q))
	})
}

// ByCategory returns in-stock phones in the category, cheapest first.
func ByCategory(phones []Phone, category Category) []Phone {
	out := filter(phones, func(p Phone) bool { return p.InStock && p.Category == category })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out
}

func filter(phones []Phone, keep func(Phone) bool) []Phone {
	var out []Phone
	for _, p := range phones {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
