// Package catalog is the resilient product data layer: one normalized
// product/facet schema served by multiple interchangeable search backends
// behind a fixed-order cascading fallback.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SortOption is the storefront's fixed sort enum. Each backend translates
// it into its own native sort field and direction.
type SortOption string

const (
	SortNameAsc   SortOption = "name_asc"
	SortNameDesc  SortOption = "name_desc"
	SortPriceAsc  SortOption = "price_asc"
	SortPriceDesc SortOption = "price_desc"
	SortNewest    SortOption = "newest"
	// SortPopular has no native backend equivalent and falls back to
	// newest ordering everywhere.
	SortPopular SortOption = "popular"
)

// ParseSortOption maps a raw query value onto the enum, defaulting to newest.
func ParseSortOption(raw string) SortOption {
	switch SortOption(raw) {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc, SortNewest, SortPopular:
		return SortOption(raw)
	default:
		return SortNewest
	}
}

// Query is the normalized filter set shared by every backend.
type Query struct {
	Category    string
	Brand       string
	MinPrice    float64
	MaxPrice    float64
	Search      string
	Sort        SortOption
	Limit       int
	Offset      int
	InStockOnly bool

	// NoCache skips the result-cache read for this query. The fresh result
	// still replaces the cached entry, so a forced refresh repopulates it.
	NoCache bool
}

// Normalize clamps pagination to the documented bounds: limit in [1,100]
// with default 20, offset >= 0.
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Sort == "" {
		q.Sort = SortNewest
	}
	return q
}

// CacheKey derives the result-cache key from the full filter set.
func (q Query) CacheKey() string {
	return fmt.Sprintf("search:%s|%s|%g|%g|%s|%s|%d|%d|%t",
		q.Category, q.Brand, q.MinPrice, q.MaxPrice,
		strings.ToLower(q.Search), q.Sort, q.Limit, q.Offset, q.InStockOnly)
}

// Money is a display-ready price.
type Money struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}

// NewMoney builds a Money with its formatted representation.
func NewMoney(amount float64, currency string) Money {
	symbol := currency
	if currency == "EUR" {
		symbol = "€"
	}
	return Money{
		Amount:    amount,
		Currency:  currency,
		Formatted: fmt.Sprintf("%.2f %s", amount, symbol),
	}
}

// Product is the unified product shape every backend normalizes into.
// Categories holds the product's category handle plus all ancestor handles,
// so filtering by a parent category matches descendants' products.
type Product struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Handle         string    `json:"handle"`
	Subtitle       string    `json:"subtitle,omitempty"`
	Description    string    `json:"description,omitempty"`
	Thumbnail      string    `json:"thumbnail,omitempty"`
	Images         []string  `json:"images,omitempty"`
	Price          Money     `json:"price"`
	InStock        bool      `json:"inStock"`
	TotalInventory int       `json:"totalInventory"`
	Brand          string    `json:"brand,omitempty"`
	Categories     []string  `json:"categories,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HasCategory reports whether the product belongs to the category or any of
// its descendants.
func (p Product) HasCategory(handle string) bool {
	for _, c := range p.Categories {
		if c == handle {
			return true
		}
	}
	return false
}

// FacetCount is one value/count pair in a facet distribution.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PriceRange is one synthesized price bucket for the filter UI.
type PriceRange struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"` // 0 means unbounded
	Count int     `json:"count"`
}

// Facets is the unified facet shape. Counts are sorted descending.
type Facets struct {
	Categories  []FacetCount `json:"categories"`
	Brands      []FacetCount `json:"brands"`
	PriceRanges []PriceRange `json:"priceRanges"`
}

// Result is a normalized search response.
type Result struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Facets   Facets    `json:"facets"`
}

// EmptyResult is what callers receive when every backend fails: valid,
// empty, with the default price buckets so the filter UI still renders.
func EmptyResult() *Result {
	return &Result{
		Products: []Product{},
		Facets:   Facets{Categories: []FacetCount{}, Brands: []FacetCount{}, PriceRanges: DefaultPriceRanges()},
	}
}

// DefaultPriceRanges returns the fixed six buckets. Backends do not provide
// these; they are synthesized client-side for UI filtering.
func DefaultPriceRanges() []PriceRange {
	return []PriceRange{
		{Label: "Under 100", Min: 0, Max: 100},
		{Label: "100 - 250", Min: 100, Max: 250},
		{Label: "250 - 500", Min: 250, Max: 500},
		{Label: "500 - 1000", Min: 500, Max: 1000},
		{Label: "1000 - 2500", Min: 1000, Max: 2500},
		{Label: "2500 and up", Min: 2500, Max: 0},
	}
}

// BucketPrices fills the default buckets with counts from the given prices.
func BucketPrices(prices []float64) []PriceRange {
	ranges := DefaultPriceRanges()
	for _, p := range prices {
		for i := range ranges {
			if p >= ranges[i].Min && (ranges[i].Max == 0 || p < ranges[i].Max) {
				ranges[i].Count++
				break
			}
		}
	}
	return ranges
}

// SortedFacetCounts flattens a distribution map into counts sorted by count
// descending, ties broken by value for stable output.
func SortedFacetCounts(distribution map[string]int) []FacetCount {
	counts := make([]FacetCount, 0, len(distribution))
	for value, count := range distribution {
		counts = append(counts, FacetCount{Value: value, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Value < counts[j].Value
	})
	return counts
}
