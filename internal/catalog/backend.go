package catalog

import (
	"context"
	"sort"
	"strings"
)

// SearchBackend is one interchangeable product search implementation. Each
// backend translates the normalized Query into its own request shape and
// normalizes its response into Result.
type SearchBackend interface {
	Name() string
	Search(ctx context.Context, q Query) (*Result, error)
}

// filterProducts applies the query's filters in-process. Used by backends
// whose data source cannot filter server-side.
func filterProducts(products []Product, q Query) []Product {
	filtered := make([]Product, 0, len(products))
	search := strings.ToLower(q.Search)

	for _, p := range products {
		if q.Category != "" && !p.HasCategory(q.Category) {
			continue
		}
		if q.Brand != "" && !strings.EqualFold(p.Brand, q.Brand) {
			continue
		}
		if q.MinPrice > 0 && p.Price.Amount < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && p.Price.Amount > q.MaxPrice {
			continue
		}
		if q.InStockOnly && !p.InStock {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func matchesSearch(p Product, search string) bool {
	if strings.Contains(strings.ToLower(p.Title), search) ||
		strings.Contains(strings.ToLower(p.Description), search) ||
		strings.Contains(strings.ToLower(p.Brand), search) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// sortProducts orders products in-process per the fixed sort enum. Popular
// falls back to newest.
func sortProducts(products []Product, option SortOption) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch option {
		case SortNameAsc:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case SortNameDesc:
			return strings.ToLower(a.Title) > strings.ToLower(b.Title)
		case SortPriceAsc:
			return a.Price.Amount < b.Price.Amount
		case SortPriceDesc:
			return a.Price.Amount > b.Price.Amount
		default: // newest, popular
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}

// paginate slices a filtered product list per the normalized bounds.
func paginate(products []Product, limit, offset int) []Product {
	if offset >= len(products) {
		return []Product{}
	}
	end := offset + limit
	if end > len(products) {
		end = len(products)
	}
	return products[offset:end]
}

// buildFacets derives the unified facet shape from a product list. The
// deepest category handle of each product is what gets counted, so facet
// values line up with what the navigation shows.
func buildFacets(products []Product) Facets {
	categoryCounts := make(map[string]int)
	brandCounts := make(map[string]int)
	prices := make([]float64, 0, len(products))

	for _, p := range products {
		if len(p.Categories) > 0 {
			categoryCounts[p.Categories[len(p.Categories)-1]]++
		}
		if p.Brand != "" {
			brandCounts[p.Brand]++
		}
		prices = append(prices, p.Price.Amount)
	}

	return Facets{
		Categories:  SortedFacetCounts(categoryCounts),
		Brands:      SortedFacetCounts(brandCounts),
		PriceRanges: BucketPrices(prices),
	}
}
