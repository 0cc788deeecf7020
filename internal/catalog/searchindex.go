package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/veloria/storefront/internal/httpx"
)

// SearchIndexBackend is the primary backend: a dedicated search index with a
// filter-expression query DSL and facet distributions in its responses.
type SearchIndexBackend struct {
	client *httpx.Client
	index  string
}

// NewSearchIndexBackend creates the adapter for the given index name.
func NewSearchIndexBackend(client *httpx.Client, index string) *SearchIndexBackend {
	if index == "" {
		index = "products"
	}
	return &SearchIndexBackend{client: client, index: index}
}

func (b *SearchIndexBackend) Name() string { return "search_index" }

type indexSearchRequest struct {
	Query  string   `json:"q,omitempty"`
	Filter []string `json:"filter,omitempty"`
	Sort   []string `json:"sort,omitempty"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	Facets []string `json:"facets"`
}

// flexBool tolerates boolean fields the index sometimes serializes as
// strings ("true"/"false"/"1"/"0").
type flexBool bool

func (fb *flexBool) UnmarshalJSON(data []byte) error {
	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		*fb = flexBool(asBool)
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*fb = flexBool(asString == "true" || asString == "1")
		return nil
	}
	return fmt.Errorf("cannot parse %q as bool", string(data))
}

type indexHit struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Handle         string   `json:"handle"`
	Subtitle       string   `json:"subtitle"`
	Description    string   `json:"description"`
	Thumbnail      string   `json:"thumbnail"`
	Images         []string `json:"images"`
	Price          float64  `json:"price"`
	Currency       string   `json:"currency"`
	InStock        flexBool `json:"in_stock"`
	TotalInventory int      `json:"total_inventory"`
	Brand          string   `json:"brand"`
	CategoryPaths  []string `json:"category_paths"`
	Tags           []string `json:"tags"`
	CreatedAt      string   `json:"created_at"`
}

type indexSearchResponse struct {
	Hits               []indexHit                `json:"hits"`
	EstimatedTotalHits int                       `json:"estimatedTotalHits"`
	FacetDistribution  map[string]map[string]int `json:"facetDistribution"`
}

// Search translates the query into the index's filter DSL and normalizes
// the hit/facet response.
func (b *SearchIndexBackend) Search(ctx context.Context, q Query) (*Result, error) {
	req := indexSearchRequest{
		Query:  q.Search,
		Filter: buildIndexFilters(q),
		Limit:  q.Limit,
		Offset: q.Offset,
		Facets: []string{"category_paths", "brand"},
	}
	if sortExpr := indexSortExpr(q.Sort); sortExpr != "" {
		req.Sort = []string{sortExpr}
	}

	var resp indexSearchResponse
	path := fmt.Sprintf("/indexes/%s/search", b.index)
	if err := b.client.PostJSON(ctx, path, req, nil, &resp); err != nil {
		return nil, fmt.Errorf("search index query failed: %w", err)
	}

	products := make([]Product, 0, len(resp.Hits))
	prices := make([]float64, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		p := Product{
			ID:             hit.ID,
			Title:          hit.Title,
			Handle:         hit.Handle,
			Subtitle:       hit.Subtitle,
			Description:    hit.Description,
			Thumbnail:      hit.Thumbnail,
			Images:         hit.Images,
			Price:          NewMoney(hit.Price, hit.Currency),
			InStock:        bool(hit.InStock),
			TotalInventory: hit.TotalInventory,
			Brand:          hit.Brand,
			Categories:     hit.CategoryPaths,
			Tags:           hit.Tags,
		}
		if ts, err := time.Parse(time.RFC3339, hit.CreatedAt); err == nil {
			p.CreatedAt = ts
		}
		products = append(products, p)
		prices = append(prices, p.Price.Amount)
	}

	// The index names its hierarchical category facet "category_paths";
	// normalize it to the unified shape.
	facets := Facets{
		Categories:  SortedFacetCounts(resp.FacetDistribution["category_paths"]),
		Brands:      SortedFacetCounts(resp.FacetDistribution["brand"]),
		PriceRanges: BucketPrices(prices),
	}

	return &Result{Products: products, Total: resp.EstimatedTotalHits, Facets: facets}, nil
}

// buildIndexFilters renders the query as index filter expressions. The
// category filter targets category_paths (all ancestor handles), so a parent
// category matches products assigned only to its descendants.
func buildIndexFilters(q Query) []string {
	var filters []string
	if q.Category != "" {
		filters = append(filters, fmt.Sprintf("category_paths = %s", quoteFilterValue(q.Category)))
	}
	if q.Brand != "" {
		filters = append(filters, fmt.Sprintf("brand = %s", quoteFilterValue(q.Brand)))
	}
	if q.MinPrice > 0 {
		filters = append(filters, "price >= "+strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice > 0 {
		filters = append(filters, "price <= "+strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	if q.InStockOnly {
		filters = append(filters, "in_stock = true")
	}
	return filters
}

func quoteFilterValue(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

// indexSortExpr maps the fixed sort enum onto the index's field:direction
// syntax. An empty string means index-default relevance ordering.
func indexSortExpr(option SortOption) string {
	switch option {
	case SortNameAsc:
		return "title:asc"
	case SortNameDesc:
		return "title:desc"
	case SortPriceAsc:
		return "price:asc"
	case SortPriceDesc:
		return "price:desc"
	case SortNewest, SortPopular:
		return "created_at:desc"
	default:
		return ""
	}
}
