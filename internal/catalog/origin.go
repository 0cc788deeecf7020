package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/veloria/storefront/internal/httpx"
)

// OriginBackend is the secondary backend: the origin catalog API. It filters
// server-side through query parameters and returns nested product objects
// with its own facet key names.
type OriginBackend struct {
	client *httpx.Client
}

// NewOriginBackend creates the origin API adapter.
func NewOriginBackend(client *httpx.Client) *OriginBackend {
	return &OriginBackend{client: client}
}

func (b *OriginBackend) Name() string { return "origin_api" }

type originCategory struct {
	Handle          string   `json:"handle"`
	AncestorHandles []string `json:"ancestor_handles"`
}

type originProduct struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
	PriceHT       float64 `json:"price_ht"`
	Currency      string  `json:"currency"`
	StockQuantity int     `json:"stock_quantity"`
	Brand         struct {
		Name string `json:"name"`
	} `json:"brand"`
	Categories []originCategory `json:"categories"`
	Tags       []struct {
		Value string `json:"value"`
	} `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type originResponse struct {
	Products []originProduct `json:"products"`
	Count    int             `json:"count"`
	Facets   *struct {
		Categories []struct {
			Handle string `json:"handle"`
			Count  int    `json:"count"`
		} `json:"categories"`
		Brands []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"brands"`
	} `json:"facets"`
}

// Search maps the query onto origin API parameters and normalizes the
// response. The origin's category_handle parameter matches ancestor handles
// server-side, so parent categories include descendants' products.
func (b *OriginBackend) Search(ctx context.Context, q Query) (*Result, error) {
	params := url.Values{}
	if q.Category != "" {
		params.Set("category_handle", q.Category)
	}
	if q.Brand != "" {
		params.Set("brand", q.Brand)
	}
	if q.MinPrice > 0 {
		params.Set("price_min", strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice > 0 {
		params.Set("price_max", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	if q.InStockOnly {
		params.Set("in_stock", "true")
	}
	params.Set("order", originOrderParam(q.Sort))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))

	var resp originResponse
	if err := b.client.GetJSON(ctx, "/store/products", &httpx.RequestOptions{Params: params}, &resp); err != nil {
		return nil, fmt.Errorf("origin catalog query failed: %w", err)
	}

	products := make([]Product, 0, len(resp.Products))
	prices := make([]float64, 0, len(resp.Products))
	for _, op := range resp.Products {
		products = append(products, normalizeOriginProduct(op))
		prices = append(prices, op.PriceHT)
	}

	facets := Facets{
		Categories:  []FacetCount{},
		Brands:      []FacetCount{},
		PriceRanges: BucketPrices(prices),
	}
	if resp.Facets != nil {
		categoryCounts := make(map[string]int, len(resp.Facets.Categories))
		for _, c := range resp.Facets.Categories {
			categoryCounts[c.Handle] = c.Count
		}
		brandCounts := make(map[string]int, len(resp.Facets.Brands))
		for _, br := range resp.Facets.Brands {
			brandCounts[br.Name] = br.Count
		}
		facets.Categories = SortedFacetCounts(categoryCounts)
		facets.Brands = SortedFacetCounts(brandCounts)
	} else {
		derived := buildFacets(products)
		facets.Categories = derived.Categories
		facets.Brands = derived.Brands
	}

	return &Result{Products: products, Total: resp.Count, Facets: facets}, nil
}

func normalizeOriginProduct(op originProduct) Product {
	images := make([]string, 0, len(op.Images))
	for _, img := range op.Images {
		images = append(images, img.URL)
	}

	// Flatten ancestor handles plus each category's own handle into the
	// unified Categories field.
	seen := make(map[string]bool)
	var categories []string
	for _, c := range op.Categories {
		for _, h := range append(append([]string(nil), c.AncestorHandles...), c.Handle) {
			if h != "" && !seen[h] {
				seen[h] = true
				categories = append(categories, h)
			}
		}
	}

	tags := make([]string, 0, len(op.Tags))
	for _, tag := range op.Tags {
		tags = append(tags, tag.Value)
	}

	return Product{
		ID:             op.ID,
		Title:          op.Title,
		Handle:         op.Handle,
		Subtitle:       op.Subtitle,
		Description:    op.Description,
		Thumbnail:      op.Thumbnail,
		Images:         images,
		Price:          NewMoney(op.PriceHT, op.Currency),
		InStock:        op.StockQuantity > 0,
		TotalInventory: op.StockQuantity,
		Brand:          op.Brand.Name,
		Categories:     categories,
		Tags:           tags,
		CreatedAt:      op.CreatedAt,
	}
}

// originOrderParam maps the sort enum onto the origin API's order parameter
// (leading dash means descending).
func originOrderParam(option SortOption) string {
	switch option {
	case SortNameAsc:
		return "title"
	case SortNameDesc:
		return "-title"
	case SortPriceAsc:
		return "price_ht"
	case SortPriceDesc:
		return "-price_ht"
	default: // newest, popular
		return "-created_at"
	}
}
