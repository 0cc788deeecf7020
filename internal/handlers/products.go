// Package handlers exposes the storefront HTTP surface: catalog search,
// category navigation, session carts, and promo/stock validation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veloria/storefront/internal/catalog"
)

// CatalogHandler serves product listings through the search cascade.
type CatalogHandler struct {
	search *catalog.Cascade
}

// NewCatalogHandler creates the catalog handler.
func NewCatalogHandler(search *catalog.Cascade) *CatalogHandler {
	return &CatalogHandler{search: search}
}

// ListProductsRequest represents the product listing query parameters
type ListProductsRequest struct {
	Category string  `form:"category"`
	Brand    string  `form:"brand"`
	MinPrice float64 `form:"minPrice" binding:"omitempty,min=0"`
	MaxPrice float64 `form:"maxPrice" binding:"omitempty,min=0"`
	Search   string  `form:"search"`
	Sort     string  `form:"sort"`
	Limit    int     `form:"limit"`
	Offset   int     `form:"offset"`
	InStock  bool    `form:"inStock"`
}

// ListProductsResponse represents the product listing response
type ListProductsResponse struct {
	Products []catalog.Product `json:"products"`
	Total    int               `json:"total"`
	Facets   catalog.Facets    `json:"facets"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// ListProducts returns a filtered, sorted product page
// GET /api/catalog/products?category&brand&minPrice&maxPrice&search&sort&limit&offset&inStock
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := catalog.Query{
		Category:    req.Category,
		Brand:       req.Brand,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
		Search:      req.Search,
		Sort:        catalog.ParseSortOption(req.Sort),
		Limit:       req.Limit,
		Offset:      req.Offset,
		InStockOnly: req.InStock,
	}.Normalize()

	result := h.search.Search(c.Request.Context(), query)

	c.JSON(http.StatusOK, ListProductsResponse{
		Products: result.Products,
		Total:    result.Total,
		Facets:   result.Facets,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
}

// InvalidateSearchCache drops every cached search result
// POST /internal/catalog/cache/invalidate
func (h *CatalogHandler) InvalidateSearchCache(c *gin.Context) {
	h.search.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}
