package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veloria/storefront/internal/category"
)

// CategoryHandler serves the category hierarchy from the shared cache.
type CategoryHandler struct {
	cache *category.Service
}

// NewCategoryHandler creates the category handler.
func NewCategoryHandler(cache *category.Service) *CategoryHandler {
	return &CategoryHandler{cache: cache}
}

// CategoryTreeResponse represents the nested category tree response
type CategoryTreeResponse struct {
	Tree  []*category.Node `json:"tree"`
	Flat  []*category.Node `json:"flat"`
	Total int              `json:"total"`
}

// GetCategoryTree returns the category hierarchy as both a nested tree and
// a flat depth-first list
// GET /api/catalog/categories/tree
func (h *CategoryHandler) GetCategoryTree(c *gin.Context) {
	idx, err := h.cache.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "category data unavailable"})
		return
	}

	c.JSON(http.StatusOK, CategoryTreeResponse{
		Tree:  idx.Roots(),
		Flat:  idx.Flat(),
		Total: idx.Total(),
	})
}

// ListCategoriesResponse represents the flat category list response
type ListCategoriesResponse struct {
	Categories []*category.Node `json:"categories"`
	Count      int              `json:"count"`
}

// ListCategories returns the flat category list
// GET /api/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	idx, err := h.cache.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "category data unavailable"})
		return
	}

	c.JSON(http.StatusOK, ListCategoriesResponse{
		Categories: idx.Flat(),
		Count:      idx.Total(),
	})
}

// BreadcrumbsResponse represents the breadcrumb trail response
type BreadcrumbsResponse struct {
	Breadcrumbs []category.Crumb `json:"breadcrumbs"`
}

// GetBreadcrumbs returns the clickable trail for one category handle
// GET /api/catalog/categories/:handle/breadcrumbs
func (h *CategoryHandler) GetBreadcrumbs(c *gin.Context) {
	idx, err := h.cache.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "category data unavailable"})
		return
	}

	trail := idx.Breadcrumbs(c.Param("handle"))
	if trail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	c.JSON(http.StatusOK, BreadcrumbsResponse{Breadcrumbs: trail})
}

// InvalidateCategoryCache drops the cached snapshot so the next read
// re-fetches
// POST /internal/categories/invalidate
func (h *CategoryHandler) InvalidateCategoryCache(c *gin.Context) {
	h.cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}
