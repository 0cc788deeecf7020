package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veloria/storefront/internal/cart"
	"github.com/veloria/storefront/internal/stock"
)

// tierHeader carries the caller's customer tier, resolved upstream from the
// authenticated account. Absent means the default price list.
const tierHeader = "X-Customer-Tier"

// CartHandler serves the session-keyed cart REST surface.
type CartHandler struct {
	carts *cart.Manager
}

// NewCartHandler creates the cart handler.
func NewCartHandler(carts *cart.Manager) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) store(c *gin.Context) *cart.Store {
	return h.carts.Store(c.Request.Context(), c.Param("sessionId"), c.GetHeader(tierHeader))
}

// GetCart returns the session's cart state
// GET /api/cart/:sessionId
func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.store(c).State())
}

// ClearCart discards the cart and starts a fresh one
// DELETE /api/cart/:sessionId
func (h *CartHandler) ClearCart(c *gin.Context) {
	s := h.store(c)
	s.ClearCart(c.Request.Context())
	c.JSON(http.StatusOK, s.State())
}

// AddItemRequest represents the add-to-cart payload
type AddItemRequest struct {
	Product     cart.Product `json:"product" binding:"required"`
	Quantity    int          `json:"quantity" binding:"required,min=1"`
	VariantID   string       `json:"variantId"`
	WarehouseID string       `json:"warehouseId"`
	Notes       string       `json:"notes"`
}

// AddItem adds a product line, merging with an existing variant line
// POST /api/cart/:sessionId/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := h.store(c)
	ok := s.AddToCart(c.Request.Context(), req.Product, req.Quantity, cart.AddOptions{
		VariantID:   req.VariantID,
		WarehouseID: req.WarehouseID,
		Notes:       req.Notes,
	})
	if !ok {
		msg := "quantity not available"
		if m, found := s.ValidationError(req.Product.ID); found {
			msg = m
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, s.State())
}

// UpdateQuantityRequest represents the quantity change payload
type UpdateQuantityRequest struct {
	Quantity  int    `json:"quantity"`
	VariantID string `json:"variantId"`
}

// UpdateQuantity sets a line's quantity; zero or less removes the line
// PATCH /api/cart/:sessionId/items/:productId/quantity
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	productID := c.Param("productId")
	s := h.store(c)
	if !s.UpdateQuantity(c.Request.Context(), productID, req.Quantity, req.VariantID) {
		if msg, found := s.ValidationError(productID); found {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
		return
	}

	c.JSON(http.StatusOK, s.State())
}

// UpdateNotesRequest represents the line-note payload
type UpdateNotesRequest struct {
	Notes     string `json:"notes"`
	VariantID string `json:"variantId"`
}

// UpdateNotes sets the free-text note on a line
// PATCH /api/cart/:sessionId/items/:productId/notes
func (h *CartHandler) UpdateNotes(c *gin.Context) {
	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := h.store(c)
	if !s.UpdateItemNotes(c.Request.Context(), c.Param("productId"), req.VariantID, req.Notes) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// UpdateWarehouseRequest represents the fulfillment warehouse payload
type UpdateWarehouseRequest struct {
	WarehouseID string `json:"warehouseId" binding:"required"`
	VariantID   string `json:"variantId"`
}

// UpdateWarehouse sets the fulfillment warehouse on a line
// PATCH /api/cart/:sessionId/items/:productId/warehouse
func (h *CartHandler) UpdateWarehouse(c *gin.Context) {
	var req UpdateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := h.store(c)
	if !s.UpdateItemWarehouse(c.Request.Context(), c.Param("productId"), req.VariantID, req.WarehouseID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// RemoveItem removes a line; removing an absent line is a no-op
// DELETE /api/cart/:sessionId/items/:productId?variantId=
func (h *CartHandler) RemoveItem(c *gin.Context) {
	s := h.store(c)
	s.RemoveFromCart(c.Request.Context(), c.Param("productId"), c.Query("variantId"))
	c.JSON(http.StatusOK, s.State())
}

// ApplyPromoRequest represents the promo code payload
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyPromo validates and applies a promo code to the cart
// POST /api/cart/:sessionId/promo
func (h *CartHandler) ApplyPromo(c *gin.Context) {
	var req ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := h.store(c)
	if !s.ApplyPromoCode(c.Request.Context(), req.Code) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid promo code"})
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// RemovePromo clears the applied promo code
// DELETE /api/cart/:sessionId/promo
func (h *CartHandler) RemovePromo(c *gin.Context) {
	s := h.store(c)
	s.RemovePromoCode(c.Request.Context())
	c.JSON(http.StatusOK, s.State())
}

// ValidateCartStockResponse represents the whole-cart stock check response
type ValidateCartStockResponse struct {
	Results  []stock.Result `json:"results"`
	AllValid bool           `json:"allValid"`
}

// ValidateCartStock re-checks every line against current inventory without
// mutating the cart
// GET /api/cart/:sessionId/stock
func (h *CartHandler) ValidateCartStock(c *gin.Context) {
	results, err := h.store(c).ValidateStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inventory service unavailable"})
		return
	}

	resp := ValidateCartStockResponse{Results: results, AllValid: true}
	if resp.Results == nil {
		resp.Results = []stock.Result{}
	}
	for _, r := range results {
		if !r.IsValid {
			resp.AllValid = false
		}
	}
	c.JSON(http.StatusOK, resp)
}

// SaveCartRequest represents the save-cart payload
type SaveCartRequest struct {
	Name string `json:"name" binding:"required"`
}

// SaveCart snapshots the current items under a name
// POST /api/cart/:sessionId/saved
func (h *CartHandler) SaveCart(c *gin.Context) {
	var req SaveCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, ok := h.store(c).SaveCurrent(c.Request.Context(), req.Name)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cart is empty"})
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// ListSavedResponse represents the saved-carts listing response
type ListSavedResponse struct {
	SavedCarts []cart.SavedCart `json:"savedCarts"`
	Count      int              `json:"count"`
}

// ListSaved lists the session's saved cart snapshots
// GET /api/cart/:sessionId/saved
func (h *CartHandler) ListSaved(c *gin.Context) {
	saved := h.store(c).SavedCarts(c.Request.Context())
	if saved == nil {
		saved = []cart.SavedCart{}
	}
	c.JSON(http.StatusOK, ListSavedResponse{SavedCarts: saved, Count: len(saved)})
}

// LoadSaved replaces the current cart's items with a saved snapshot
// POST /api/cart/:sessionId/saved/:savedId/load
func (h *CartHandler) LoadSaved(c *gin.Context) {
	s := h.store(c)
	if !s.LoadSaved(c.Request.Context(), c.Param("savedId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "saved cart not found"})
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// DeleteSaved removes a saved snapshot
// DELETE /api/cart/:sessionId/saved/:savedId
func (h *CartHandler) DeleteSaved(c *gin.Context) {
	if !h.store(c).DeleteSaved(c.Request.Context(), c.Param("savedId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "saved cart not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
