package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veloria/storefront/internal/promo"
	"github.com/veloria/storefront/internal/stock"
)

// ValidationHandler serves the promo and stock validation endpoints that
// the cart consumes and that downstream services can call directly.
type ValidationHandler struct {
	promos promo.Validator
	stocks stock.Validator
}

// NewValidationHandler creates the validation handler.
func NewValidationHandler(promos promo.Validator, stocks stock.Validator) *ValidationHandler {
	return &ValidationHandler{promos: promos, stocks: stocks}
}

// ValidatePromoRequest represents the promo validation payload
type ValidatePromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// ValidatePromo checks a promo code; unknown codes return 404
// POST /api/promo/validate
func (h *ValidationHandler) ValidatePromo(c *gin.Context) {
	var req ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.promos.Validate(c.Request.Context(), req.Code)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "promotions service unavailable"})
		return
	}
	if !result.Valid {
		c.JSON(http.StatusNotFound, gin.H{"error": "promo code not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":            result.Code,
		"discountPercent": result.DiscountPercent,
	})
}

// ValidateStock checks one requested quantity against inventory
// POST /api/stock/validate
func (h *ValidationHandler) ValidateStock(c *gin.Context) {
	var req stock.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ProductID == "" || req.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId and a positive quantity are required"})
		return
	}

	result, err := h.stocks.ValidateItem(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inventory service unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"available": result.AvailableQuantity,
		"isValid":   result.IsValid,
		"message":   result.Message,
	})
}
