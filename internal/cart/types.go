package cart

import (
	"time"

	"github.com/veloria/storefront/internal/pricing"
)

// StockStatus describes item availability at snapshot time.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLowStock   StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
	StockPreorder   StockStatus = "preorder"
)

// Product is the catalog snapshot handed to AddToCart. The cart never
// re-reads the catalog; pricing and stock fields are captured at add time.
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	SKU         string      `json:"sku,omitempty"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
	BasePriceHT float64     `json:"basePriceHT"`
	StockStatus StockStatus `json:"stockStatus"`
	Available   int         `json:"available"`
}

// CartItem is one product line (optionally one variant) held in the cart.
type CartItem struct {
	ProductID       string                  `json:"productId"`
	VariantID       string                  `json:"variantId,omitempty"`
	Name            string                  `json:"name"`
	SKU             string                  `json:"sku,omitempty"`
	Thumbnail       string                  `json:"thumbnail,omitempty"`
	Quantity        int                     `json:"quantity"`
	UnitPriceHT     float64                 `json:"unitPriceHT"`
	UnitPriceTTC    float64                 `json:"unitPriceTTC"`
	OriginalPriceHT *float64                `json:"originalPriceHT,omitempty"`
	VolumeDiscount  *pricing.VolumeDiscount `json:"volumeDiscountApplied,omitempty"`
	TotalPrice      float64                 `json:"totalPrice"`
	StockStatus     StockStatus             `json:"stockStatus"`
	Available       int                     `json:"available"`
	WarehouseID     string                  `json:"warehouseId,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
	AddedAt         time.Time               `json:"addedAt"`
}

// Matches reports whether the item matches the (productID, variantID) key.
// An empty variantID acts as a wildcard and matches any variant line.
func (it CartItem) Matches(productID, variantID string) bool {
	if it.ProductID != productID {
		return false
	}
	return variantID == "" || it.VariantID == variantID
}

// Discount is one entry in the cart's rebuilt discounts breakdown.
type Discount struct {
	Type       string  `json:"type"`
	Label      string  `json:"label"`
	AmountHT   float64 `json:"amountHT"`
	Percentage float64 `json:"percentage,omitempty"`
}

// CartState is the aggregate of all items plus derived totals. Derived
// fields are never stored independently of items: they are recomputed from
// the item list on every mutation via ComputeTotals.
type CartState struct {
	ID              string     `json:"id"`
	Items           []CartItem `json:"items"`
	ItemCount       int        `json:"itemCount"`
	TotalQuantity   int        `json:"totalQuantity"`
	SubtotalHT      float64    `json:"subtotalHT"`
	SubtotalTTC     float64    `json:"subtotalTTC"`
	TotalDiscountHT float64    `json:"totalDiscountHT"`
	TaxAmount       float64    `json:"taxAmount"`
	TotalHT         float64    `json:"totalHT"`
	TotalTTC        float64    `json:"totalTTC"`
	Discounts       []Discount `json:"discounts"`
	PromoCode       string     `json:"promoCode,omitempty"`
	PromoPercent    float64    `json:"promoPercent,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
}

// Expired reports whether the cart's TTL has elapsed at time t.
func (s CartState) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && t.After(s.ExpiresAt)
}

// SavedCart is an immutable named snapshot of a cart's items.
type SavedCart struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Items      []CartItem `json:"items"`
	ShareToken string     `json:"shareToken"`
	CreatedAt  time.Time  `json:"createdAt"`
}
