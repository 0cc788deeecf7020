package pricing

import (
	"math"
	"time"
)

// CalculatedPrice is the result of a unit price computation.
// OriginalPriceHT is present only when some discount actually applied.
type CalculatedPrice struct {
	UnitPriceHT     float64         `json:"unitPriceHT"`
	UnitPriceTTC    float64         `json:"unitPriceTTC"`
	Currency        string          `json:"currency"`
	TaxRate         float64         `json:"taxRate"`
	OriginalPriceHT *float64        `json:"originalPriceHT,omitempty"`
	DiscountPercent float64         `json:"discountPercent,omitempty"`
	VolumeDiscount  *VolumeDiscount `json:"volumeDiscount,omitempty"`
	PriceListID     string          `json:"priceListId,omitempty"`
}

// CalculatorConfig holds pricing policy configuration.
type CalculatorConfig struct {
	Currency  string
	TaxRate   float64
	Precision int
}

// DefaultCalculatorConfig returns the default pricing configuration.
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		Currency:  "EUR",
		TaxRate:   20.0,
		Precision: 2,
	}
}

// Calculator computes final unit prices from a base price, the customer's
// active price list and per-product volume discount tiers. It never returns
// errors: invalid inputs are clamped, not rejected.
type Calculator struct {
	config          CalculatorConfig
	lists           []PriceList
	volumeDiscounts map[string][]VolumeDiscount
	now             func() time.Time
}

// NewCalculator creates a calculator over the given price lists and
// per-product volume discount tiers. Tiers under StorewideKey apply to any
// product without its own entry.
func NewCalculator(config CalculatorConfig, lists []PriceList, volumeDiscounts map[string][]VolumeDiscount) *Calculator {
	if config.Precision <= 0 {
		config.Precision = 2
	}
	if config.Currency == "" {
		config.Currency = "EUR"
	}
	return &Calculator{
		config:          config,
		lists:           lists,
		volumeDiscounts: volumeDiscounts,
		now:             time.Now,
	}
}

// CalculateOptions controls optional parts of the computation.
type CalculateOptions struct {
	// SkipVolumeDiscount disables volume tier matching. The zero value
	// keeps volume discounts enabled, which is the default behavior.
	SkipVolumeDiscount bool
}

// Calculate computes the final unit price for quantity units of a product.
//
// The tier discount from the customer's active price list applies first, then
// the best-matching volume tier applies on top of the already-discounted
// price. The combined percentage is 1-(1-tier)*(1-volume), not the sum.
func (c *Calculator) Calculate(productID string, basePrice float64, quantity int, tier string, opts CalculateOptions) CalculatedPrice {
	if basePrice < 0 {
		basePrice = 0
	}
	if quantity < 1 {
		quantity = 1
	}

	result := CalculatedPrice{
		Currency: c.config.Currency,
		TaxRate:  c.config.TaxRate,
	}

	price := basePrice
	tierPercent := 0.0

	if list := ActiveList(c.lists, tier, c.now()); list != nil {
		result.PriceListID = list.ID
		if list.DiscountPercent > 0 {
			tierPercent = list.DiscountPercent
			price = price * (1 - tierPercent/100)
		}
	}

	combinedPercent := tierPercent

	if !opts.SkipVolumeDiscount && quantity > 1 {
		tiers, ok := c.volumeDiscounts[productID]
		if !ok {
			tiers = c.volumeDiscounts[StorewideKey]
		}
		if vd := ApplicableVolumeDiscount(tiers, quantity); vd != nil {
			result.VolumeDiscount = vd
			if vd.FixedUnitPrice != nil {
				price = *vd.FixedUnitPrice
				if basePrice > 0 && price < basePrice {
					combinedPercent = (1 - price/basePrice) * 100
				}
			} else if vd.DiscountPercent > 0 {
				price = price * (1 - vd.DiscountPercent/100)
				combinedPercent = (1 - (1-tierPercent/100)*(1-vd.DiscountPercent/100)) * 100
			}
		}
	}

	result.UnitPriceHT = roundTo(price, c.config.Precision)
	result.UnitPriceTTC = roundTo(result.UnitPriceHT*(1+c.config.TaxRate/100), c.config.Precision)

	if result.UnitPriceHT < basePrice {
		original := roundTo(basePrice, c.config.Precision)
		result.OriginalPriceHT = &original
		result.DiscountPercent = roundTo(combinedPercent, 1)
	}

	return result
}

func roundTo(v float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Round(v*factor) / factor
}
