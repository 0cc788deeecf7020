package cart

import "math"

// TotalsConfig carries the tax and rounding policy used when deriving totals.
type TotalsConfig struct {
	TaxRate   float64
	Precision int
}

// DefaultTotalsConfig returns the default totals policy.
func DefaultTotalsConfig() TotalsConfig {
	return TotalsConfig{TaxRate: 20.0, Precision: 2}
}

// Totals is the full set of derived aggregate fields for a cart.
type Totals struct {
	ItemCount       int
	TotalQuantity   int
	SubtotalHT      float64
	SubtotalTTC     float64
	TotalDiscountHT float64
	TaxAmount       float64
	TotalHT         float64
	TotalTTC        float64
	Discounts       []Discount
}

// ComputeTotals derives aggregate totals as a pure function of the item list
// and the promo discount. It is called unconditionally after every mutation;
// totals are never patched incrementally, which is what keeps them from
// drifting out of sync with the items.
func ComputeTotals(items []CartItem, promoCode string, promoPercent float64, cfg TotalsConfig) Totals {
	t := Totals{Discounts: []Discount{}}

	var productDiscountHT float64
	for _, it := range items {
		t.ItemCount++
		t.TotalQuantity += it.Quantity
		t.SubtotalHT += it.UnitPriceHT * float64(it.Quantity)
		t.SubtotalTTC += it.UnitPriceTTC * float64(it.Quantity)
		if it.OriginalPriceHT != nil && *it.OriginalPriceHT > it.UnitPriceHT {
			productDiscountHT += (*it.OriginalPriceHT - it.UnitPriceHT) * float64(it.Quantity)
		}
	}

	t.SubtotalHT = round(t.SubtotalHT, cfg.Precision)
	t.SubtotalTTC = round(t.SubtotalTTC, cfg.Precision)

	if productDiscountHT > 0 {
		t.Discounts = append(t.Discounts, Discount{
			Type:     "product",
			Label:    "Product discounts",
			AmountHT: round(productDiscountHT, cfg.Precision),
		})
	}

	var promoDiscountHT float64
	if promoCode != "" && promoPercent > 0 {
		promoDiscountHT = round(t.SubtotalHT*promoPercent/100, cfg.Precision)
		t.Discounts = append(t.Discounts, Discount{
			Type:       "promo",
			Label:      promoCode,
			AmountHT:   promoDiscountHT,
			Percentage: promoPercent,
		})
	}

	t.TotalDiscountHT = promoDiscountHT
	t.TotalHT = round(t.SubtotalHT-promoDiscountHT, cfg.Precision)
	t.TaxAmount = round(t.TotalHT*cfg.TaxRate/100, cfg.Precision)
	t.TotalTTC = round(t.TotalHT+t.TaxAmount, cfg.Precision)

	return t
}

// applyTotals writes derived totals back onto the state.
func applyTotals(s *CartState, t Totals) {
	s.ItemCount = t.ItemCount
	s.TotalQuantity = t.TotalQuantity
	s.SubtotalHT = t.SubtotalHT
	s.SubtotalTTC = t.SubtotalTTC
	s.TotalDiscountHT = t.TotalDiscountHT
	s.TaxAmount = t.TaxAmount
	s.TotalHT = t.TotalHT
	s.TotalTTC = t.TotalTTC
	s.Discounts = t.Discounts
}

func round(v float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Round(v*factor) / factor
}
