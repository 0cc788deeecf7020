package pricing

import (
	"sort"
	"time"
)

// PriceList is a pricing policy attached to a customer tier or a promotion.
// Exactly one list is active for a given customer at a given time.
type PriceList struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	DiscountPercent float64    `json:"discountPercent"`
	Priority        int        `json:"priority"`
	Tier            string     `json:"tier,omitempty"`
	Promotional     bool       `json:"promotional"`
	ValidFrom       *time.Time `json:"validFrom,omitempty"`
	ValidUntil      *time.Time `json:"validUntil,omitempty"`
}

// InWindow reports whether the list's validity window contains t.
// Lists without a window are always valid.
func (pl PriceList) InWindow(t time.Time) bool {
	if pl.ValidFrom != nil && t.Before(*pl.ValidFrom) {
		return false
	}
	if pl.ValidUntil != nil && t.After(*pl.ValidUntil) {
		return false
	}
	return true
}

// VolumeDiscount is a quantity-threshold discount tier. Either DiscountPercent
// or FixedUnitPrice is set; a fixed unit price overrides percentage math.
type VolumeDiscount struct {
	MinQuantity     int      `json:"minQuantity"`
	DiscountPercent float64  `json:"discountPercent,omitempty"`
	FixedUnitPrice  *float64 `json:"fixedUnitPrice,omitempty"`
	Label           string   `json:"label,omitempty"`
}

// ActiveList selects the price list in effect for a customer tier at time t.
// Selection order: active promotional list (within its validity window),
// then the highest-priority tier-matching list, then the default list.
func ActiveList(lists []PriceList, tier string, t time.Time) *PriceList {
	sorted := make([]PriceList, len(lists))
	copy(sorted, lists)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	for i := range sorted {
		if sorted[i].Promotional && sorted[i].InWindow(t) {
			return &sorted[i]
		}
	}
	for i := range sorted {
		if sorted[i].Tier != "" && sorted[i].Tier == tier && sorted[i].InWindow(t) {
			return &sorted[i]
		}
	}
	for i := range sorted {
		if sorted[i].Tier == "" && !sorted[i].Promotional {
			return &sorted[i]
		}
	}
	return nil
}

// ApplicableVolumeDiscount returns the single best-matching tier for the
// requested quantity: the one with the highest MinQuantity not exceeding it.
// Tiers are not cumulative.
func ApplicableVolumeDiscount(tiers []VolumeDiscount, quantity int) *VolumeDiscount {
	var best *VolumeDiscount
	for i := range tiers {
		if tiers[i].MinQuantity > quantity {
			continue
		}
		if best == nil || tiers[i].MinQuantity > best.MinQuantity {
			best = &tiers[i]
		}
	}
	return best
}
