package pricing

// StorewideKey is the volume-discount map key whose tiers apply to any
// product without its own entry.
const StorewideKey = ""

// DefaultPriceLists returns the built-in tier price lists used when no
// pricing policy is configured: a public list plus discounted premium and
// vip tiers.
func DefaultPriceLists() []PriceList {
	return []PriceList{
		{ID: "default", Name: "Public", Priority: 0},
		{ID: "premium", Name: "Premium", Tier: "premium", DiscountPercent: 10, Priority: 10},
		{ID: "vip", Name: "VIP", Tier: "vip", DiscountPercent: 20, Priority: 20},
	}
}

// DefaultVolumeDiscounts returns the built-in storewide volume tiers.
func DefaultVolumeDiscounts() map[string][]VolumeDiscount {
	return map[string][]VolumeDiscount{
		StorewideKey: {
			{MinQuantity: 5, DiscountPercent: 5, Label: "5+"},
			{MinQuantity: 10, DiscountPercent: 10, Label: "10+"},
			{MinQuantity: 25, DiscountPercent: 15, Label: "25+"},
		},
	}
}
