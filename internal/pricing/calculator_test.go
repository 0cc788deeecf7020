package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLists() []PriceList {
	return []PriceList{
		{ID: "default", Name: "Public", Priority: 0},
		{ID: "premium", Name: "Premium", Tier: "premium", DiscountPercent: 10, Priority: 10},
		{ID: "vip", Name: "VIP", Tier: "vip", DiscountPercent: 20, Priority: 20},
	}
}

func testVolumeTiers() map[string][]VolumeDiscount {
	return map[string][]VolumeDiscount{
		"ring-01": {
			{MinQuantity: 5, DiscountPercent: 5, Label: "5+"},
			{MinQuantity: 10, DiscountPercent: 10, Label: "10+"},
			{MinQuantity: 25, DiscountPercent: 15, Label: "25+"},
		},
	}
}

func TestActiveListSelection(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	lists := testLists()
	promo := PriceList{
		ID: "summer", Promotional: true, DiscountPercent: 30, Priority: 100,
		ValidFrom: &past, ValidUntil: &future,
	}

	t.Run("tier match wins over default", func(t *testing.T) {
		got := ActiveList(lists, "premium", now)
		require.NotNil(t, got)
		assert.Equal(t, "premium", got.ID)
	})

	t.Run("unknown tier falls back to default", func(t *testing.T) {
		got := ActiveList(lists, "wholesale", now)
		require.NotNil(t, got)
		assert.Equal(t, "default", got.ID)
	})

	t.Run("active promotion beats tier list", func(t *testing.T) {
		got := ActiveList(append(lists, promo), "vip", now)
		require.NotNil(t, got)
		assert.Equal(t, "summer", got.ID)
	})

	t.Run("expired promotion is skipped", func(t *testing.T) {
		expired := promo
		longAgo := now.Add(-48 * time.Hour)
		expired.ValidUntil = &longAgo
		got := ActiveList(append(lists, expired), "vip", now)
		require.NotNil(t, got)
		assert.Equal(t, "vip", got.ID)
	})
}

func TestApplicableVolumeDiscountTieBreak(t *testing.T) {
	tiers := testVolumeTiers()["ring-01"]

	tests := []struct {
		quantity int
		want     float64
	}{
		{1, 0},
		{4, 0},
		{5, 5},
		{9, 5},
		{10, 10},
		{24, 10},
		{25, 15},
		{100, 15},
	}

	for _, tt := range tests {
		got := ApplicableVolumeDiscount(tiers, tt.quantity)
		if tt.want == 0 {
			assert.Nil(t, got, "quantity %d", tt.quantity)
			continue
		}
		require.NotNil(t, got, "quantity %d", tt.quantity)
		assert.Equal(t, tt.want, got.DiscountPercent, "quantity %d", tt.quantity)
	}
}

func TestCalculateTierDiscount(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig(), testLists(), nil)

	got := calc.Calculate("ring-01", 100, 1, "premium", CalculateOptions{})

	assert.Equal(t, 90.0, got.UnitPriceHT)
	assert.Equal(t, 108.0, got.UnitPriceTTC)
	require.NotNil(t, got.OriginalPriceHT)
	assert.Equal(t, 100.0, *got.OriginalPriceHT)
	assert.Equal(t, 10.0, got.DiscountPercent)
	assert.Equal(t, "premium", got.PriceListID)
}

func TestCalculateMultiplicativeStacking(t *testing.T) {
	// 10% tier + 10% volume stacks to 19%, not 20%.
	calc := NewCalculator(DefaultCalculatorConfig(), testLists(), testVolumeTiers())

	got := calc.Calculate("ring-01", 100, 10, "premium", CalculateOptions{})

	assert.Equal(t, 81.0, got.UnitPriceHT)
	assert.Equal(t, 19.0, got.DiscountPercent)
	require.NotNil(t, got.VolumeDiscount)
	assert.Equal(t, 10, got.VolumeDiscount.MinQuantity)
}

func TestCalculateFixedUnitPriceOverride(t *testing.T) {
	fixed := 70.0
	calc := NewCalculator(DefaultCalculatorConfig(), testLists(), map[string][]VolumeDiscount{
		"ring-01": {{MinQuantity: 10, FixedUnitPrice: &fixed, Label: "bulk"}},
	})

	got := calc.Calculate("ring-01", 100, 12, "premium", CalculateOptions{})

	assert.Equal(t, 70.0, got.UnitPriceHT)
	assert.Equal(t, 30.0, got.DiscountPercent)
}

func TestCalculateSkipVolumeDiscount(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig(), testLists(), testVolumeTiers())

	got := calc.Calculate("ring-01", 100, 10, "premium", CalculateOptions{SkipVolumeDiscount: true})

	assert.Equal(t, 90.0, got.UnitPriceHT)
	assert.Nil(t, got.VolumeDiscount)
}

func TestCalculateStorewideVolumeFallback(t *testing.T) {
	tiers := testVolumeTiers()
	tiers[StorewideKey] = []VolumeDiscount{{MinQuantity: 10, DiscountPercent: 8, Label: "10+"}}
	calc := NewCalculator(DefaultCalculatorConfig(), testLists(), tiers)

	// ring-01 has its own tiers and must not fall through to the storewide set.
	own := calc.Calculate("ring-01", 100, 10, "", CalculateOptions{})
	assert.Equal(t, 90.0, own.UnitPriceHT)

	// A product without an entry picks up the storewide tiers.
	store := calc.Calculate("cuff-07", 100, 10, "", CalculateOptions{})
	assert.Equal(t, 92.0, store.UnitPriceHT)
	require.NotNil(t, store.VolumeDiscount)
	assert.Equal(t, "10+", store.VolumeDiscount.Label)
}

func TestDefaultPolicyDiscountsAreLive(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig(), DefaultPriceLists(), DefaultVolumeDiscounts())

	// vip tier 20% then the 10+ storewide volume tier 10%: 100 -> 80 -> 72.
	got := calc.Calculate("any-product", 100, 10, "vip", CalculateOptions{})

	assert.Equal(t, 72.0, got.UnitPriceHT)
	assert.Equal(t, 28.0, got.DiscountPercent)
	assert.Equal(t, "vip", got.PriceListID)
	require.NotNil(t, got.VolumeDiscount)
	assert.Equal(t, 10, got.VolumeDiscount.MinQuantity)

	// Public tier with a small quantity stays at the base price.
	base := calc.Calculate("any-product", 100, 1, "", CalculateOptions{})
	assert.Equal(t, 100.0, base.UnitPriceHT)
}

func TestCalculateDefensiveInputs(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig(), testLists(), nil)

	got := calc.Calculate("ring-01", -50, 0, "", CalculateOptions{})

	assert.Equal(t, 0.0, got.UnitPriceHT)
	assert.Equal(t, 0.0, got.UnitPriceTTC)
	assert.Nil(t, got.OriginalPriceHT)
}

func TestCalculateNoDiscountOmitsOriginal(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig(), testLists(), nil)

	got := calc.Calculate("ring-01", 100, 1, "", CalculateOptions{})

	assert.Equal(t, 100.0, got.UnitPriceHT)
	assert.Equal(t, 120.0, got.UnitPriceTTC)
	assert.Nil(t, got.OriginalPriceHT)
	assert.Zero(t, got.DiscountPercent)
}
