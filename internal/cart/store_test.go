package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloria/storefront/internal/pricing"
	"github.com/veloria/storefront/internal/promo"
	"github.com/veloria/storefront/internal/stock"
)

var (
	ring = Product{ID: "P1", Name: "Solitaire Ring", BasePriceHT: 100, StockStatus: StockInStock, Available: 100}
	cuff = Product{ID: "P2", Name: "Gold Cuff", BasePriceHT: 250, StockStatus: StockInStock, Available: 50}
)

func newTestStore(t *testing.T, repo Repository) *Store {
	t.Helper()
	if repo == nil {
		repo = NewMemoryRepository()
	}
	calc := pricing.NewCalculator(pricing.DefaultCalculatorConfig(), []pricing.PriceList{
		{ID: "default", Name: "Public", Priority: 0},
	}, map[string][]pricing.VolumeDiscount{
		"P2": {{MinQuantity: 10, DiscountPercent: 10, Label: "10+"}},
	})
	return NewStore(context.Background(), StoreConfig{
		SessionID:  "sess-1",
		Calculator: calc,
		Stock:      stock.NewStaticValidator(map[string]int{"P1": 100, "P2": 50, "scarce": 2}),
		Promos:     promo.NewStaticValidator(promo.DefaultCodes()),
		Repository: repo,
	})
}

func TestCartScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	// Add P1 priced 100HT qty 1.
	require.True(t, s.AddToCart(ctx, ring, 1, AddOptions{}))
	assert.Equal(t, 100.0, s.State().SubtotalHT)

	// Add P1 qty 2 more: one line, quantity 3.
	require.True(t, s.AddToCart(ctx, ring, 2, AddOptions{}))
	state := s.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 3, state.Items[0].Quantity)
	assert.Equal(t, 300.0, state.SubtotalHT)
	assert.Equal(t, 300.0, state.Items[0].TotalPrice)

	// Apply PRO20.
	require.True(t, s.ApplyPromoCode(ctx, "pro20"))
	state = s.State()
	assert.Equal(t, 240.0, state.TotalHT)
	require.Len(t, state.Discounts, 1)
	assert.Equal(t, "promo", state.Discounts[0].Type)
	assert.Equal(t, 60.0, state.Discounts[0].AmountHT)

	// Remove P1: cart empty, totals zero, promo moot.
	s.RemoveFromCart(ctx, "P1", "")
	state = s.State()
	assert.Empty(t, state.Items)
	assert.Equal(t, 0.0, state.TotalHT)
	assert.Equal(t, 0.0, state.SubtotalHT)
}

func TestTotalReconciliation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	check := func() {
		state := s.State()
		var want float64
		for _, it := range state.Items {
			want += it.UnitPriceHT * float64(it.Quantity)
			assert.Equal(t, round(it.UnitPriceHT*float64(it.Quantity), 2), it.TotalPrice)
		}
		assert.InDelta(t, want, state.SubtotalHT, 0.01)
		assert.InDelta(t, state.SubtotalHT-state.TotalDiscountHT, state.TotalHT, 0.01)
	}

	s.AddToCart(ctx, ring, 2, AddOptions{})
	check()
	s.AddToCart(ctx, cuff, 5, AddOptions{})
	check()
	s.UpdateQuantity(ctx, "P2", 12, "")
	check()
	s.ApplyPromoCode(ctx, "WELCOME10")
	check()
	s.RemoveFromCart(ctx, "P1", "")
	check()
	s.UpdateQuantity(ctx, "P2", 0, "")
	check()
}

func TestIdempotentReAddByVariant(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	require.True(t, s.AddToCart(ctx, ring, 2, AddOptions{VariantID: "gold"}))
	require.True(t, s.AddToCart(ctx, ring, 3, AddOptions{VariantID: "gold"}))
	require.True(t, s.AddToCart(ctx, ring, 1, AddOptions{VariantID: "platinum"}))

	state := s.State()
	require.Len(t, state.Items, 2)
	assert.Equal(t, 5, s.GetItemQuantity("P1", "gold"))
	assert.Equal(t, 1, s.GetItemQuantity("P1", "platinum"))

	// Wildcard queries match the first variant line.
	assert.True(t, s.IsInCart("P1", ""))
	assert.Equal(t, 5, s.GetItemQuantity("P1", ""))
	assert.Len(t, s.GetItems("P1"), 2)
}

func TestAddRejectsInvalidQuantityAndStock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	assert.False(t, s.AddToCart(ctx, ring, 0, AddOptions{}))
	assert.False(t, s.AddToCart(ctx, ring, -3, AddOptions{}))

	scarce := Product{ID: "scarce", Name: "One-off Tiara", BasePriceHT: 5000, Available: 2}
	assert.False(t, s.AddToCart(ctx, scarce, 5, AddOptions{}))
	assert.Empty(t, s.State().Items)

	msg, ok := s.ValidationError("scarce")
	require.True(t, ok)
	assert.Contains(t, msg, "2 unit(s) available")

	// A successful add clears the recorded error.
	require.True(t, s.AddToCart(ctx, scarce, 2, AddOptions{}))
	_, ok = s.ValidationError("scarce")
	assert.False(t, ok)
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	s.AddToCart(ctx, cuff, 2, AddOptions{})

	t.Run("repricing picks up volume tier", func(t *testing.T) {
		require.True(t, s.UpdateQuantity(ctx, "P2", 12, ""))
		item, ok := s.GetItem("P2", "")
		require.True(t, ok)
		assert.Equal(t, 12, item.Quantity)
		assert.Equal(t, 225.0, item.UnitPriceHT)
		require.NotNil(t, item.VolumeDiscount)
	})

	t.Run("dropping below tier restores base price", func(t *testing.T) {
		require.True(t, s.UpdateQuantity(ctx, "P2", 2, ""))
		item, _ := s.GetItem("P2", "")
		assert.Equal(t, 250.0, item.UnitPriceHT)
		assert.Nil(t, item.VolumeDiscount)
	})

	t.Run("beyond stock fails without mutation", func(t *testing.T) {
		assert.False(t, s.UpdateQuantity(ctx, "P2", 500, ""))
		assert.Equal(t, 2, s.GetItemQuantity("P2", ""))
		_, ok := s.ValidationError("P2")
		assert.True(t, ok)
	})

	t.Run("zero quantity removes the line", func(t *testing.T) {
		require.True(t, s.UpdateQuantity(ctx, "P2", 0, ""))
		assert.False(t, s.IsInCart("P2", ""))
	})

	t.Run("unknown line returns false", func(t *testing.T) {
		assert.False(t, s.UpdateQuantity(ctx, "ghost", 1, ""))
	})
}

func TestNotesAndWarehouseUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	s.AddToCart(ctx, ring, 1, AddOptions{WarehouseID: "paris"})

	require.True(t, s.UpdateItemNotes(ctx, "P1", "", "engrave initials"))
	require.True(t, s.UpdateItemWarehouse(ctx, "P1", "", "geneva"))

	item, _ := s.GetItem("P1", "")
	assert.Equal(t, "engrave initials", item.Notes)
	assert.Equal(t, "geneva", item.WarehouseID)

	assert.False(t, s.UpdateItemNotes(ctx, "ghost", "", "x"))
}

func TestPromoCodes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	s.AddToCart(ctx, ring, 1, AddOptions{})

	assert.False(t, s.ApplyPromoCode(ctx, "BOGUS"), "unknown code makes no changes")
	assert.Empty(t, s.State().PromoCode)

	require.True(t, s.ApplyPromoCode(ctx, "welcome10"), "codes are case-insensitive")
	state := s.State()
	assert.Equal(t, "WELCOME10", state.PromoCode)
	assert.Equal(t, 90.0, state.TotalHT)

	s.RemovePromoCode(ctx)
	state = s.State()
	assert.Empty(t, state.PromoCode)
	assert.Equal(t, 100.0, state.TotalHT)
	assert.Empty(t, state.Discounts)
}

func TestClearCartGeneratesFreshState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	s.AddToCart(ctx, ring, 1, AddOptions{})
	oldID := s.State().ID

	s.ClearCart(ctx)

	state := s.State()
	assert.Empty(t, state.Items)
	assert.NotEqual(t, oldID, state.ID)
	assert.True(t, state.ExpiresAt.After(time.Now()))
}

func TestExpiredCartDiscardedOnRestore(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	s := newTestStore(t, repo)
	s.AddToCart(ctx, ring, 3, AddOptions{})
	oldID := s.State().ID

	// Force the persisted cart past its TTL.
	expired := s.State()
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, "sess-1", expired))

	restored := newTestStore(t, repo)
	state := restored.State()
	assert.Empty(t, state.Items)
	assert.NotEqual(t, oldID, state.ID)
	assert.Equal(t, 0.0, state.TotalHT)
}

func TestRestoreRecomputesPersistedTotals(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	s := newTestStore(t, repo)
	s.AddToCart(ctx, ring, 2, AddOptions{})

	// Tamper with persisted totals; restore must not trust them.
	tampered := s.State()
	tampered.SubtotalHT = 9999
	tampered.TotalHT = 9999
	require.NoError(t, repo.Save(ctx, "sess-1", tampered))

	restored := newTestStore(t, repo)
	state := restored.State()
	assert.Equal(t, 200.0, state.SubtotalHT)
	assert.Equal(t, 200.0, state.TotalHT)
}

type failingRepo struct{ MemoryRepository }

func (r *failingRepo) Load(ctx context.Context, sessionID string) (*CartState, error) {
	return nil, errors.New("storage offline")
}

func TestLoadFailureYieldsFreshCart(t *testing.T) {
	repo := &failingRepo{MemoryRepository: *NewMemoryRepository()}
	s := newTestStore(t, repo)

	state := s.State()
	assert.NotEmpty(t, state.ID)
	assert.Empty(t, state.Items)
}

func TestSavedCarts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	_, ok := s.SaveCurrent(ctx, "empty")
	assert.False(t, ok, "empty cart cannot be saved")

	s.AddToCart(ctx, ring, 2, AddOptions{})
	snapshot, ok := s.SaveCurrent(ctx, "spring order")
	require.True(t, ok)
	assert.NotEmpty(t, snapshot.ID)
	assert.NotEmpty(t, snapshot.ShareToken)
	assert.Len(t, snapshot.Items, 1)

	// Mutate the live cart, then load the snapshot back.
	s.AddToCart(ctx, cuff, 4, AddOptions{})
	require.Len(t, s.State().Items, 2)

	require.True(t, s.LoadSaved(ctx, snapshot.ID))
	state := s.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, "P1", state.Items[0].ProductID)
	assert.Equal(t, 200.0, state.SubtotalHT)

	assert.Len(t, s.SavedCarts(ctx), 1)
	assert.False(t, s.LoadSaved(ctx, "unknown"))
	assert.False(t, s.DeleteSaved(ctx, "unknown"))
	require.True(t, s.DeleteSaved(ctx, snapshot.ID))
	assert.Empty(t, s.SavedCarts(ctx))
}

func TestComputeTotalsPure(t *testing.T) {
	items := []CartItem{
		{ProductID: "a", Quantity: 2, UnitPriceHT: 10, UnitPriceTTC: 12},
		{ProductID: "b", Quantity: 1, UnitPriceHT: 5, UnitPriceTTC: 6},
	}

	first := ComputeTotals(items, "PRO20", 20, DefaultTotalsConfig())
	second := ComputeTotals(items, "PRO20", 20, DefaultTotalsConfig())

	assert.Equal(t, first, second)
	assert.Equal(t, 25.0, first.SubtotalHT)
	assert.Equal(t, 5.0, first.TotalDiscountHT)
	assert.Equal(t, 20.0, first.TotalHT)
	assert.Equal(t, 24.0, first.TotalTTC)
	assert.Equal(t, 3, first.TotalQuantity)
	assert.Equal(t, 2, first.ItemCount)
}
