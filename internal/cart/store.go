package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/veloria/storefront/internal/pricing"
	"github.com/veloria/storefront/internal/promo"
	"github.com/veloria/storefront/internal/stock"
)

// Store is the cart state machine for one session. Mutations follow
// validate-then-commit: state changes only after stock or promo validation
// succeeds, totals are recomputed from the item list, and the result is
// persisted. Validation failures are boolean results, never errors.
type Store struct {
	mu sync.Mutex

	sessionID string
	tier      string
	state     CartState

	calc      *pricing.Calculator
	totalsCfg TotalsConfig
	stock     stock.Validator
	promos    promo.Validator
	repo      Repository
	ttl       time.Duration

	// validationErrs records the last stock-validation message per product,
	// cleared by the next successful mutation of that product.
	validationErrs map[string]string

	now    func() time.Time
	logger zerolog.Logger
}

// StoreConfig wires the cart store's collaborators.
type StoreConfig struct {
	SessionID  string
	Tier       string
	Calculator *pricing.Calculator
	Totals     TotalsConfig
	Stock      stock.Validator
	Promos     promo.Validator
	Repository Repository
	TTL        time.Duration
}

// NewStore restores the session's cart from the repository, or starts a
// fresh one when nothing usable is persisted. An expired cart is discarded
// wholesale; restored totals are always recomputed from the items rather
// than trusted.
func NewStore(ctx context.Context, cfg StoreConfig) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Totals == (TotalsConfig{}) {
		cfg.Totals = DefaultTotalsConfig()
	}

	s := &Store{
		sessionID:      cfg.SessionID,
		tier:           cfg.Tier,
		calc:           cfg.Calculator,
		totalsCfg:      cfg.Totals,
		stock:          cfg.Stock,
		promos:         cfg.Promos,
		repo:           cfg.Repository,
		ttl:            cfg.TTL,
		validationErrs: make(map[string]string),
		now:            time.Now,
		logger:         log.With().Str("component", "cart_store").Str("session", cfg.SessionID).Logger(),
	}

	s.state = s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) CartState {
	loaded, err := s.repo.Load(ctx, s.sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load persisted cart, starting fresh")
		return s.newEmptyCart()
	}
	if loaded == nil {
		return s.newEmptyCart()
	}
	if loaded.Expired(s.now()) {
		s.logger.Info().Str("cart_id", loaded.ID).Time("expired_at", loaded.ExpiresAt).Msg("Discarding expired cart")
		return s.newEmptyCart()
	}

	state := *loaded
	applyTotals(&state, ComputeTotals(state.Items, state.PromoCode, state.PromoPercent, s.totalsCfg))
	return state
}

func (s *Store) newEmptyCart() CartState {
	now := s.now()
	return CartState{
		ID:        uuid.NewString(),
		Items:     []CartItem{},
		Discounts: []Discount{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
}

// commit recomputes totals, refreshes timestamps and persists the state.
// Persistence failures are logged, not surfaced: the in-memory state is
// already committed and the next successful write will converge.
func (s *Store) commit(ctx context.Context) {
	now := s.now()
	s.state.UpdatedAt = now
	s.state.ExpiresAt = now.Add(s.ttl)
	applyTotals(&s.state, ComputeTotals(s.state.Items, s.state.PromoCode, s.state.PromoPercent, s.totalsCfg))

	if err := s.repo.Save(ctx, s.sessionID, s.state); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist cart")
	}
}

// AddOptions carries optional line-item fields for AddToCart.
type AddOptions struct {
	VariantID   string
	WarehouseID string
	Notes       string
}

// AddToCart adds quantity units of a product, merging into an existing
// (productID, variantID) line when present. Returns false without mutating
// on invalid quantity or failed stock validation.
func (s *Store) AddToCart(ctx context.Context, product Product, quantity int, opts AddOptions) bool {
	if quantity < 1 {
		recordOperation("add", false)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newQuantity := quantity
	existing := s.findItem(product.ID, opts.VariantID)
	if existing >= 0 {
		newQuantity += s.state.Items[existing].Quantity
	}

	if !s.checkStock(ctx, product.ID, newQuantity, opts.WarehouseID) {
		recordOperation("add", false)
		return false
	}

	price := s.calc.Calculate(product.ID, product.BasePriceHT, newQuantity, s.tier, pricing.CalculateOptions{})

	if existing >= 0 {
		item := &s.state.Items[existing]
		item.Quantity = newQuantity
		item.UnitPriceHT = price.UnitPriceHT
		item.UnitPriceTTC = price.UnitPriceTTC
		item.OriginalPriceHT = price.OriginalPriceHT
		item.VolumeDiscount = price.VolumeDiscount
		item.TotalPrice = round(price.UnitPriceHT*float64(newQuantity), s.totalsCfg.Precision)
	} else {
		s.state.Items = append(s.state.Items, CartItem{
			ProductID:       product.ID,
			VariantID:       opts.VariantID,
			Name:            product.Name,
			SKU:             product.SKU,
			Thumbnail:       product.Thumbnail,
			Quantity:        quantity,
			UnitPriceHT:     price.UnitPriceHT,
			UnitPriceTTC:    price.UnitPriceTTC,
			OriginalPriceHT: price.OriginalPriceHT,
			VolumeDiscount:  price.VolumeDiscount,
			TotalPrice:      round(price.UnitPriceHT*float64(quantity), s.totalsCfg.Precision),
			StockStatus:     product.StockStatus,
			Available:       product.Available,
			WarehouseID:     opts.WarehouseID,
			Notes:           opts.Notes,
			AddedAt:         s.now(),
		})
	}

	delete(s.validationErrs, product.ID)
	s.commit(ctx)
	recordOperation("add", true)
	return true
}

// RemoveFromCart removes the matching line. Removing an absent item is a
// no-op, not an error.
func (s *Store) RemoveFromCart(ctx context.Context, productID, variantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Items[:0]
	removed := false
	for _, it := range s.state.Items {
		if !removed && it.Matches(productID, variantID) {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	s.state.Items = kept
	delete(s.validationErrs, productID)

	if removed {
		s.commit(ctx)
		recordOperation("remove", true)
	}
}

// UpdateQuantity sets the matching line to the given quantity after stock
// validation. A quantity below 1 removes the line instead.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int, variantID string) bool {
	if quantity < 1 {
		s.RemoveFromCart(ctx, productID, variantID)
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findItem(productID, variantID)
	if idx < 0 {
		recordOperation("update_quantity", false)
		return false
	}

	item := &s.state.Items[idx]
	if !s.checkStock(ctx, productID, quantity, item.WarehouseID) {
		recordOperation("update_quantity", false)
		return false
	}

	// Unit price is quantity-dependent through volume tiers, so a quantity
	// change re-prices the line from its original base price.
	base := item.UnitPriceHT
	if item.OriginalPriceHT != nil {
		base = *item.OriginalPriceHT
	}
	price := s.calc.Calculate(productID, base, quantity, s.tier, pricing.CalculateOptions{})

	item.Quantity = quantity
	item.UnitPriceHT = price.UnitPriceHT
	item.UnitPriceTTC = price.UnitPriceTTC
	item.OriginalPriceHT = price.OriginalPriceHT
	item.VolumeDiscount = price.VolumeDiscount
	item.TotalPrice = round(price.UnitPriceHT*float64(quantity), s.totalsCfg.Precision)

	delete(s.validationErrs, productID)
	s.commit(ctx)
	recordOperation("update_quantity", true)
	return true
}

// UpdateItemNotes sets the free-text note on the matching line. No stock
// check; succeeds unless the line is absent.
func (s *Store) UpdateItemNotes(ctx context.Context, productID, variantID, notes string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findItem(productID, variantID)
	if idx < 0 {
		return false
	}
	s.state.Items[idx].Notes = notes
	s.commit(ctx)
	return true
}

// UpdateItemWarehouse sets the fulfillment warehouse on the matching line.
func (s *Store) UpdateItemWarehouse(ctx context.Context, productID, variantID, warehouseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findItem(productID, variantID)
	if idx < 0 {
		return false
	}
	s.state.Items[idx].WarehouseID = warehouseID
	s.commit(ctx)
	return true
}

// ClearCart replaces the state with a fresh empty cart under a new ID.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = s.newEmptyCart()
	s.validationErrs = make(map[string]string)

	if err := s.repo.Save(ctx, s.sessionID, s.state); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist cleared cart")
	}
	recordOperation("clear", true)
}

// ApplyPromoCode validates the code and, on success, records it so the promo
// discount enters the totals computation. Unknown codes return false with no
// state change.
func (s *Store) ApplyPromoCode(ctx context.Context, code string) bool {
	result, err := s.promos.Validate(ctx, code)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", code).Msg("Promo validation unavailable")
		recordOperation("apply_promo", false)
		return false
	}
	if !result.Valid {
		recordOperation("apply_promo", false)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.PromoCode = result.Code
	s.state.PromoPercent = result.DiscountPercent
	s.commit(ctx)
	recordOperation("apply_promo", true)
	return true
}

// RemovePromoCode clears the applied code and recomputes totals without it.
func (s *Store) RemovePromoCode(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.PromoCode == "" {
		return
	}
	s.state.PromoCode = ""
	s.state.PromoPercent = 0
	s.commit(ctx)
}

// ValidateStock re-checks every line against current inventory. It is a pure
// read: results are returned to the caller, cart state is untouched.
func (s *Store) ValidateStock(ctx context.Context) ([]stock.Result, error) {
	s.mu.Lock()
	reqs := make([]stock.Request, 0, len(s.state.Items))
	for _, it := range s.state.Items {
		reqs = append(reqs, stock.Request{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			WarehouseID: it.WarehouseID,
		})
	}
	s.mu.Unlock()

	return s.stock.ValidateItems(ctx, reqs)
}

// IsInCart reports whether a matching line exists. With an empty variantID
// this is a wildcard and matches the first line for the product; callers
// that care about exact variants should pass one or use GetItems.
func (s *Store) IsInCart(productID, variantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findItem(productID, variantID) >= 0
}

// GetItemQuantity returns the quantity of the first matching line, 0 if absent.
func (s *Store) GetItemQuantity(productID, variantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.findItem(productID, variantID); idx >= 0 {
		return s.state.Items[idx].Quantity
	}
	return 0
}

// GetItem returns the first matching line.
func (s *Store) GetItem(productID, variantID string) (CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.findItem(productID, variantID); idx >= 0 {
		return s.state.Items[idx], true
	}
	return CartItem{}, false
}

// GetItems returns every variant line for a product, so callers are not
// forced through the first-match wildcard.
func (s *Store) GetItems(productID string) []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []CartItem
	for _, it := range s.state.Items {
		if it.ProductID == productID {
			items = append(items, it)
		}
	}
	return items
}

// State returns a copy of the current cart state.
func (s *Store) State() CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	state.Items = append([]CartItem(nil), s.state.Items...)
	state.Discounts = append([]Discount(nil), s.state.Discounts...)
	return state
}

// ValidationError returns the last recorded stock-validation message for a
// product, if any.
func (s *Store) ValidationError(productID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.validationErrs[productID]
	return msg, ok
}

// checkStock runs a single-item validation and records a field-level message
// on failure. Caller holds the lock.
func (s *Store) checkStock(ctx context.Context, productID string, quantity int, warehouseID string) bool {
	result, err := s.stock.ValidateItem(ctx, stock.Request{
		ProductID:   productID,
		Quantity:    quantity,
		WarehouseID: warehouseID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("product", productID).Msg("Stock validation unavailable")
		s.validationErrs[productID] = "inventory service unavailable"
		return false
	}
	if !result.IsValid {
		s.validationErrs[productID] = result.Message
		return false
	}
	return true
}

func (s *Store) findItem(productID, variantID string) int {
	for i, it := range s.state.Items {
		if it.Matches(productID, variantID) {
			return i
		}
	}
	return -1
}
