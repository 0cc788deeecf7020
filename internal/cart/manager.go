package cart

import (
	"context"
	"sync"
	"time"

	"github.com/veloria/storefront/internal/pricing"
	"github.com/veloria/storefront/internal/promo"
	"github.com/veloria/storefront/internal/stock"
)

// ManagerConfig wires the collaborators shared by every session's store.
type ManagerConfig struct {
	Calculator  *pricing.Calculator
	Totals      TotalsConfig
	Stock       stock.Validator
	Promos      promo.Validator
	Repository  Repository
	TTL         time.Duration
	DefaultTier string
}

// Manager hands out one Store per session. Requests for the same session
// share one instance, so mutations serialize through its mutex and apply
// in call order.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store
	cfg    ManagerConfig
}

// NewManager creates a session-keyed store registry.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		stores: make(map[string]*Store),
		cfg:    cfg,
	}
}

// Store returns the session's cart store, restoring it from the repository
// on first access. A tier change discards the cached instance so lines are
// repriced against the new price list on the next mutation.
func (m *Manager) Store(ctx context.Context, sessionID, tier string) *Store {
	if tier == "" {
		tier = m.cfg.DefaultTier
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok && s.tier == tier {
		return s
	}

	s := NewStore(ctx, StoreConfig{
		SessionID:  sessionID,
		Tier:       tier,
		Calculator: m.cfg.Calculator,
		Totals:     m.cfg.Totals,
		Stock:      m.cfg.Stock,
		Promos:     m.cfg.Promos,
		Repository: m.cfg.Repository,
		TTL:        m.cfg.TTL,
	})
	m.stores[sessionID] = s
	return s
}

// Evict drops the cached store for a session. Persisted state is untouched.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}
