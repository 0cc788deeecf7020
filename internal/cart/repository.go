package cart

import (
	"context"
	"sync"
)

// Repository persists carts and saved-cart lists per session. Load returns
// (nil, nil) when no cart exists; implementations must treat corrupt payloads
// as absence, never as an error for the caller.
type Repository interface {
	Load(ctx context.Context, sessionID string) (*CartState, error)
	Save(ctx context.Context, sessionID string, state CartState) error
	Delete(ctx context.Context, sessionID string) error

	LoadSaved(ctx context.Context, sessionID string) ([]SavedCart, error)
	StoreSaved(ctx context.Context, sessionID string, carts []SavedCart) error
}

// MemoryRepository is an in-process Repository used in tests and for
// single-node development runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]CartState
	saved map[string][]SavedCart
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		carts: make(map[string]CartState),
		saved: make(map[string][]SavedCart),
	}
}

func (r *MemoryRepository) Load(ctx context.Context, sessionID string) (*CartState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.carts[sessionID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *MemoryRepository) Save(ctx context.Context, sessionID string, state CartState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[sessionID] = state
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
	return nil
}

func (r *MemoryRepository) LoadSaved(ctx context.Context, sessionID string) ([]SavedCart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SavedCart(nil), r.saved[sessionID]...), nil
}

func (r *MemoryRepository) StoreSaved(ctx context.Context, sessionID string, carts []SavedCart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[sessionID] = append([]SavedCart(nil), carts...)
	return nil
}
