package cart

import (
	"context"

	"github.com/google/uuid"
)

// SaveCurrent snapshots the current cart's items under a name. The snapshot
// is immutable after creation and carries an opaque share token.
func (s *Store) SaveCurrent(ctx context.Context, name string) (SavedCart, bool) {
	s.mu.Lock()
	if len(s.state.Items) == 0 {
		s.mu.Unlock()
		return SavedCart{}, false
	}
	snapshot := SavedCart{
		ID:         uuid.NewString(),
		Name:       name,
		Items:      append([]CartItem(nil), s.state.Items...),
		ShareToken: uuid.NewString(),
		CreatedAt:  s.now(),
	}
	s.mu.Unlock()

	saved, err := s.repo.LoadSaved(ctx, s.sessionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load saved carts")
		return SavedCart{}, false
	}
	saved = append(saved, snapshot)
	if err := s.repo.StoreSaved(ctx, s.sessionID, saved); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist saved cart")
		return SavedCart{}, false
	}
	return snapshot, true
}

// SavedCarts lists the session's saved snapshots.
func (s *Store) SavedCarts(ctx context.Context) []SavedCart {
	saved, err := s.repo.LoadSaved(ctx, s.sessionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load saved carts")
		return nil
	}
	return saved
}

// LoadSaved replaces the current cart's items with a saved snapshot. Totals
// are recomputed from the snapshot items; the applied promo, if any, stays.
func (s *Store) LoadSaved(ctx context.Context, savedID string) bool {
	saved, err := s.repo.LoadSaved(ctx, s.sessionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load saved carts")
		return false
	}

	for _, sc := range saved {
		if sc.ID == savedID {
			s.mu.Lock()
			s.state.Items = append([]CartItem(nil), sc.Items...)
			s.validationErrs = make(map[string]string)
			s.commit(ctx)
			s.mu.Unlock()
			return true
		}
	}
	return false
}

// DeleteSaved removes a saved snapshot. Deleting an unknown ID is a no-op
// returning false.
func (s *Store) DeleteSaved(ctx context.Context, savedID string) bool {
	saved, err := s.repo.LoadSaved(ctx, s.sessionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load saved carts")
		return false
	}

	kept := saved[:0]
	found := false
	for _, sc := range saved {
		if sc.ID == savedID {
			found = true
			continue
		}
		kept = append(kept, sc)
	}
	if !found {
		return false
	}

	if err := s.repo.StoreSaved(ctx, s.sessionID, kept); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist saved carts")
		return false
	}
	return true
}
