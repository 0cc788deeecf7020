package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// keyCart holds the serialized CartState: cart:{session_id}
	keyCart = "cart:%s"

	// keySavedCarts holds the JSON array of saved carts: cart:saved:{session_id}
	keySavedCarts = "cart:saved:%s"
)

// DefaultTTL is the cart expiry window. The same window is written into the
// payload as expiresAt and enforced as the Redis key TTL.
const DefaultTTL = 72 * time.Hour

// RedisRepository persists carts in Redis with native TTL expiry.
type RedisRepository struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisRepository creates a repository over the given Redis client.
func NewRedisRepository(rdb *redis.Client, ttl time.Duration) *RedisRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRepository{
		rdb:    rdb,
		ttl:    ttl,
		logger: log.With().Str("component", "cart_repository").Logger(),
	}
}

// Load reads and decodes a persisted cart. A missing key or a corrupt
// payload both read as "no existing cart".
func (r *RedisRepository) Load(ctx context.Context, sessionID string) (*CartState, error) {
	data, err := r.rdb.Get(ctx, fmt.Sprintf(keyCart, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var state CartState
	if err := json.Unmarshal(data, &state); err != nil {
		r.logger.Warn().Err(err).Str("session", sessionID).Msg("Discarding corrupt cart payload")
		return nil, nil
	}
	return &state, nil
}

func (r *RedisRepository) Save(ctx context.Context, sessionID string, state CartState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := r.rdb.Set(ctx, fmt.Sprintf(keyCart, sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, fmt.Sprintf(keyCart, sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (r *RedisRepository) LoadSaved(ctx context.Context, sessionID string) ([]SavedCart, error) {
	data, err := r.rdb.Get(ctx, fmt.Sprintf(keySavedCarts, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load saved carts: %w", err)
	}

	var carts []SavedCart
	if err := json.Unmarshal(data, &carts); err != nil {
		r.logger.Warn().Err(err).Str("session", sessionID).Msg("Discarding corrupt saved-cart payload")
		return nil, nil
	}
	return carts, nil
}

func (r *RedisRepository) StoreSaved(ctx context.Context, sessionID string, carts []SavedCart) error {
	data, err := json.Marshal(carts)
	if err != nil {
		return fmt.Errorf("failed to marshal saved carts: %w", err)
	}
	// Saved carts are long-lived snapshots, not subject to the cart TTL.
	if err := r.rdb.Set(ctx, fmt.Sprintf(keySavedCarts, sessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to persist saved carts: %w", err)
	}
	return nil
}
