package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/agrikart/storefront/internal/entity"
	"github.com/agrikart/storefront/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// RedisCartStore persists per-user carts as JSON blobs. A missing key is
// an empty cart, which makes Clear idempotent for free.
type RedisCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCartStore(rdb *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{rdb: rdb, ttl: ttl}
}

func cartKey(userID string) string { return "cart:" + userID }

func (s *RedisCartStore) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	raw, err := s.rdb.Get(ctx, cartKey(userID)).Result()
	if err == redis.Nil {
		return []domain.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("corrupt cart for %s: %w", userID, err)
	}
	return items, nil
}

func (s *RedisCartStore) Replace(ctx context.Context, userID string, items []domain.CartItem) error {
	if len(items) == 0 {
		return s.Clear(ctx, userID)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(userID), raw, s.ttl).Err()
}

func (s *RedisCartStore) Clear(ctx context.Context, userID string) error {
	// DEL of an absent key is a no-op.
	return s.rdb.Del(ctx, cartKey(userID)).Err()
}

var _ usecase.CartStore = (*RedisCartStore)(nil)
