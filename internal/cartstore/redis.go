package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quancoi2ka3/sportshop/internal/domain"
)

// RedisStore implements Store on Redis, for deployments with more than one
// server node. Each cart lives under one key and carries the configured TTL,
// refreshed on every save.
type RedisStore struct {
	client *redis.Client
	cfg    Config
}

// NewRedisStore creates a Redis-backed cart store.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	if cfg.RedisAddr == "" {
		return nil, domain.Errorf(domain.ECONFIG, "cartstore.redis", "redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &RedisStore{client: client, cfg: cfg}, nil
}

func cartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}

func (s *RedisStore) Load(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	data, err := s.client.Get(ctx, cartKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		// Same contract as the file backend: a corrupt payload is
		// dropped, not surfaced.
		_ = s.client.Del(ctx, cartKey(cartID)).Err()
		return []domain.CartItem{}, nil
	}
	return items, nil
}

func (s *RedisStore) Save(ctx context.Context, cartID string, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(cartID), data, s.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, cartID string) error {
	if err := s.client.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
