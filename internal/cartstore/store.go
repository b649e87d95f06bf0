// Package cartstore persists shopping carts between visits.
//
// A cart is identified by an opaque cart ID (issued as a browser cookie by
// the handler layer) and stored as a plain list of items. Totals are never
// stored; they are derived from the items on every read.
package cartstore

import (
	"context"
	"time"

	"github.com/quancoi2ka3/sportshop/internal/domain"
)

// Store is the interface cart persistence backends implement.
// Implementations can use the local filesystem, Redis, or any other backend.
type Store interface {
	// Load returns the items for a cart. An unknown cart ID is not an
	// error: it loads as an empty cart. A stored payload that cannot be
	// decoded is discarded and also loads as an empty cart.
	Load(ctx context.Context, cartID string) ([]domain.CartItem, error)

	// Save replaces the cart's items. Saving an empty slice is allowed
	// and equivalent to clearing the cart.
	Save(ctx context.Context, cartID string, items []domain.CartItem) error

	// Delete removes the cart entirely.
	// Returns nil if the cart doesn't exist (idempotent).
	Delete(ctx context.Context, cartID string) error
}

// Config selects and configures a cart persistence backend.
type Config struct {
	// Backend is "file" (default) or "redis".
	Backend string

	// Dir is the storage directory for the file backend.
	Dir string

	// RedisAddr, RedisPassword and RedisDB configure the redis backend.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTL bounds how long an untouched cart survives. Zero means no
	// expiry. Only the redis backend enforces it.
	TTL time.Duration
}

// NewStore creates a Store implementation based on configuration.
// Returns a FileStore for the "file" backend, a RedisStore for "redis".
func NewStore(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "file", "":
		return NewFileStore(cfg.Dir)
	case "redis":
		return NewRedisStore(cfg)
	default:
		return nil, domain.Errorf(domain.ECONFIG, "cartstore.new", "unknown cart store backend: %s", cfg.Backend)
	}
}
