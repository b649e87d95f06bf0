// Package cart provides business logic for shopping cart operations.
//
// Every mutation is written through to the configured cartstore backend
// before it is reported back, so a cart survives server restarts. Totals
// are derived from the stored items on every call and never cached.
package cart

import (
	"context"
	"math"
	"sync"

	"github.com/quancoi2ka3/sportshop/internal/cartstore"
	"github.com/quancoi2ka3/sportshop/internal/coupon"
	"github.com/quancoi2ka3/sportshop/internal/domain"
)

// Service provides business logic for shopping cart operations.
type Service interface {
	// Add merges an item into the cart. An item with the same ID already
	// in the cart has its quantity increased; otherwise the item is
	// appended. Returns the cart after the mutation.
	Add(ctx context.Context, cartID string, item domain.CartItem) ([]domain.CartItem, error)

	// Remove deletes a line from the cart. Removing an absent item is a
	// no-op.
	Remove(ctx context.Context, cartID, itemID string) ([]domain.CartItem, error)

	// SetQuantity replaces a line's quantity. A quantity below 1 removes
	// the line. Setting a quantity on an absent line is an error unless
	// the quantity is below 1, in which case it is a no-op.
	SetQuantity(ctx context.Context, cartID, itemID string, quantity int) ([]domain.CartItem, error)

	// Clear empties the cart and drops any applied coupon.
	Clear(ctx context.Context, cartID string) error

	// Items returns the cart's current lines.
	Items(ctx context.Context, cartID string) ([]domain.CartItem, error)

	// Totals derives the cart's cost breakdown from its current items
	// and applied coupon.
	Totals(ctx context.Context, cartID string) (domain.OrderTotals, error)

	// ApplyCoupon resolves a promotional code and attaches it to the
	// cart. Unknown codes are rejected.
	ApplyCoupon(ctx context.Context, cartID, code string) (coupon.Coupon, error)

	// RemoveCoupon detaches any applied coupon.
	RemoveCoupon(ctx context.Context, cartID string) error

	// Coupon reports the coupon currently applied to the cart, if any.
	Coupon(ctx context.Context, cartID string) (coupon.Coupon, bool)
}

// Config holds the pricing rules applied when deriving totals.
type Config struct {
	// ShippingFlatCents is charged on any non-empty cart below the
	// free-shipping threshold.
	ShippingFlatCents int64

	// FreeShippingThresholdCents waives shipping once the subtotal
	// reaches it.
	FreeShippingThresholdCents int64

	Currency string
}

// DefaultConfig returns the storefront's standard pricing rules:
// $5.00 flat shipping, free over $100.00, USD.
func DefaultConfig() Config {
	return Config{
		ShippingFlatCents:          500,
		FreeShippingThresholdCents: 10000,
		Currency:                   "usd",
	}
}

type service struct {
	store   cartstore.Store
	coupons *coupon.Registry
	cfg     Config

	// Applied coupons are session state, not order state, so they live
	// in memory keyed by cart ID.
	mu      sync.RWMutex
	applied map[string]coupon.Coupon
}

// NewService creates a cart Service backed by the given store.
func NewService(store cartstore.Store, coupons *coupon.Registry, cfg Config) Service {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &service{
		store:   store,
		coupons: coupons,
		cfg:     cfg,
		applied: make(map[string]coupon.Coupon),
	}
}

func (s *service) Add(ctx context.Context, cartID string, item domain.CartItem) ([]domain.CartItem, error) {
	if item.ID == "" {
		return nil, domain.Invalid("cart.add", "item id is required")
	}
	if item.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	items, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	if err := s.store.Save(ctx, cartID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *service) Remove(ctx context.Context, cartID, itemID string) ([]domain.CartItem, error) {
	items, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	kept := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return items, nil
	}

	if err := s.store.Save(ctx, cartID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *service) SetQuantity(ctx context.Context, cartID, itemID string, quantity int) ([]domain.CartItem, error) {
	if quantity < 1 {
		return s.Remove(ctx, cartID, itemID)
	}

	items, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrCartItemNotFound
	}

	if err := s.store.Save(ctx, cartID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *service) Clear(ctx context.Context, cartID string) error {
	if err := s.store.Delete(ctx, cartID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.applied, cartID)
	s.mu.Unlock()
	return nil
}

func (s *service) Items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	return s.store.Load(ctx, cartID)
}

func (s *service) Totals(ctx context.Context, cartID string) (domain.OrderTotals, error) {
	items, err := s.store.Load(ctx, cartID)
	if err != nil {
		return domain.OrderTotals{}, err
	}

	var subtotal int64
	for _, it := range items {
		subtotal += it.LineTotalCents()
	}

	var shipping int64
	if len(items) > 0 && subtotal < s.cfg.FreeShippingThresholdCents {
		shipping = s.cfg.ShippingFlatCents
	}

	var discount int64
	if c, ok := s.Coupon(ctx, cartID); ok {
		discount = int64(math.Round(float64(subtotal) * c.Percent / 100))
	}

	return domain.OrderTotals{
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		DiscountCents: discount,
		TotalCents:    subtotal + shipping - discount,
		Currency:      s.cfg.Currency,
	}, nil
}

func (s *service) ApplyCoupon(ctx context.Context, cartID, code string) (coupon.Coupon, error) {
	c, ok := s.coupons.Lookup(code)
	if !ok {
		return coupon.Coupon{}, domain.Invalid("cart.apply_coupon", "invalid coupon code")
	}

	s.mu.Lock()
	s.applied[cartID] = c
	s.mu.Unlock()
	return c, nil
}

func (s *service) RemoveCoupon(ctx context.Context, cartID string) error {
	s.mu.Lock()
	delete(s.applied, cartID)
	s.mu.Unlock()
	return nil
}

func (s *service) Coupon(ctx context.Context, cartID string) (coupon.Coupon, bool) {
	s.mu.RLock()
	c, ok := s.applied[cartID]
	s.mu.RUnlock()
	return c, ok
}
