package domain

import "math"

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrCartEmpty        = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
)

// CartItem represents one line in a shopping cart.
// Money is carried in integer minor units (cents) everywhere inside the
// server; conversion from display amounts happens once, at the catalog
// boundary, via ToMinorUnits.
type CartItem struct {
	// ID is the stable product key the line merges on.
	ID   string `json:"id"`
	Name string `json:"name"`

	// UnitPriceCents is the undiscounted unit price in minor units.
	UnitPriceCents int64 `json:"unit_price_cents"`

	// Quantity is always >= 1; a line reduced below 1 is removed, never
	// retained at 0.
	Quantity int `json:"quantity"`

	// DiscountPercent is an optional per-item discount, 0-100.
	DiscountPercent float64 `json:"discount_percent,omitempty"`

	ImageURL string `json:"image_url,omitempty"`
}

// EffectiveUnitPriceCents returns the unit price after the item discount,
// rounded to whole cents.
func (i CartItem) EffectiveUnitPriceCents() int64 {
	if i.DiscountPercent <= 0 {
		return i.UnitPriceCents
	}
	return int64(math.Round(float64(i.UnitPriceCents) * (1 - i.DiscountPercent/100)))
}

// LineTotalCents returns the effective unit price times quantity.
func (i CartItem) LineTotalCents() int64 {
	return i.EffectiveUnitPriceCents() * int64(i.Quantity)
}

// OrderTotals is the derived breakdown of a cart's cost. It is recomputed
// fresh on every read and never persisted.
type OrderTotals struct {
	SubtotalCents int64  `json:"subtotal_cents"`
	ShippingCents int64  `json:"shipping_cents"`
	DiscountCents int64  `json:"discount_cents"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

// ToMinorUnits converts a decimal currency amount to integer minor units,
// rounding half away from zero. This is the single conversion point so that
// displayed totals and submitted amounts cannot drift by a cent.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts integer minor units back to a decimal amount.
func FromMinorUnits(cents int64) float64 {
	return float64(cents) / 100
}
