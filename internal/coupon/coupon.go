// Package coupon holds the promotional code registry.
//
// Coupons are subtotal-percentage discounts. The registry is static for
// now; swapping in a backed registry only needs a new Registry value.
package coupon

import "strings"

// Coupon is a percentage discount applied to the cart subtotal.
type Coupon struct {
	Code    string  `json:"code"`
	Percent float64 `json:"percent"`
}

// Registry resolves coupon codes. Codes are case-insensitive.
type Registry struct {
	coupons map[string]Coupon
}

// NewStaticRegistry returns the built-in promotional codes.
func NewStaticRegistry() *Registry {
	return NewRegistry(
		Coupon{Code: "WELCOME10", Percent: 10},
		Coupon{Code: "SPORT20", Percent: 20},
		Coupon{Code: "VIP25", Percent: 25},
	)
}

// NewRegistry builds a registry from an explicit coupon set.
func NewRegistry(coupons ...Coupon) *Registry {
	m := make(map[string]Coupon, len(coupons))
	for _, c := range coupons {
		m[strings.ToUpper(c.Code)] = c
	}
	return &Registry{coupons: m}
}

// Lookup returns the coupon for a code, if it exists.
func (r *Registry) Lookup(code string) (Coupon, bool) {
	c, ok := r.coupons[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}
