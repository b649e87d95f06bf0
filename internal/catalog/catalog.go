// Package catalog provides read-only access to product and category data.
//
// The catalog is an external collaborator: this package ships a mock
// in-memory implementation standing in for the real product backend.
package catalog

import (
	"context"
)

// Product is a catalog entry. PriceCents is the display price in minor
// units; DiscountPercent, when non-zero, is applied at cart time.
type Product struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	PriceCents      int64   `json:"price_cents"`
	Category        string  `json:"category"`
	ImageURL        string  `json:"image_url"`
	Brand           string  `json:"brand"`
	InStock         bool    `json:"in_stock"`
	Rating          float64 `json:"rating"`
	Reviews         int     `json:"reviews"`
	DiscountPercent float64 `json:"discount_percent,omitempty"`
	IsNew           bool    `json:"is_new,omitempty"`
	IsFeatured      bool    `json:"is_featured,omitempty"`
}

// Category groups products for browsing.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

// Service provides catalog reads. All methods are pure reads; there is no
// catalog mutation surface.
type Service interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error)
	FeaturedProducts(ctx context.Context) ([]Product, error)
	NewArrivals(ctx context.Context) ([]Product, error)
	Search(ctx context.Context, query string) ([]Product, error)
}
