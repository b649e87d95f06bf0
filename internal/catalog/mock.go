package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/quancoi2ka3/sportshop/internal/domain"
)

// MockService serves a fixed product set from memory with simulated
// network latency. Used until the real product backend exists.
type MockService struct {
	// Latency is the simulated per-call delay. Zero disables it (tests).
	Latency time.Duration

	products   []Product
	categories []Category
}

// NewMockService creates a catalog backed by the built-in demo data set.
func NewMockService(latency time.Duration) *MockService {
	return &MockService{
		Latency:    latency,
		products:   demoProducts(),
		categories: demoCategories(),
	}
}

// delay sleeps for the configured latency, honoring context cancellation.
func (s *MockService) delay(ctx context.Context) error {
	if s.Latency <= 0 {
		return nil
	}
	select {
	case <-time.After(s.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MockService) ListProducts(ctx context.Context) ([]Product, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *MockService) GetProduct(ctx context.Context, id string) (*Product, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	for _, p := range s.products {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, domain.NotFound("catalog.get_product", "product", id)
}

func (s *MockService) ListCategories(ctx context.Context) ([]Category, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *MockService) ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	var category *Category
	for i := range s.categories {
		if s.categories[i].ID == categoryID {
			category = &s.categories[i]
			break
		}
	}
	if category == nil {
		return []Product{}, nil
	}

	var out []Product
	for _, p := range s.products {
		if strings.EqualFold(p.Category, category.Name) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MockService) FeaturedProducts(ctx context.Context) ([]Product, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	var out []Product
	for _, p := range s.products {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MockService) NewArrivals(ctx context.Context) ([]Product, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	var out []Product
	for _, p := range s.products {
		if p.IsNew {
			out = append(out, p)
		}
	}
	return out, nil
}

// Search matches the query against name, description, brand and category,
// case-insensitively.
func (s *MockService) Search(ctx context.Context, query string) ([]Product, error) {
	if err := s.delay(ctx); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func demoProducts() []Product {
	return []Product{
		{
			ID:          "1",
			Name:        "Pro Basketball",
			Description: "Professional grade basketball with superior grip and durability",
			PriceCents:  5999,
			Category:    "basketball",
			ImageURL:    "/images/products/basketball.jpg",
			Brand:       "SportElite",
			InStock:     true,
			Rating:      4.8,
			Reviews:     124,
			IsFeatured:  true,
		},
		{
			ID:          "2",
			Name:        "Tennis Racket Pro",
			Description: "Lightweight professional tennis racket for competitive players",
			PriceCents:  14999,
			Category:    "tennis",
			ImageURL:    "/images/products/tennis-racket.jpg",
			Brand:       "AceSports",
			InStock:     true,
			Rating:      4.7,
			Reviews:     89,
			IsFeatured:  true,
		},
		{
			ID:              "3",
			Name:            "Premium Soccer Ball",
			Description:     "Match quality soccer ball with enhanced durability",
			PriceCents:      4599,
			Category:        "soccer",
			ImageURL:        "/images/products/soccer-ball.jpg",
			Brand:           "KickMaster",
			InStock:         true,
			Rating:          4.9,
			Reviews:         211,
			DiscountPercent: 10,
			IsFeatured:      true,
		},
		{
			ID:          "4",
			Name:        "Running Shoes X3",
			Description: "Lightweight running shoes with responsive cushioning",
			PriceCents:  12999,
			Category:    "running",
			ImageURL:    "/images/products/running-shoes.jpg",
			Brand:       "SpeedStep",
			InStock:     true,
			Rating:      4.6,
			Reviews:     178,
			IsFeatured:  true,
		},
		{
			ID:              "5",
			Name:            "Yoga Mat Premium",
			Description:     "Extra thick yoga mat with non-slip surface",
			PriceCents:      3999,
			Category:        "yoga",
			ImageURL:        "/images/products/yoga-mat.jpg",
			Brand:           "ZenFlex",
			InStock:         true,
			Rating:          4.5,
			Reviews:         143,
			DiscountPercent: 15,
			IsFeatured:      true,
		},
		{
			ID:          "6",
			Name:        "Adjustable Dumbbell Set",
			Description: "Space-saving adjustable dumbbells for home workouts",
			PriceCents:  19999,
			Category:    "fitness",
			ImageURL:    "/images/products/dumbbells.jpg",
			Brand:       "PowerFit",
			InStock:     true,
			Rating:      4.7,
			Reviews:     96,
			IsFeatured:  true,
		},
		{
			ID:          "7",
			Name:        "Swimming Goggles Pro",
			Description: "Anti-fog swimming goggles with UV protection",
			PriceCents:  2999,
			Category:    "swimming",
			ImageURL:    "/images/products/goggles.jpg",
			Brand:       "AquaSpeed",
			InStock:     true,
			Rating:      4.4,
			Reviews:     68,
			IsNew:       true,
		},
		{
			ID:          "8",
			Name:        "Cycling Helmet Ultra",
			Description: "Lightweight aerodynamic cycling helmet with adjustable fit",
			PriceCents:  8999,
			Category:    "cycling",
			ImageURL:    "/images/products/helmet.jpg",
			Brand:       "VeloTech",
			InStock:     true,
			Rating:      4.8,
			Reviews:     112,
			IsNew:       true,
		},
	}
}

func demoCategories() []Category {
	return []Category{
		{ID: "1", Name: "Basketball", ImageURL: "/images/categories/basketball.jpg", Description: "Basketball equipment and accessories"},
		{ID: "2", Name: "Tennis", ImageURL: "/images/categories/tennis.jpg", Description: "Tennis rackets, balls, and accessories"},
		{ID: "3", Name: "Soccer", ImageURL: "/images/categories/soccer.jpg", Description: "Soccer balls, cleats, and training equipment"},
		{ID: "4", Name: "Running", ImageURL: "/images/categories/running.jpg", Description: "Running shoes and apparel"},
		{ID: "5", Name: "Yoga", ImageURL: "/images/categories/yoga.jpg", Description: "Yoga mats, blocks, and accessories"},
		{ID: "6", Name: "Fitness", ImageURL: "/images/categories/fitness.jpg", Description: "Weights, resistance bands, and fitness equipment"},
	}
}
