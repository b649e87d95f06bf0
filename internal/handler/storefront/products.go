package storefront

import (
	"net/http"

	"github.com/quancoi2ka3/sportshop/internal/catalog"
	"github.com/quancoi2ka3/sportshop/internal/domain"
	"github.com/quancoi2ka3/sportshop/internal/telemetry"
)

// ProductHandler serves the product browsing routes.
type ProductHandler struct {
	catalog catalog.Service
	metrics *telemetry.BusinessMetrics
}

// NewProductHandler creates a new product handler.
func NewProductHandler(svc catalog.Service, metrics *telemetry.BusinessMetrics) *ProductHandler {
	return &ProductHandler{catalog: svc, metrics: metrics}
}

// List handles GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// Get handles GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ProductViews.WithLabelValues(product.ID).Inc()
	}
	writeJSON(w, http.StatusOK, product)
}

// Featured handles GET /products/featured
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.FeaturedProducts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// NewArrivals handles GET /products/new
func (h *ProductHandler) NewArrivals(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.NewArrivals(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// Search handles GET /products/search?q=
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, r, domain.Invalid("handler.search", "query parameter q is required"))
		return
	}

	products, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ProductSearches.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products, "query": query})
}

// Categories handles GET /categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// ByCategory handles GET /categories/{id}/products
func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	products, err := h.catalog.ProductsByCategory(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}
