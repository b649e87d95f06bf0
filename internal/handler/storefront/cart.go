package storefront

import (
	"net/http"

	"github.com/quancoi2ka3/sportshop/internal/cart"
	"github.com/quancoi2ka3/sportshop/internal/catalog"
	"github.com/quancoi2ka3/sportshop/internal/domain"
	"github.com/quancoi2ka3/sportshop/internal/telemetry"
)

// CartHandler handles all cart-related storefront routes.
type CartHandler struct {
	carts   cart.Service
	catalog catalog.Service
	metrics *telemetry.BusinessMetrics
	secure  bool
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts cart.Service, catalogSvc catalog.Service, metrics *telemetry.BusinessMetrics, secure bool) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalogSvc,
		metrics: metrics,
		secure:  secure,
	}
}

// cartView is the response body for every cart endpoint: the items plus
// freshly derived totals.
type cartView struct {
	Items  []domain.CartItem  `json:"items"`
	Totals domain.OrderTotals `json:"totals"`
	Coupon string             `json:"coupon,omitempty"`
}

func (h *CartHandler) view(w http.ResponseWriter, r *http.Request, cartID string) {
	ctx := r.Context()

	items, err := h.carts.Items(ctx, cartID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	totals, err := h.carts.Totals(ctx, cartID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	view := cartView{Items: items, Totals: totals}
	if c, ok := h.carts.Coupon(ctx, cartID); ok {
		view.Coupon = c.Code
	}
	writeJSON(w, http.StatusOK, view)
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, EnsureCartID(w, r, h.secure))
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// Add handles POST /cart/add. The item's name and price come from the
// catalog, never from the client.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cartID := EnsureCartID(w, r, h.secure)

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	_, err = h.carts.Add(r.Context(), cartID, domain.CartItem{
		ID:              product.ID,
		Name:            product.Name,
		UnitPriceCents:  product.PriceCents,
		Quantity:        req.Quantity,
		DiscountPercent: product.DiscountPercent,
		ImageURL:        product.ImageURL,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CartItemsAdded.WithLabelValues(product.ID).Inc()
	}
	h.view(w, r, cartID)
}

type updateItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// Update handles POST /cart/update. A quantity below 1 removes the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cartID := EnsureCartID(w, r, h.secure)
	if _, err := h.carts.SetQuantity(r.Context(), cartID, req.ProductID, req.Quantity); err != nil {
		respondError(w, r, err)
		return
	}
	h.view(w, r, cartID)
}

type removeItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// Remove handles POST /cart/remove
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req removeItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cartID := EnsureCartID(w, r, h.secure)
	if _, err := h.carts.Remove(r.Context(), cartID, req.ProductID); err != nil {
		respondError(w, r, err)
		return
	}
	h.view(w, r, cartID)
}

// Clear handles POST /cart/clear
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cartID := EnsureCartID(w, r, h.secure)
	if err := h.carts.Clear(r.Context(), cartID); err != nil {
		respondError(w, r, err)
		return
	}
	h.view(w, r, cartID)
}

type couponRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyCoupon handles POST /cart/coupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cartID := EnsureCartID(w, r, h.secure)
	c, err := h.carts.ApplyCoupon(r.Context(), cartID, req.Code)
	if err != nil {
		if h.metrics != nil {
			h.metrics.CouponsRejected.Inc()
		}
		respondError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CouponsApplied.WithLabelValues(c.Code).Inc()
	}
	h.view(w, r, cartID)
}

// RemoveCoupon handles DELETE /cart/coupon
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	cartID := EnsureCartID(w, r, h.secure)
	if err := h.carts.RemoveCoupon(r.Context(), cartID); err != nil {
		respondError(w, r, err)
		return
	}
	h.view(w, r, cartID)
}
