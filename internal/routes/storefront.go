// Package routes wires handlers to URL patterns.
package routes

import (
	"net/http"

	"github.com/quancoi2ka3/sportshop/internal/router"
)

// RegisterStorefrontRoutes registers all customer-facing storefront routes.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Product browsing. The literal /products subroutes are registered
	// before the {id} pattern; ServeMux prefers the more specific match.
	r.Get("/products", deps.ProductHandler.List)
	r.Get("/products/featured", deps.ProductHandler.Featured)
	r.Get("/products/new", deps.ProductHandler.NewArrivals)
	r.Get("/products/search", deps.ProductHandler.Search)
	r.Get("/products/{id}", deps.ProductHandler.Get)
	r.Get("/categories", deps.ProductHandler.Categories)
	r.Get("/categories/{id}/products", deps.ProductHandler.ByCategory)

	// Shopping cart
	r.Get("/cart", deps.CartHandler.View)
	r.Post("/cart/add", deps.CartHandler.Add)
	r.Post("/cart/update", deps.CartHandler.Update)
	r.Post("/cart/remove", deps.CartHandler.Remove)
	r.Post("/cart/clear", deps.CartHandler.Clear)
	r.Post("/cart/coupon", deps.CartHandler.ApplyCoupon)
	r.Delete("/cart/coupon", deps.CartHandler.RemoveCoupon)

	// Payment API
	r.Post("/api/payment/create-checkout-session", deps.CheckoutHandler.CreateCheckoutSession)
	r.Post("/api/payment/create-embedded-checkout", deps.CheckoutHandler.CreateEmbeddedCheckout)
	r.Post("/api/payment/create-payment-intent", deps.CheckoutHandler.CreatePaymentIntent)
	r.Post("/api/payment/process-payment", deps.CheckoutHandler.ProcessPayment)
	r.Get("/api/payment/verify-payment", deps.CheckoutHandler.VerifyPayment)

	// Post-payment landing page
	r.Get("/checkout/success", deps.CheckoutHandler.Success)

	// Operational endpoints
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
}
