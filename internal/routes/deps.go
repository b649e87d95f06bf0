package routes

import (
	"github.com/quancoi2ka3/sportshop/internal/handler/storefront"
	"github.com/quancoi2ka3/sportshop/internal/middleware"
)

// StorefrontDeps holds all handler dependencies for storefront routes.
type StorefrontDeps struct {
	ProductHandler  *storefront.ProductHandler
	CartHandler     *storefront.CartHandler
	CheckoutHandler *storefront.CheckoutHandler
	Metrics         *middleware.Metrics
}
