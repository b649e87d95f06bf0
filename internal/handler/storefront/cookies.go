package storefront

import (
	"net/http"

	"github.com/google/uuid"
)

// CartCookieName stores the anonymous cart ID for guest shoppers.
const CartCookieName = "sportshop_cart"

// cartCookieMaxAge keeps an untouched cart for 30 days.
const cartCookieMaxAge = 30 * 24 * 60 * 60

// GetCartIDFromCookie retrieves the cart ID from the cart cookie.
// Returns empty string if the cookie is not present.
func GetCartIDFromCookie(r *http.Request) string {
	c, err := r.Cookie(CartCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// EnsureCartID returns the request's cart ID, issuing a new one in a
// cookie when the shopper doesn't have one yet. Cart IDs are server
// generated; a cookie value that isn't a UUID is replaced.
func EnsureCartID(w http.ResponseWriter, r *http.Request, secure bool) string {
	cartID := GetCartIDFromCookie(r)
	if _, err := uuid.Parse(cartID); err != nil {
		cartID = uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     CartCookieName,
			Value:    cartID,
			Path:     "/",
			MaxAge:   cartCookieMaxAge,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return cartID
}
