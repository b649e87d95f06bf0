package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/quancoi2ka3/sportshop/internal/cart"
	"github.com/quancoi2ka3/sportshop/internal/cartstore"
	"github.com/quancoi2ka3/sportshop/internal/catalog"
	"github.com/quancoi2ka3/sportshop/internal/checkout"
	"github.com/quancoi2ka3/sportshop/internal/coupon"
	"github.com/quancoi2ka3/sportshop/internal/domain"
	"github.com/quancoi2ka3/sportshop/internal/payment"
)

type testEnv struct {
	products *ProductHandler
	carts    *CartHandler
	checkout *CheckoutHandler

	catalogSvc catalog.Service
	cartSvc    cart.Service
	provider   *payment.MockProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := cartstore.NewStore(cartstore.Config{Backend: "file", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	cartSvc := cart.NewService(store, coupon.NewStaticRegistry(), cart.DefaultConfig())
	catalogSvc := catalog.NewMockService(0)
	provider := payment.NewMockProvider()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := checkout.NewOrchestrator(cartSvc, provider, logger)

	return &testEnv{
		products:   NewProductHandler(catalogSvc, nil),
		carts:      NewCartHandler(cartSvc, catalogSvc, nil, false),
		checkout:   NewCheckoutHandler(orch, provider, false),
		catalogSvc: catalogSvc,
		cartSvc:    cartSvc,
		provider:   provider,
	}
}

// seedCart puts quantity one of the given product into a fresh cart and
// returns the cart ID.
func (e *testEnv) seedCart(t *testing.T, productID string) string {
	t.Helper()

	p, err := e.catalogSvc.GetProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("GetProduct(%s): %v", productID, err)
	}

	cartID := uuid.New().String()
	_, err = e.cartSvc.Add(context.Background(), cartID, domain.CartItem{
		ID:              p.ID,
		Name:            p.Name,
		UnitPriceCents:  p.PriceCents,
		Quantity:        1,
		DiscountPercent: p.DiscountPercent,
		ImageURL:        p.ImageURL,
	})
	if err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return cartID
}

// jsonRequest builds a request with an optional JSON body and cart cookie.
func jsonRequest(method, target string, body interface{}, cartID string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cartID != "" {
		req.AddCookie(&http.Cookie{Name: CartCookieName, Value: cartID})
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
