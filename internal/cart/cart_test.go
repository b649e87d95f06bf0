package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/quancoi2ka3/sportshop/internal/coupon"
	"github.com/quancoi2ka3/sportshop/internal/domain"
)

// memStore is an in-memory cartstore.Store for tests.
type memStore struct {
	carts map[string][]domain.CartItem
}

func newMemStore() *memStore {
	return &memStore{carts: make(map[string][]domain.CartItem)}
}

func (m *memStore) Load(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	items := m.carts[cartID]
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out, nil
}

func (m *memStore) Save(ctx context.Context, cartID string, items []domain.CartItem) error {
	saved := make([]domain.CartItem, len(items))
	copy(saved, items)
	m.carts[cartID] = saved
	return nil
}

func (m *memStore) Delete(ctx context.Context, cartID string) error {
	delete(m.carts, cartID)
	return nil
}

func newTestService() (Service, *memStore) {
	store := newMemStore()
	return NewService(store, coupon.NewStaticRegistry(), DefaultConfig()), store
}

func basketball(qty int) domain.CartItem {
	return domain.CartItem{ID: "1", Name: "Pro Basketball", UnitPriceCents: 5999, Quantity: qty}
}

func soccerBall(qty int) domain.CartItem {
	return domain.CartItem{ID: "3", Name: "Premium Soccer Ball", UnitPriceCents: 4599, Quantity: qty, DiscountPercent: 10}
}

func TestAdd_MergesByID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "c1", basketball(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	items, err := svc.Add(ctx, "c1", basketball(2))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected single merged line, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", items[0].Quantity)
	}
}

func TestAdd_RejectsInvalidQuantity(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), "c1", basketball(0))
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestSetQuantity_BelowOneRemoves(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "c1", basketball(2)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	items, err := svc.SetQuantity(ctx, "c1", "1", 0)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected line removed, got %d items", len(items))
	}
}

func TestSetQuantity_AbsentItem(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.SetQuantity(ctx, "c1", "missing", 2); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Errorf("expected ErrCartItemNotFound, got %v", err)
	}
	// Below-one on an absent line is a removal, and removal is idempotent.
	if _, err := svc.SetQuantity(ctx, "c1", "missing", 0); err != nil {
		t.Errorf("expected no-op, got %v", err)
	}
}

func TestSetQuantity_Idempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "c1", basketball(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	first, err := svc.SetQuantity(ctx, "c1", "1", 5)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	second, err := svc.SetQuantity(ctx, "c1", "1", 5)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if first[0].Quantity != second[0].Quantity {
		t.Errorf("repeated SetQuantity changed state: %d vs %d", first[0].Quantity, second[0].Quantity)
	}
}

func TestRemove_AbsentItemIsNoop(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "c1", basketball(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	items, err := svc.Remove(ctx, "c1", "missing")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected cart untouched, got %d items", len(items))
	}
}

func TestTotals_ShippingAndDiscountRules(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// Empty cart: everything zero, no shipping.
	totals, err := svc.Totals(ctx, "c1")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.TotalCents != 0 || totals.ShippingCents != 0 {
		t.Errorf("empty cart totals = %+v", totals)
	}

	// Below the free-shipping threshold: flat fee applies.
	// Soccer ball at 10% off: 4599 -> 4139 per unit.
	if _, err := svc.Add(ctx, "c1", soccerBall(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	totals, err = svc.Totals(ctx, "c1")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.SubtotalCents != 4139 {
		t.Errorf("subtotal = %d, want 4139", totals.SubtotalCents)
	}
	if totals.ShippingCents != 500 {
		t.Errorf("shipping = %d, want 500", totals.ShippingCents)
	}
	if totals.TotalCents != 4639 {
		t.Errorf("total = %d, want 4639", totals.TotalCents)
	}

	// Over the threshold: shipping waived.
	if _, err := svc.Add(ctx, "c1", basketball(2)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	totals, err = svc.Totals(ctx, "c1")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.SubtotalCents != 4139+2*5999 {
		t.Errorf("subtotal = %d", totals.SubtotalCents)
	}
	if totals.ShippingCents != 0 {
		t.Errorf("expected free shipping over threshold, got %d", totals.ShippingCents)
	}
}

func TestTotals_CouponDiscount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "c1", basketball(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := svc.ApplyCoupon(ctx, "c1", "welcome10"); err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}

	totals, err := svc.Totals(ctx, "c1")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	// 10% of 5999 = 599.9 -> 600
	if totals.DiscountCents != 600 {
		t.Errorf("discount = %d, want 600", totals.DiscountCents)
	}
	if totals.TotalCents != 5999+500-600 {
		t.Errorf("total = %d, want %d", totals.TotalCents, 5999+500-600)
	}

	if err := svc.RemoveCoupon(ctx, "c1"); err != nil {
		t.Fatalf("RemoveCoupon: %v", err)
	}
	totals, err = svc.Totals(ctx, "c1")
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.DiscountCents != 0 {
		t.Errorf("expected discount gone, got %d", totals.DiscountCents)
	}
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ApplyCoupon(context.Background(), "c1", "BOGUS")
	if domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected EINVALID, got %v", err)
	}
}

func TestClear_EmptiesCartAndCoupon(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, "c1", basketball(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := svc.ApplyCoupon(ctx, "c1", "SPORT20"); err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	if err := svc.Clear(ctx, "c1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if len(store.carts["c1"]) != 0 {
		t.Error("expected cart removed from store")
	}
	if _, ok := svc.Coupon(ctx, "c1"); ok {
		t.Error("expected coupon dropped on clear")
	}
}
