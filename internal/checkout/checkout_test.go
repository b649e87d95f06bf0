package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/quancoi2ka3/sportshop/internal/cart"
	"github.com/quancoi2ka3/sportshop/internal/coupon"
	"github.com/quancoi2ka3/sportshop/internal/domain"
	"github.com/quancoi2ka3/sportshop/internal/payment"
)

type memStore struct {
	carts map[string][]domain.CartItem
}

func (m *memStore) Load(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	out := make([]domain.CartItem, len(m.carts[cartID]))
	copy(out, m.carts[cartID])
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

type fixture struct {
	orch     *Orchestrator
	carts    cart.Service
	store    *memStore
	provider *payment.MockProvider
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := &memStore{carts: make(map[string][]domain.CartItem)}
	carts := cart.NewService(store, coupon.NewStaticRegistry(), cart.DefaultConfig())
	provider := payment.NewMockProvider()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		orch:     NewOrchestrator(carts, provider, logger, opts...),
		carts:    carts,
		store:    store,
		provider: provider,
	}
}

func (f *fixture) seedCart(t *testing.T, cartID string) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), cartID, domain.CartItem{
		ID: "1", Name: "Pro Basketball", UnitPriceCents: 5999, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("seed cart: %v", err)
	}
}

func TestBegin_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Begin(context.Background(), "c1", BeginParams{Flow: FlowElement})
	if !errors.Is(err, domain.ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
	if len(f.provider.CallLog) != 0 {
		t.Error("empty cart must not reach the gateway")
	}
}

func TestBegin_ElementFlow(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")

	sess, err := f.orch.Begin(context.Background(), "c1", BeginParams{Flow: FlowElement})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if sess.State != StateAwaitingPaymentInput {
		t.Errorf("state = %s, want %s", sess.State, StateAwaitingPaymentInput)
	}
	if sess.IntentID == "" || sess.ClientSecret == "" {
		t.Error("element flow must produce an intent with client secret")
	}
	// 5999 + 500 shipping
	if sess.Totals.TotalCents != 6499 {
		t.Errorf("frozen total = %d, want 6499", sess.Totals.TotalCents)
	}

	intent := f.provider.Intents[sess.IntentID]
	if intent.AmountCents != 6499 {
		t.Errorf("submitted amount = %d, want frozen total 6499", intent.AmountCents)
	}
}

func TestBegin_FrozenTotals(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")
	ctx := context.Background()

	sess, err := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	frozen := sess.Totals.TotalCents

	// Mutate the cart after the session was created.
	if _, err := f.carts.Add(ctx, "c1", domain.CartItem{ID: "6", Name: "Dumbbells", UnitPriceCents: 19999, Quantity: 2}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if sess.Totals.TotalCents != frozen {
		t.Errorf("frozen totals changed after cart mutation: %d", sess.Totals.TotalCents)
	}

	done, err := f.orch.SubmitPayment(ctx, sess.ID, "pm_card_visa")
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if done.Verification.AmountCents != frozen {
		t.Errorf("verified amount = %d, want frozen %d", done.Verification.AmountCents, frozen)
	}
}

func TestBegin_GatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")

	gwErr := &domain.Error{Code: domain.EGATEWAY, Message: "Your card processor is on fire"}
	f.provider.CreatePaymentIntentFunc = func(ctx context.Context, params payment.CreateIntentParams) (*payment.Intent, error) {
		return nil, gwErr
	}

	sess, err := f.orch.Begin(context.Background(), "c1", BeginParams{Flow: FlowElement})
	if !errors.Is(err, gwErr) {
		t.Fatalf("expected gateway error surfaced verbatim, got %v", err)
	}
	if sess.State != StateFailed {
		t.Errorf("state = %s, want %s", sess.State, StateFailed)
	}

	// Failed session is dead: a retry needs a fresh Begin.
	if _, err := f.orch.SubmitPayment(context.Background(), sess.ID, "pm_card_visa"); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected failed session to be unusable, got %v", err)
	}
}

type brokenUI struct{}

func (brokenUI) Mount(ctx context.Context, s *payment.Session) error {
	return errors.New("stripe.js failed to load")
}

func TestBegin_UIMountFailureFailsFast(t *testing.T) {
	f := newFixture(t, WithPaymentUI(brokenUI{}))
	f.seedCart(t, "c1")

	sess, err := f.orch.Begin(context.Background(), "c1", BeginParams{Flow: FlowEmbedded})
	if err == nil {
		t.Fatal("expected error from UI mount failure")
	}
	if sess.State != StateFailed {
		t.Errorf("state = %s, want %s (no hanging loading state)", sess.State, StateFailed)
	}
	if domain.ErrorCode(err) != domain.ECONFIG {
		t.Errorf("expected ECONFIG, got %s", domain.ErrorCode(err))
	}
}

func TestSubmitPayment_Settles(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")
	ctx := context.Background()

	sess, err := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	sess, err = f.orch.SubmitPayment(ctx, sess.ID, "pm_card_visa")
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if sess.State != StateSettled {
		t.Errorf("state = %s, want %s", sess.State, StateSettled)
	}
	if sess.Verification == nil || !sess.Verification.Succeeded {
		t.Error("expected verified successful outcome")
	}
	if len(f.store.carts["c1"]) != 0 {
		t.Error("cart must be cleared after settled checkout")
	}
}

func TestSubmitPayment_RequiresActionAutoContinues(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")
	ctx := context.Background()

	sess, err := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	f.provider.ConfirmPaymentFunc = func(ctx context.Context, intentID, pm string) (*payment.Intent, error) {
		intent := f.provider.Intents[intentID]
		intent.Status = payment.StatusRequiresAction
		return intent, nil
	}

	sess, err = f.orch.SubmitPayment(ctx, sess.ID, "pm_card_threeDSecureRequired")
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if sess.State != StateSettled {
		t.Errorf("state = %s, want %s without further user input", sess.State, StateSettled)
	}

	var sawNextAction bool
	for _, call := range f.provider.CallLog {
		if strings.HasPrefix(call, "HandleNextAction") {
			sawNextAction = true
		}
	}
	if !sawNextAction {
		t.Error("expected the secondary confirmation step to run automatically")
	}
}

func TestSubmitPayment_RequiresActionLoopBounded(t *testing.T) {
	f := newFixture(t, WithPolicy(Policy{SettleOnProcessing: true, MaxActionAttempts: 2}))
	f.seedCart(t, "c1")
	ctx := context.Background()

	sess, err := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	stuck := func(intentID string) *payment.Intent {
		intent := f.provider.Intents[intentID]
		intent.Status = payment.StatusRequiresAction
		return intent
	}
	f.provider.ConfirmPaymentFunc = func(ctx context.Context, intentID, pm string) (*payment.Intent, error) {
		return stuck(intentID), nil
	}
	f.provider.HandleNextActionFunc = func(ctx context.Context, intentID string) (*payment.Intent, error) {
		return stuck(intentID), nil
	}

	sess, err = f.orch.SubmitPayment(ctx, sess.ID, "pm_card_threeDSecureRequired")
	if err == nil {
		t.Fatal("expected bounded loop to give up")
	}
	if sess.State != StateFailed {
		t.Errorf("state = %s, want %s", sess.State, StateFailed)
	}
}

func TestVerify_ErrorPreservesCart(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")
	ctx := context.Background()

	sess, err := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	f.provider.VerifyPaymentFunc = func(ctx context.Context, intentID string) (*payment.Verification, error) {
		return nil, &domain.Error{Code: domain.EGATEWAY, Message: "connection reset"}
	}

	sess, err = f.orch.SubmitPayment(ctx, sess.ID, "pm_card_visa")
	if err == nil {
		t.Fatal("expected verification error")
	}
	if domain.ErrorCode(err) != domain.EVERIFY {
		t.Errorf("expected EVERIFY (ambiguous outcome), got %s", domain.ErrorCode(err))
	}
	if sess.State != StateFailed {
		t.Errorf("state = %s, want %s", sess.State, StateFailed)
	}
	if len(f.store.carts["c1"]) == 0 {
		t.Error("cart must be preserved when the outcome is ambiguous")
	}
}

func TestVerify_UnsuccessfulStatusPreservesCart(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")
	ctx := context.Background()

	sess, err := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	f.provider.VerifyPaymentFunc = func(ctx context.Context, intentID string) (*payment.Verification, error) {
		return &payment.Verification{ID: intentID, Status: payment.StatusRequiresPaymentMethod}, nil
	}

	if _, err := f.orch.SubmitPayment(ctx, sess.ID, "pm_card_visa"); err == nil {
		t.Fatal("expected failure for unverified payment")
	}
	if len(f.store.carts["c1"]) == 0 {
		t.Error("cart must remain populated when verify reports requires_payment_method")
	}
}

func TestVerify_ProcessingPolicy(t *testing.T) {
	run := func(t *testing.T, settleOnProcessing bool) *Session {
		f := newFixture(t, WithPolicy(Policy{SettleOnProcessing: settleOnProcessing, MaxActionAttempts: 3}))
		f.seedCart(t, "c1")
		ctx := context.Background()

		sess, err := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		f.provider.VerifyPaymentFunc = func(ctx context.Context, intentID string) (*payment.Verification, error) {
			return &payment.Verification{ID: intentID, Status: payment.StatusProcessing, Succeeded: true}, nil
		}
		sess, _ = f.orch.SubmitPayment(ctx, sess.ID, "pm_card_visa")
		return sess
	}

	t.Run("processing settles by default policy", func(t *testing.T) {
		if sess := run(t, true); sess.State != StateSettled {
			t.Errorf("state = %s, want %s", sess.State, StateSettled)
		}
	})
	t.Run("processing held when policy disabled", func(t *testing.T) {
		if sess := run(t, false); sess.State != StateFailed {
			t.Errorf("state = %s, want %s", sess.State, StateFailed)
		}
	})
}

func TestFinalize_RedirectFlow(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")
	ctx := context.Background()

	sess, err := f.orch.Begin(ctx, "c1", BeginParams{
		Flow:       FlowRedirect,
		SuccessURL: "https://shop.test/success",
		CancelURL:  "https://shop.test/cart",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if sess.HostedURL == "" {
		t.Fatal("redirect flow must produce a hosted URL")
	}

	// The customer paid on the hosted page; the success route hands us
	// the intent ID from its query parameters.
	f.provider.VerifyPaymentFunc = func(ctx context.Context, intentID string) (*payment.Verification, error) {
		return &payment.Verification{ID: intentID, Status: payment.StatusSucceeded, AmountCents: sess.Totals.TotalCents, Succeeded: true}, nil
	}

	sess, err = f.orch.Finalize(ctx, sess.ID, "pi_from_redirect")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if sess.State != StateSettled {
		t.Errorf("state = %s, want %s", sess.State, StateSettled)
	}
	if len(f.store.carts["c1"]) != 0 {
		t.Error("cart must be cleared after verified redirect payment")
	}
}

func TestFinalize_RequiresPaymentIdentifier(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")
	ctx := context.Background()

	sess, err := f.orch.Begin(ctx, "c1", BeginParams{
		Flow:       FlowRedirect,
		SuccessURL: "https://shop.test/success",
		CancelURL:  "https://shop.test/cart",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := f.orch.Finalize(ctx, sess.ID, ""); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected EINVALID without a payment identifier, got %v", err)
	}
	if len(f.store.carts["c1"]) == 0 {
		t.Error("cart must not be cleared without verification")
	}
}

func TestBegin_PrunesExpiredTerminalSessions(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")
	ctx := context.Background()

	gwErr := &domain.Error{Code: domain.EGATEWAY, Message: "gateway down"}
	f.provider.CreatePaymentIntentFunc = func(ctx context.Context, params payment.CreateIntentParams) (*payment.Intent, error) {
		return nil, gwErr
	}

	expired, _ := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})
	if expired.State != StateFailed {
		t.Fatalf("state = %s, want %s", expired.State, StateFailed)
	}
	expired.UpdatedAt = time.Now().Add(-2 * terminalSessionRetention)

	fresh, _ := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})

	// The next Begin sweeps terminal sessions past retention.
	f.provider.CreatePaymentIntentFunc = nil
	active, err := f.orch.Begin(ctx, "c1", BeginParams{Flow: FlowElement})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, ok := f.orch.Get(expired.ID); ok {
		t.Error("expired terminal session must be pruned")
	}
	if _, ok := f.orch.Get(fresh.ID); !ok {
		t.Error("recently failed session must survive the sweep")
	}
	if _, ok := f.orch.Get(active.ID); !ok {
		t.Error("active session must survive the sweep")
	}
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, "c1")

	sess, err := f.orch.Begin(context.Background(), "c1", BeginParams{Flow: FlowElement})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	got, ok := f.orch.Get(sess.ID)
	if !ok || got.ID != sess.ID {
		t.Error("expected to find created session")
	}
	if _, ok := f.orch.Get("nope"); ok {
		t.Error("expected miss for unknown session")
	}
}
