// Package checkout orchestrates a payment attempt from cart to settled
// order.
//
// A checkout session is single-use: it freezes the cart's totals when
// created, walks the payment through confirmation and verification, and
// either settles (clearing the cart, exactly once) or fails. A failed
// session is never reused; the user restarts and gets a new one.
package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quancoi2ka3/sportshop/internal/cart"
	"github.com/quancoi2ka3/sportshop/internal/domain"
	"github.com/quancoi2ka3/sportshop/internal/payment"
	"github.com/quancoi2ka3/sportshop/internal/telemetry"
)

// State is a checkout session's position in its lifecycle.
type State string

const (
	StateIdle                 State = "idle"
	StateSessionRequested     State = "session_requested"
	StateAwaitingPaymentInput State = "awaiting_payment_input"
	StateConfirming           State = "confirming"
	StateRequiresAction       State = "requires_action"
	StateVerifying            State = "verifying"
	StateSettled              State = "settled"
	StateFailed               State = "failed"
)

// Terminal reports whether a session in this state can never advance.
func (s State) Terminal() bool {
	return s == StateSettled || s == StateFailed
}

// Flow selects how payment details are collected.
type Flow string

const (
	// FlowRedirect sends the customer to the gateway's hosted page.
	FlowRedirect Flow = "redirect"

	// FlowEmbedded mounts the gateway's checkout UI inside our page.
	FlowEmbedded Flow = "embedded"

	// FlowElement collects card details in our own form and confirms
	// server-side via a payment intent.
	FlowElement Flow = "element"
)

// Policy holds the orchestrator's configurable decisions.
type Policy struct {
	// SettleOnProcessing treats a verified "processing" status as
	// settled. Some payment methods settle asynchronously; disabling
	// this keeps such orders unsettled until a later verification.
	SettleOnProcessing bool

	// MaxActionAttempts bounds the automatic requires_action loop.
	MaxActionAttempts int
}

// DefaultPolicy accepts processing as success and retries step-up
// authentication up to three times.
func DefaultPolicy() Policy {
	return Policy{SettleOnProcessing: true, MaxActionAttempts: 3}
}

// terminalSessionRetention keeps settled and failed sessions readable for
// a while (the success page may still poll them) before Begin prunes them.
const terminalSessionRetention = time.Hour

// PaymentUI is the widget that collects payment details from the customer.
// Mount hands it the session credential; an error means the UI cannot
// initialize and the checkout must fail fast rather than hang.
type PaymentUI interface {
	Mount(ctx context.Context, session *payment.Session) error
}

// Session is one checkout attempt. Totals are frozen at creation; cart
// mutations after that do not change the submitted amount.
type Session struct {
	ID     string             `json:"id"`
	CartID string             `json:"cart_id"`
	Flow   Flow               `json:"flow"`
	State  State              `json:"state"`
	Totals domain.OrderTotals `json:"totals"`

	// GatewaySessionID and HostedURL are set for redirect/embedded
	// flows; ClientSecret carries the credential the payment UI mounts.
	GatewaySessionID string `json:"gateway_session_id,omitempty"`
	HostedURL        string `json:"hosted_url,omitempty"`
	ClientSecret     string `json:"client_secret,omitempty"`

	// IntentID is set for the element flow.
	IntentID string `json:"intent_id,omitempty"`

	// Verification is the authoritative outcome, present once the
	// session reaches Verifying.
	Verification *payment.Verification `json:"verification,omitempty"`

	// Err is the failure that moved the session to Failed.
	Err error `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	cartCleared bool
}

// FailureMessage returns the user-facing reason a session failed.
func (s *Session) FailureMessage() string {
	if s.Err == nil {
		return ""
	}
	return domain.ErrorMessage(s.Err)
}

// BeginParams carries the per-attempt inputs to Begin.
type BeginParams struct {
	Flow          Flow
	CustomerEmail string

	// SuccessURL and CancelURL are required for the redirect flow.
	SuccessURL string
	CancelURL  string

	// ReturnURL is optional for the embedded flow.
	ReturnURL string
}

// Orchestrator drives checkout sessions through the state machine. A
// session is driven by one request at a time; the orchestrator itself is
// safe for concurrent use across sessions.
type Orchestrator struct {
	carts    cart.Service
	provider payment.Provider
	ui       PaymentUI
	policy   Policy
	logger   *slog.Logger
	metrics  *telemetry.BusinessMetrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPaymentUI attaches the widget sessions are mounted into. Without
// one, mounting is the caller's responsibility.
func WithPaymentUI(ui PaymentUI) Option {
	return func(o *Orchestrator) { o.ui = ui }
}

// WithMetrics attaches checkout funnel metrics.
func WithMetrics(m *telemetry.BusinessMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithPolicy overrides the default policy.
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// NewOrchestrator creates a checkout orchestrator.
func NewOrchestrator(carts cart.Service, provider payment.Provider, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		carts:    carts,
		provider: provider,
		policy:   DefaultPolicy(),
		logger:   logger,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.policy.MaxActionAttempts < 1 {
		o.policy.MaxActionAttempts = 1
	}
	return o
}

// Get returns a session by ID.
func (o *Orchestrator) Get(sessionID string) (*Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[sessionID]
	return s, ok
}

// Begin starts a checkout attempt for a cart. The cart must be non-empty.
// Totals are computed here and frozen into the session.
func (o *Orchestrator) Begin(ctx context.Context, cartID string, params BeginParams) (*Session, error) {
	items, err := o.carts.Items(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrCartEmpty
	}

	totals, err := o.carts.Totals(ctx, cartID)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        uuid.New().String(),
		CartID:    cartID,
		Flow:      params.Flow,
		State:     StateSessionRequested,
		Totals:    totals,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	o.mu.Lock()
	for id, s := range o.sessions {
		if s.State.Terminal() && time.Since(s.UpdatedAt) > terminalSessionRetention {
			delete(o.sessions, id)
		}
	}
	o.sessions[sess.ID] = sess
	o.mu.Unlock()

	o.logger.InfoContext(ctx, "checkout started",
		slog.String("checkout_id", sess.ID),
		slog.String("flow", string(params.Flow)),
		slog.Int64("total_cents", totals.TotalCents))
	if o.metrics != nil {
		o.metrics.CheckoutStarted.WithLabelValues(string(params.Flow)).Inc()
		o.metrics.OrderItemCount.Observe(float64(len(items)))
	}

	switch params.Flow {
	case FlowRedirect, FlowEmbedded:
		err = o.createGatewaySession(ctx, sess, items, params)
	case FlowElement:
		err = o.createIntent(ctx, sess, params)
	default:
		err = domain.Invalid("checkout.begin", "unknown checkout flow")
	}
	if err != nil {
		// No automatic retry: the user restarts and gets a new session.
		o.fail(ctx, sess, err, "gateway")
		return sess, err
	}

	o.transition(ctx, sess, StateAwaitingPaymentInput)

	if o.ui != nil {
		credential := &payment.Session{
			ID:           sess.GatewaySessionID,
			ClientSecret: sess.ClientSecret,
			HostedURL:    sess.HostedURL,
		}
		if err := o.ui.Mount(ctx, credential); err != nil {
			// Fail fast instead of leaving the customer on a spinner.
			err = domain.WrapError(err, domain.ECONFIG, "checkout.begin", "payment form could not be initialized")
			o.fail(ctx, sess, err, "gateway")
			return sess, err
		}
	}

	return sess, nil
}

// SubmitPayment confirms an element-flow session with the customer's
// payment method and drives it to a terminal state. A requires_action
// response triggers the secondary confirmation automatically; no second
// user click is needed.
func (o *Orchestrator) SubmitPayment(ctx context.Context, sessionID, paymentMethodID string) (*Session, error) {
	sess, err := o.activeSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Flow != FlowElement || sess.IntentID == "" {
		return nil, domain.Invalid("checkout.submit", "session does not accept direct payment submission")
	}
	if sess.State != StateAwaitingPaymentInput {
		return nil, domain.Invalid("checkout.submit", "session is not awaiting payment input")
	}

	o.transition(ctx, sess, StateConfirming)
	if o.metrics != nil {
		o.metrics.PaymentAttempts.Inc()
	}

	intent, err := o.provider.ConfirmPayment(ctx, sess.IntentID, paymentMethodID)
	if err != nil {
		o.fail(ctx, sess, err, "gateway")
		return sess, err
	}

	// Step-up authentication loop: bounded, automatic, sequential.
	for attempts := 0; intent.Status == payment.StatusRequiresAction; attempts++ {
		if attempts >= o.policy.MaxActionAttempts {
			err := domain.Errorf(domain.EGATEWAY, "checkout.submit", "payment still requires action after %d attempts", attempts)
			o.fail(ctx, sess, err, "gateway")
			return sess, err
		}
		o.transition(ctx, sess, StateRequiresAction)
		if o.metrics != nil {
			o.metrics.StepUpChallenges.Inc()
		}

		intent, err = o.provider.HandleNextAction(ctx, sess.IntentID)
		if err != nil {
			o.fail(ctx, sess, err, "gateway")
			return sess, err
		}
		o.transition(ctx, sess, StateConfirming)
	}

	if !payment.SucceededStatus(intent.Status) {
		err := confirmationFailure(intent)
		o.fail(ctx, sess, err, "declined")
		return sess, err
	}

	// Optimistic success. Verification is still mandatory, and must
	// causally follow the confirmation above.
	return o.verifyAndSettle(ctx, sess, sess.IntentID)
}

// Finalize verifies a session whose payment was completed outside our
// process (redirect and embedded flows). The intent ID comes from the
// success-route navigation state; element-flow sessions may omit it.
func (o *Orchestrator) Finalize(ctx context.Context, sessionID, intentID string) (*Session, error) {
	sess, err := o.activeSession(sessionID)
	if err != nil {
		return nil, err
	}
	if intentID == "" {
		intentID = sess.IntentID
	}
	if intentID == "" {
		return nil, domain.Invalid("checkout.finalize", "payment identifier is required")
	}
	return o.verifyAndSettle(ctx, sess, intentID)
}

// activeSession looks up a session that can still advance. Terminal
// sessions are rejected: a failed session is never reused.
func (o *Orchestrator) activeSession(sessionID string) (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[sessionID]
	if !ok {
		return nil, domain.NotFound("checkout.session", "checkout session", sessionID)
	}
	if sess.State.Terminal() {
		return nil, domain.Invalid("checkout.session", "checkout session is no longer active; start a new checkout")
	}
	return sess, nil
}

func (o *Orchestrator) createGatewaySession(ctx context.Context, sess *Session, items []domain.CartItem, params BeginParams) error {
	mode := payment.ModeRedirect
	if sess.Flow == FlowEmbedded {
		mode = payment.ModeEmbedded
	}

	gw, err := o.provider.CreateCheckoutSession(ctx, payment.CreateSessionParams{
		Mode:          mode,
		LineItems:     sessionLineItems(items, sess.Totals),
		SuccessURL:    params.SuccessURL,
		CancelURL:     params.CancelURL,
		ReturnURL:     params.ReturnURL,
		CustomerEmail: params.CustomerEmail,
		Metadata: map[string]string{
			"checkout_id": sess.ID,
			"cart_id":     sess.CartID,
		},
		IdempotencyKey: sess.ID,
	})
	if err != nil {
		return err
	}

	sess.GatewaySessionID = gw.ID
	sess.ClientSecret = gw.ClientSecret
	sess.HostedURL = gw.HostedURL
	return nil
}

func (o *Orchestrator) createIntent(ctx context.Context, sess *Session, params BeginParams) error {
	intent, err := o.provider.CreatePaymentIntent(ctx, payment.CreateIntentParams{
		AmountCents:   sess.Totals.TotalCents,
		Currency:      sess.Totals.Currency,
		CustomerEmail: params.CustomerEmail,
		Metadata: map[string]string{
			"checkout_id": sess.ID,
			"cart_id":     sess.CartID,
		},
		IdempotencyKey: sess.ID,
	})
	if err != nil {
		return err
	}

	sess.IntentID = intent.ID
	sess.ClientSecret = intent.ClientSecret
	return nil
}

// verifyAndSettle runs the Verifying step. The cart is cleared only on a
// verified success, exactly once; every other outcome preserves it.
func (o *Orchestrator) verifyAndSettle(ctx context.Context, sess *Session, intentID string) (*Session, error) {
	o.transition(ctx, sess, StateVerifying)

	v, err := o.provider.VerifyPayment(ctx, intentID)
	if err != nil {
		// Ambiguous: the payment may have gone through. Keep the cart
		// and surface a verification error, not a payment failure.
		verr := domain.WrapError(err, domain.EVERIFY, "checkout.verify",
			"We could not verify your payment. Please contact support before retrying.")
		if o.metrics != nil {
			o.metrics.VerificationFails.Inc()
		}
		o.fail(ctx, sess, verr, "verification")
		return sess, verr
	}

	sess.Verification = v
	sess.IntentID = v.ID

	settled := v.Status == payment.StatusSucceeded ||
		(v.Status == payment.StatusProcessing && o.policy.SettleOnProcessing)
	if !settled {
		err := domain.Errorf(domain.EGATEWAY, "checkout.verify", "payment not completed (status: %s)", v.Status)
		o.fail(ctx, sess, err, "declined")
		return sess, err
	}

	o.settle(ctx, sess)
	return sess, nil
}

// settle moves the session to Settled and clears the cart. The guard makes
// the clear happen exactly once even if settle is re-entered.
func (o *Orchestrator) settle(ctx context.Context, sess *Session) {
	o.transition(ctx, sess, StateSettled)

	if !sess.cartCleared {
		sess.cartCleared = true
		if err := o.carts.Clear(ctx, sess.CartID); err != nil {
			// The order is settled regardless; the stale cart is a
			// cosmetic problem, not a payment one.
			o.logger.ErrorContext(ctx, "failed to clear cart after settled checkout",
				slog.String("checkout_id", sess.ID),
				slog.String("cart_id", sess.CartID),
				slog.String("error", err.Error()))
		} else if o.metrics != nil {
			o.metrics.CartCleared.Inc()
		}
	}

	o.logger.InfoContext(ctx, "checkout settled",
		slog.String("checkout_id", sess.ID),
		slog.String("intent_id", sess.IntentID),
		slog.Int64("total_cents", sess.Totals.TotalCents))
	if o.metrics != nil {
		o.metrics.PaymentSucceeded.Inc()
		o.metrics.OrderValue.Observe(float64(sess.Totals.TotalCents))
	}
}

func (o *Orchestrator) fail(ctx context.Context, sess *Session, err error, reason string) {
	sess.Err = err
	o.transition(ctx, sess, StateFailed)

	o.logger.WarnContext(ctx, "checkout failed",
		slog.String("checkout_id", sess.ID),
		slog.String("reason", reason),
		slog.String("error", err.Error()))
	if o.metrics != nil {
		o.metrics.PaymentFailed.WithLabelValues(reason).Inc()
	}
}

func (o *Orchestrator) transition(ctx context.Context, sess *Session, to State) {
	from := sess.State
	sess.State = to
	sess.UpdatedAt = time.Now()
	o.logger.DebugContext(ctx, "checkout transition",
		slog.String("checkout_id", sess.ID),
		slog.String("from", string(from)),
		slog.String("to", string(to)))
}

// sessionLineItems maps the cart to gateway line items. When a coupon
// discount is in play per-line prices can't represent it, so the whole
// order collapses into one aggregate line for the frozen total.
func sessionLineItems(items []domain.CartItem, totals domain.OrderTotals) []payment.LineItem {
	if totals.DiscountCents > 0 {
		return []payment.LineItem{{
			Name:            "Order Payment",
			Description:     "Payment for your order",
			UnitAmountCents: totals.TotalCents,
			Quantity:        1,
			Currency:        totals.Currency,
		}}
	}

	out := make([]payment.LineItem, 0, len(items)+1)
	for _, it := range items {
		out = append(out, payment.LineItem{
			Name:            it.Name,
			ImageURL:        it.ImageURL,
			UnitAmountCents: it.EffectiveUnitPriceCents(),
			Quantity:        int64(it.Quantity),
			Currency:        totals.Currency,
		})
	}
	if totals.ShippingCents > 0 {
		out = append(out, payment.LineItem{
			Name:            "Shipping",
			UnitAmountCents: totals.ShippingCents,
			Quantity:        1,
			Currency:        totals.Currency,
		})
	}
	return out
}

func confirmationFailure(intent *payment.Intent) error {
	if intent.LastError != nil {
		return &domain.Error{
			Code:    domain.EGATEWAY,
			Message: intent.LastError.Message,
			Op:      "checkout.submit",
			Err:     intent.LastError,
		}
	}
	return domain.Errorf(domain.EGATEWAY, "checkout.submit", "payment was not completed (status: %s)", intent.Status)
}
