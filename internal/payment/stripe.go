package payment

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeProvider implements Provider using Stripe.
//
// The API key is carried by per-backend clients rather than the SDK's
// package-global key, so two providers with different keys can coexist in
// one process (tests, staged rollouts).
type StripeProvider struct {
	cfg      Config
	intents  *paymentintent.Client
	sessions *session.Client
}

// NewStripeProvider creates a Stripe-backed payment provider.
func NewStripeProvider(cfg Config) (*StripeProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(int64(cfg.MaxRetries)),
	})

	return &StripeProvider{
		cfg:      cfg,
		intents:  &paymentintent.Client{B: backend, Key: cfg.SecretKey},
		sessions: &session.Client{B: backend, Key: cfg.SecretKey},
	}, nil
}

// CreateCheckoutSession creates a hosted or embedded Stripe Checkout
// session.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	sp := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          stripeLineItems(params.LineItems),
	}
	sp.Context = ctx

	switch params.Mode {
	case ModeRedirect:
		sp.SuccessURL = stripe.String(params.SuccessURL)
		sp.CancelURL = stripe.String(params.CancelURL)
		sp.BillingAddressCollection = stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired))
		if len(s.cfg.AllowedShippingCountries) > 0 {
			sp.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
				AllowedCountries: stripe.StringSlice(s.cfg.AllowedShippingCountries),
			}
		}
		sp.CustomFields = []*stripe.CheckoutSessionCustomFieldParams{
			{
				Key: stripe.String("shipping_notes"),
				Label: &stripe.CheckoutSessionCustomFieldLabelParams{
					Type:   stripe.String("custom"),
					Custom: stripe.String("Delivery instructions"),
				},
				Type:     stripe.String("text"),
				Optional: stripe.Bool(true),
			},
		}
		if s.cfg.EnableAutomaticTax {
			sp.AutomaticTax = &stripe.CheckoutSessionAutomaticTaxParams{Enabled: stripe.Bool(true)}
		}
	case ModeEmbedded:
		sp.UIMode = stripe.String("embedded")
		if params.ReturnURL != "" {
			sp.ReturnURL = stripe.String(params.ReturnURL)
		} else {
			sp.RedirectOnCompletion = stripe.String("never")
		}
	}

	if params.CustomerEmail != "" {
		sp.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		sp.SetIdempotencyKey(params.IdempotencyKey)
	}

	sess, err := s.sessions.New(sp)
	if err != nil {
		return nil, mapStripeError("payment.create_session", err)
	}

	return &Session{
		ID:           sess.ID,
		ClientSecret: sess.ClientSecret,
		HostedURL:    sess.URL,
	}, nil
}

// CreatePaymentIntent creates a Stripe payment intent for the
// payment-element flow.
func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}

	ip := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	ip.Context = ctx

	if params.CustomerEmail != "" {
		ip.ReceiptEmail = stripe.String(params.CustomerEmail)
	}
	for k, v := range params.Metadata {
		ip.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		ip.SetIdempotencyKey(params.IdempotencyKey)
	}

	pi, err := s.intents.New(ip)
	if err != nil {
		return nil, mapStripeError("payment.create_intent", err)
	}
	return intentFromStripe(pi), nil
}

// ConfirmPayment attaches the payment method and confirms the intent.
func (s *StripeProvider) ConfirmPayment(ctx context.Context, intentID, paymentMethodID string) (*Intent, error) {
	if intentID == "" {
		return nil, ErrIntentNotFound
	}

	cp := &stripe.PaymentIntentConfirmParams{}
	cp.Context = ctx
	if paymentMethodID != "" {
		cp.PaymentMethod = stripe.String(paymentMethodID)
	}

	pi, err := s.intents.Confirm(intentID, cp)
	if err != nil {
		return nil, mapStripeError("payment.confirm", err)
	}
	return intentFromStripe(pi), nil
}

// HandleNextAction re-confirms an intent waiting on an authentication
// step. Intents in any other state are returned as-is.
func (s *StripeProvider) HandleNextAction(ctx context.Context, intentID string) (*Intent, error) {
	if intentID == "" {
		return nil, ErrIntentNotFound
	}

	gp := &stripe.PaymentIntentParams{}
	gp.Context = ctx
	pi, err := s.intents.Get(intentID, gp)
	if err != nil {
		return nil, mapStripeError("payment.next_action", err)
	}

	if pi.Status == stripe.PaymentIntentStatusRequiresAction ||
		pi.Status == stripe.PaymentIntentStatusRequiresConfirmation {
		cp := &stripe.PaymentIntentConfirmParams{}
		cp.Context = ctx
		pi, err = s.intents.Confirm(intentID, cp)
		if err != nil {
			return nil, mapStripeError("payment.next_action", err)
		}
	}
	return intentFromStripe(pi), nil
}

// VerifyPayment fetches the intent's authoritative status from Stripe.
func (s *StripeProvider) VerifyPayment(ctx context.Context, intentID string) (*Verification, error) {
	if intentID == "" {
		return nil, ErrIntentNotFound
	}

	gp := &stripe.PaymentIntentParams{}
	gp.Context = ctx
	pi, err := s.intents.Get(intentID, gp)
	if err != nil {
		return nil, mapStripeError("payment.verify", err)
	}

	st := Status(pi.Status)
	return &Verification{
		ID:          pi.ID,
		Status:      st,
		AmountCents: pi.Amount,
		Currency:    string(pi.Currency),
		Metadata:    pi.Metadata,
		Succeeded:   SucceededStatus(st),
	}, nil
}

func stripeLineItems(items []LineItem) []*stripe.CheckoutSessionLineItemParams {
	out := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, li := range items {
		currency := li.Currency
		if currency == "" {
			currency = "usd"
		}
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			product.Description = stripe.String(li.Description)
		}
		if li.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{li.ImageURL})
		}
		out = append(out, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmountCents),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	return out
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	out := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       Status(pi.Status),
		Metadata:     pi.Metadata,
		CreatedAt:    time.Unix(pi.Created, 0),
	}
	if pi.LastPaymentError != nil {
		out.LastError = &ProviderError{
			Message:     pi.LastPaymentError.Msg,
			Code:        string(pi.LastPaymentError.Code),
			DeclineCode: string(pi.LastPaymentError.DeclineCode),
			Err:         pi.LastPaymentError,
		}
	}
	return out
}
