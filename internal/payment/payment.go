// Package payment defines the interface to the payment gateway.
//
// Implementations can use Stripe, PayPal, Square, etc. The server never
// touches card data: it creates sessions and intents, confirms with an
// opaque payment method reference, and verifies outcomes by asking the
// gateway, never by trusting the client.
package payment

import (
	"context"
	"time"

	"github.com/quancoi2ka3/sportshop/internal/domain"
)

// Status mirrors the gateway's payment lifecycle states.
type Status string

const (
	StatusRequiresPaymentMethod Status = "requires_payment_method"
	StatusRequiresConfirmation  Status = "requires_confirmation"
	StatusRequiresAction        Status = "requires_action"
	StatusProcessing            Status = "processing"
	StatusSucceeded             Status = "succeeded"
	StatusCanceled              Status = "canceled"

	// StatusVerificationFailed is a local sentinel, never produced by the
	// gateway: it marks an outcome that could not be verified.
	StatusVerificationFailed Status = "verification_failed"
)

// SessionMode selects how the hosted checkout UI is delivered.
type SessionMode string

const (
	// ModeRedirect sends the customer to the gateway's hosted page.
	ModeRedirect SessionMode = "redirect"

	// ModeEmbedded renders the gateway's UI inside our page via a
	// client secret. No redirect URL is ever produced.
	ModeEmbedded SessionMode = "embedded"
)

// Provider defines the interface for payment processing.
type Provider interface {
	// CreateCheckoutSession creates a hosted or embedded checkout
	// session for the given line items.
	CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*Session, error)

	// CreatePaymentIntent creates an intent for the payment-element
	// flow. Returns the intent with a client secret for the frontend.
	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)

	// ConfirmPayment attaches a payment method and confirms the intent.
	// A requires_action status is a normal outcome, not an error.
	ConfirmPayment(ctx context.Context, intentID, paymentMethodID string) (*Intent, error)

	// HandleNextAction advances an intent stuck in requires_action.
	// Safe to call on any intent; intents past that state are returned
	// unchanged.
	HandleNextAction(ctx context.Context, intentID string) (*Intent, error)

	// VerifyPayment fetches the authoritative outcome of an intent from
	// the gateway.
	VerifyPayment(ctx context.Context, intentID string) (*Verification, error)
}

// LineItem is one purchasable line submitted to the gateway.
type LineItem struct {
	Name            string
	Description     string
	ImageURL        string
	UnitAmountCents int64
	Quantity        int64
	Currency        string
}

// CreateSessionParams contains parameters for creating a checkout session.
type CreateSessionParams struct {
	Mode      SessionMode
	LineItems []LineItem

	// SuccessURL and CancelURL are required in redirect mode.
	SuccessURL string
	CancelURL  string

	// ReturnURL is where embedded checkout lands after completion. When
	// empty, the embedded UI completes without redirecting.
	ReturnURL string

	CustomerEmail string
	Metadata      map[string]string

	// IdempotencyKey prevents duplicate sessions on retried requests.
	IdempotencyKey string
}

// Validate rejects parameter combinations the gateway would reject, before
// any network call is made.
func (p CreateSessionParams) Validate() error {
	if len(p.LineItems) == 0 {
		return domain.Invalid("payment.create_session", "line items must not be empty")
	}
	for _, li := range p.LineItems {
		if li.UnitAmountCents <= 0 || li.Quantity <= 0 {
			return domain.Invalid("payment.create_session", "line items must have positive amount and quantity")
		}
	}
	switch p.Mode {
	case ModeRedirect:
		if p.SuccessURL == "" || p.CancelURL == "" {
			return domain.Invalid("payment.create_session", "success URL and cancel URL are required")
		}
	case ModeEmbedded:
		// Return URL is optional: without one the embedded UI simply
		// does not redirect on completion.
	default:
		return domain.Invalid("payment.create_session", "unknown checkout mode")
	}
	return nil
}

// Session is a created checkout session.
type Session struct {
	// ID is the gateway session ID (cs_...).
	ID string

	// ClientSecret mounts the embedded UI. Empty in redirect mode.
	ClientSecret string

	// HostedURL is the gateway's hosted page. Empty in embedded mode.
	HostedURL string
}

// CreateIntentParams contains parameters for creating a payment intent.
type CreateIntentParams struct {
	// AmountCents is the amount in smallest currency unit.
	AmountCents int64

	// Currency code (ISO 4217), e.g. "usd". Defaults to "usd".
	Currency string

	CustomerEmail string
	Metadata      map[string]string

	// IdempotencyKey prevents duplicate intents on retried requests.
	IdempotencyKey string
}

// Validate rejects bad amounts before any network call is made.
func (p CreateIntentParams) Validate() error {
	if p.AmountCents <= 0 {
		return domain.Invalid("payment.create_intent", "amount must be greater than zero")
	}
	return nil
}

// Intent is a payment intent as reported by the gateway.
type Intent struct {
	// ID is the gateway intent ID (pi_...).
	ID string

	// ClientSecret is used by the frontend to collect payment details.
	ClientSecret string

	AmountCents int64
	Currency    string
	Status      Status
	Metadata    map[string]string
	CreatedAt   time.Time

	// LastError carries the gateway's most recent failure detail, if any.
	LastError *ProviderError
}

// Verification is the authoritative outcome of a payment, fetched from the
// gateway after confirmation.
type Verification struct {
	ID          string            `json:"id"`
	Status      Status            `json:"status"`
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`

	// Succeeded is true for succeeded and processing outcomes. Processing
	// means the gateway accepted the payment and settlement is pending.
	Succeeded bool `json:"is_successful"`
}

// SucceededStatus reports whether a gateway status counts as a successful
// payment outcome.
func SucceededStatus(s Status) bool {
	return s == StatusSucceeded || s == StatusProcessing
}
