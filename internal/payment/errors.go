package payment

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"

	"github.com/quancoi2ka3/sportshop/internal/domain"
)

// ErrIntentNotFound is returned when a payment intent does not exist.
var ErrIntentNotFound = &domain.Error{Code: domain.ENOTFOUND, Message: "Payment intent not found"}

// ProviderError wraps a gateway API error with the detail needed for
// diagnostics and HTTP status mapping.
type ProviderError struct {
	Message     string // Human-readable error message
	Code        string // Gateway error code (e.g., "card_declined")
	DeclineCode string // Card decline reason (if applicable)
	HTTPStatus  int    // HTTP status the gateway responded with
	RequestID   string // Gateway request ID for debugging
	Err         error  // Original error from the SDK
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsDeclined returns true if the error is due to a card decline.
func (e *ProviderError) IsDeclined() bool {
	return e.Code == "card_declined" || e.DeclineCode != ""
}

// IsTemporary returns true if the error is likely transient and retryable.
func (e *ProviderError) IsTemporary() bool {
	return e.Code == "rate_limit" || e.Code == "api_connection_error"
}

// mapStripeError is the single place a Stripe SDK error becomes a domain
// error. Every provider method routes its failures through here so callers
// see one taxonomy regardless of which gateway call failed.
func mapStripeError(op string, err error) error {
	if err == nil {
		return nil
	}

	var sErr *stripe.Error
	if !errors.As(err, &sErr) {
		// Network failure or SDK-level error, no gateway response.
		return domain.WrapError(err, domain.EGATEWAY, op, "payment provider unreachable")
	}

	pe := &ProviderError{
		Message:     sErr.Msg,
		Code:        string(sErr.Code),
		DeclineCode: string(sErr.DeclineCode),
		HTTPStatus:  sErr.HTTPStatusCode,
		RequestID:   sErr.RequestID,
		Err:         sErr,
	}

	switch {
	case sErr.HTTPStatusCode == 401:
		return &domain.Error{Code: domain.ECONFIG, Message: "Payment provider rejected our credentials", Op: op, Err: pe}
	case sErr.HTTPStatusCode == 404:
		return &domain.Error{Code: domain.ENOTFOUND, Message: "Payment not found", Op: op, Err: pe}
	default:
		msg := sErr.Msg
		if msg == "" {
			msg = "Payment provider error"
		}
		return &domain.Error{Code: domain.EGATEWAY, Message: msg, Op: op, Err: pe}
	}
}
