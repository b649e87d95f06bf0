package storefront

import (
	"net/http"

	"github.com/quancoi2ka3/sportshop/internal/checkout"
	"github.com/quancoi2ka3/sportshop/internal/domain"
	"github.com/quancoi2ka3/sportshop/internal/middleware"
	"github.com/quancoi2ka3/sportshop/internal/payment"
)

// CheckoutHandler exposes the payment API routes. Amounts and line items
// are always derived from the server-side cart; the client only supplies
// URLs, an email, and opaque payment identifiers.
type CheckoutHandler struct {
	orch     *checkout.Orchestrator
	provider payment.Provider
	secure   bool
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(orch *checkout.Orchestrator, provider payment.Provider, secure bool) *CheckoutHandler {
	return &CheckoutHandler{orch: orch, provider: provider, secure: secure}
}

type createSessionRequest struct {
	SuccessURL    string `json:"success_url" validate:"required,url"`
	CancelURL     string `json:"cancel_url" validate:"required,url"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
}

// CreateCheckoutSession handles POST /api/payment/create-checkout-session.
// Redirect flow: the response carries the gateway's hosted page URL.
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cartID := EnsureCartID(w, r, h.secure)
	sess, err := h.orch.Begin(r.Context(), cartID, checkout.BeginParams{
		Flow:          checkout.FlowRedirect,
		CustomerEmail: req.CustomerEmail,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":          sess.GatewaySessionID,
		"url":         sess.HostedURL,
		"checkout_id": sess.ID,
	})
}

type createEmbeddedRequest struct {
	ReturnURL     string `json:"return_url" validate:"omitempty,url"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
}

// CreateEmbeddedCheckout handles POST /api/payment/create-embedded-checkout.
// Embedded flow: the response carries a client secret and never a URL.
func (h *CheckoutHandler) CreateEmbeddedCheckout(w http.ResponseWriter, r *http.Request) {
	var req createEmbeddedRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cartID := EnsureCartID(w, r, h.secure)
	sess, err := h.orch.Begin(r.Context(), cartID, checkout.BeginParams{
		Flow:          checkout.FlowEmbedded,
		CustomerEmail: req.CustomerEmail,
		ReturnURL:     req.ReturnURL,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":            sess.GatewaySessionID,
		"client_secret": sess.ClientSecret,
		"checkout_id":   sess.ID,
	})
}

type createIntentRequest struct {
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
}

// CreatePaymentIntent handles POST /api/payment/create-payment-intent.
// Element flow: the client collects card details and submits a payment
// method ID to ProcessPayment.
func (h *CheckoutHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cartID := EnsureCartID(w, r, h.secure)
	sess, err := h.orch.Begin(r.Context(), cartID, checkout.BeginParams{
		Flow:          checkout.FlowElement,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":            sess.IntentID,
		"client_secret": sess.ClientSecret,
		"checkout_id":   sess.ID,
		"amount_cents":  sess.Totals.TotalCents,
		"currency":      sess.Totals.Currency,
	})
}

type processPaymentRequest struct {
	CheckoutID      string `json:"checkout_id" validate:"required"`
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
}

// ProcessPayment handles POST /api/payment/process-payment. Confirmation,
// any step-up authentication, and verification all run here; the response
// is the session's terminal state.
func (h *CheckoutHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req processPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	sess, err := h.orch.SubmitPayment(r.Context(), req.CheckoutID, req.PaymentMethodID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// VerifyPayment handles GET /api/payment/verify-payment?paymentIntentId=.
// It reports the gateway's authoritative view of the payment.
func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	intentID := r.URL.Query().Get("paymentIntentId")
	if intentID == "" {
		respondError(w, r, domain.Invalid("handler.verify", "payment intent ID is required"))
		return
	}

	v, err := h.provider.VerifyPayment(r.Context(), intentID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Success handles GET /checkout/success. Reaching it without a payment
// identifier means a direct visit, not a completed payment: respond with
// a delayed redirect home and no success body.
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	intentID := q.Get("payment_intent")
	if intentID == "" {
		intentID = q.Get("paymentIntentId")
	}

	if intentID == "" {
		w.Header().Set("Refresh", "5;url=/")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "No payment information found. Redirecting to the home page.",
		})
		return
	}

	// Settle through the orchestrator when the session is known (it
	// clears the cart); fall back to bare verification otherwise.
	if checkoutID := q.Get("checkout_id"); checkoutID != "" {
		if _, ok := h.orch.Get(checkoutID); ok {
			sess, err := h.orch.Finalize(r.Context(), checkoutID, intentID)
			if err != nil {
				respondError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, sess)
			return
		}
	}

	v, err := h.provider.VerifyPayment(r.Context(), intentID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !v.Succeeded {
		middleware.RespondWithError(w, r,
			domain.Errorf(domain.EGATEWAY, "handler.success", "payment not completed (status: %s)", v.Status))
		return
	}
	writeJSON(w, http.StatusOK, v)
}
