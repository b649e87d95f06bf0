package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is a mock payment provider for testing.
// Simulates the full checkout and confirmation flow without calling the
// gateway.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing session creation behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params CreateSessionParams) (*Session, error)

	// CreatePaymentIntentFunc allows customizing intent creation behavior
	CreatePaymentIntentFunc func(ctx context.Context, params CreateIntentParams) (*Intent, error)

	// ConfirmPaymentFunc allows customizing confirmation behavior
	ConfirmPaymentFunc func(ctx context.Context, intentID, paymentMethodID string) (*Intent, error)

	// HandleNextActionFunc allows customizing next-action behavior
	HandleNextActionFunc func(ctx context.Context, intentID string) (*Intent, error)

	// VerifyPaymentFunc allows customizing verification behavior
	VerifyPaymentFunc func(ctx context.Context, intentID string) (*Verification, error)

	// Sessions stores created checkout sessions for retrieval
	Sessions map[string]*Session

	// Intents stores created payment intents for retrieval
	Intents map[string]*Intent

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock payment provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*Session),
		Intents:  make(map[string]*Intent),
		CallLog:  []string{},
	}
}

// CreateCheckoutSession creates a mock checkout session. Parameter
// validation matches the real provider so tests exercise the same
// rejections.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%s, %d items)", params.Mode, len(params.LineItems)))

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	sess := &Session{ID: "cs_" + uuid.New().String()}
	switch params.Mode {
	case ModeRedirect:
		sess.HostedURL = "https://checkout.example.com/pay/" + sess.ID
	case ModeEmbedded:
		sess.ClientSecret = sess.ID + "_secret_" + uuid.New().String()
	}

	m.Sessions[sess.ID] = sess
	return sess, nil
}

// CreatePaymentIntent creates a mock payment intent.
func (m *MockProvider) CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreatePaymentIntent(%d, %s)", params.AmountCents, params.Currency))

	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, params)
	}

	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}
	pi := &Intent{
		ID:           "pi_" + uuid.New().String(),
		ClientSecret: "pi_secret_" + uuid.New().String(),
		AmountCents:  params.AmountCents,
		Currency:     currency,
		Status:       StatusRequiresPaymentMethod,
		Metadata:     params.Metadata,
		CreatedAt:    time.Now(),
	}

	m.Intents[pi.ID] = pi
	return pi, nil
}

// ConfirmPayment confirms a mock payment intent. Default behavior is an
// immediate success.
func (m *MockProvider) ConfirmPayment(ctx context.Context, intentID, paymentMethodID string) (*Intent, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("ConfirmPayment(%s, %s)", intentID, paymentMethodID))

	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, intentID, paymentMethodID)
	}

	pi, exists := m.Intents[intentID]
	if !exists {
		return nil, ErrIntentNotFound
	}
	pi.Status = StatusSucceeded
	return pi, nil
}

// HandleNextAction advances a mock intent out of requires_action.
func (m *MockProvider) HandleNextAction(ctx context.Context, intentID string) (*Intent, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("HandleNextAction(%s)", intentID))

	if m.HandleNextActionFunc != nil {
		return m.HandleNextActionFunc(ctx, intentID)
	}

	pi, exists := m.Intents[intentID]
	if !exists {
		return nil, ErrIntentNotFound
	}
	if pi.Status == StatusRequiresAction || pi.Status == StatusRequiresConfirmation {
		pi.Status = StatusSucceeded
	}
	return pi, nil
}

// VerifyPayment reports the stored intent's status.
func (m *MockProvider) VerifyPayment(ctx context.Context, intentID string) (*Verification, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("VerifyPayment(%s)", intentID))

	if m.VerifyPaymentFunc != nil {
		return m.VerifyPaymentFunc(ctx, intentID)
	}

	pi, exists := m.Intents[intentID]
	if !exists {
		return nil, ErrIntentNotFound
	}
	return &Verification{
		ID:          pi.ID,
		Status:      pi.Status,
		AmountCents: pi.AmountCents,
		Currency:    pi.Currency,
		Metadata:    pi.Metadata,
		Succeeded:   SucceededStatus(pi.Status),
	}, nil
}
