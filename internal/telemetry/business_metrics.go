// Package telemetry holds Prometheus metrics for business-level
// observability of the storefront.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Product engagement
	ProductViews    *prometheus.CounterVec
	ProductSearches prometheus.Counter

	// Cart
	CartItemsAdded  *prometheus.CounterVec
	CartCleared     prometheus.Counter
	CouponsApplied  *prometheus.CounterVec
	CouponsRejected prometheus.Counter

	// Checkout funnel
	CheckoutStarted   *prometheus.CounterVec
	PaymentAttempts   prometheus.Counter
	StepUpChallenges  prometheus.Counter
	PaymentSucceeded  prometheus.Counter
	PaymentFailed     *prometheus.CounterVec
	VerificationFails prometheus.Counter

	// Revenue
	OrderValue     prometheus.Histogram
	OrderItemCount prometheus.Histogram
}

// NewBusinessMetrics creates and registers all business metrics.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "sportshop"
	}

	subsystem := "business"

	return &BusinessMetrics{
		ProductViews: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_views_total",
				Help:      "Total product detail fetches",
			},
			[]string{"product_id"},
		),
		ProductSearches: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_searches_total",
				Help:      "Total product search requests",
			},
		),

		CartItemsAdded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total add to cart actions",
			},
			[]string{"product_id"},
		),
		CartCleared: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts cleared after settled checkouts",
			},
		),
		CouponsApplied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "coupons_applied_total",
				Help:      "Total coupon codes applied",
			},
			[]string{"code"},
		),
		CouponsRejected: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "coupons_rejected_total",
				Help:      "Total unknown coupon codes rejected",
			},
		),

		CheckoutStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total checkout sessions created",
			},
			[]string{"flow"}, // flow: redirect, embedded, element
		),
		PaymentAttempts: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_attempts_total",
				Help:      "Total payment confirmations submitted",
			},
		),
		StepUpChallenges: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_step_up_challenges_total",
				Help:      "Total requires_action responses handled automatically",
			},
		),
		PaymentSucceeded: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payments_succeeded_total",
				Help:      "Total payments verified as settled",
			},
		),
		PaymentFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payments_failed_total",
				Help:      "Total payments that ended in a failed checkout",
			},
			[]string{"reason"}, // reason: gateway, verification, declined
		),
		VerificationFails: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_verification_failures_total",
				Help:      "Total verification calls that errored (ambiguous outcome)",
			},
		),

		OrderValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_cents",
				Help:      "Settled order totals in cents",
				Buckets:   []float64{1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
		),
		OrderItemCount: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of lines in settled orders",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
	}
}
