package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Payment outcomes recorded by Metrics.Payment
const (
	OutcomeSucceeded = "succeeded"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics records storefront business counters
type Metrics struct {
	pageViews          metric.Int64Counter
	cartAdditions      metric.Int64Counter
	validationFailures metric.Int64Counter
	paymentsStarted    metric.Int64Counter
	payments           metric.Int64Counter
	handoffDuration    metric.Float64Histogram
}

// NewMetrics creates the instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.pageViews, err = meter.Int64Counter("storefront_page_views_total",
		metric.WithDescription("Rendered storefront pages")); err != nil {
		return nil, fmt.Errorf("page view counter: %w", err)
	}
	if m.cartAdditions, err = meter.Int64Counter("storefront_cart_additions_total",
		metric.WithDescription("Products added to carts")); err != nil {
		return nil, fmt.Errorf("cart counter: %w", err)
	}
	if m.validationFailures, err = meter.Int64Counter("storefront_checkout_validation_failures_total",
		metric.WithDescription("Checkout fields rejected by validation")); err != nil {
		return nil, fmt.Errorf("validation counter: %w", err)
	}
	if m.paymentsStarted, err = meter.Int64Counter("storefront_payments_started_total",
		metric.WithDescription("Payment handoffs opened")); err != nil {
		return nil, fmt.Errorf("payment start counter: %w", err)
	}
	if m.payments, err = meter.Int64Counter("storefront_payments_total",
		metric.WithDescription("Payment handoffs closed, by outcome")); err != nil {
		return nil, fmt.Errorf("payment counter: %w", err)
	}
	if m.handoffDuration, err = meter.Float64Histogram("storefront_payment_handoff_seconds",
		metric.WithDescription("Time between opening the payment widget and its callback"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("handoff histogram: %w", err)
	}

	return &m, nil
}

// PageView counts one rendered page
func (m *Metrics) PageView(ctx context.Context, page string) {
	m.pageViews.Add(ctx, 1, metric.WithAttributes(attribute.String("page", page)))
}

// CartAddition counts one product added to a cart
func (m *Metrics) CartAddition(ctx context.Context, productID string) {
	m.cartAdditions.Add(ctx, 1, metric.WithAttributes(attribute.String("product.id", productID)))
}

// ValidationFailure counts one rejected checkout field
func (m *Metrics) ValidationFailure(ctx context.Context, field string) {
	m.validationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

// PaymentStarted counts an opened handoff
func (m *Metrics) PaymentStarted(ctx context.Context, provider string) {
	m.paymentsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// Payment counts a closed handoff and, when opened is known, how long the
// widget was open
func (m *Metrics) Payment(ctx context.Context, provider, outcome string, opened time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	m.payments.Add(ctx, 1, attrs)
	if !opened.IsZero() {
		m.handoffDuration.Record(ctx, time.Since(opened).Seconds(), attrs)
	}
}
