package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Webhook outcomes recorded on storefront_payment_webhooks_total.
const (
	WebhookOutcomeApplied   = "applied"
	WebhookOutcomeUnchanged = "unchanged"
	WebhookOutcomeIgnored   = "ignored"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeNotFound  = "not_found"
	WebhookOutcomeRejected  = "rejected"
	WebhookOutcomeFailed    = "failed"
)

// WebhookMetrics counts payment notifications by gateway status and outcome.
type WebhookMetrics struct {
	received *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counter on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_webhooks_total",
		Help: "Payment gateway notifications processed, by gateway status and outcome.",
	}, []string{"gateway_status", "outcome"})
	reg.MustRegister(received)
	return &WebhookMetrics{received: received}
}

// Observe increments the counter for a processed notification.
func (w *WebhookMetrics) Observe(gatewayStatus, outcome string) {
	if w == nil || w.received == nil {
		return
	}
	status := strings.ToLower(strings.TrimSpace(gatewayStatus))
	if status == "" {
		status = "none"
	}
	w.received.WithLabelValues(status, normalizeLabel(outcome)).Inc()
}
