// Package metrics exposes Prometheus instruments for the receipt pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	OrdersCreatedTotal   *prometheus.CounterVec
	OrdersConfirmedTotal *prometheus.CounterVec
	OrdersReconciled     *prometheus.CounterVec
	ReceiptsIssuedTotal  *prometheus.CounterVec
	VerificationsTotal   *prometheus.CounterVec
	ProviderDuration     *prometheus.HistogramVec
	NearbyResults        prometheus.Histogram
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OrdersCreatedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanpay_orders_created_total",
				Help: "Orders created, by currency",
			},
			[]string{"currency"},
		),
		OrdersConfirmedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanpay_orders_confirmed_total",
				Help: "Order confirmations, by result (verified, signature_mismatch)",
			},
			[]string{"result"},
		),
		OrdersReconciled: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanpay_orders_reconciled_total",
				Help: "Stale orders handled by the reconciler, by action",
			},
			[]string{"action"},
		),
		ReceiptsIssuedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanpay_receipts_issued_total",
				Help: "Receipt issue calls, by whether a new receipt was minted",
			},
			[]string{"created"},
		),
		VerificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanpay_verifications_total",
				Help: "Gate verification attempts, by outcome",
			},
			[]string{"outcome", "reason"},
		),
		ProviderDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scanpay_provider_request_duration_seconds",
				Help:    "Payment provider call latency",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms, 20ms, 40ms...
			},
			[]string{"operation", "status"},
		),
		NearbyResults: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scanpay_nearby_results",
				Help:    "Number of stores returned by nearby lookups",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
	}
}

func (m *Metrics) RecordOrderCreated(currency string) {
	if m == nil {
		return
	}
	m.OrdersCreatedTotal.WithLabelValues(currency).Inc()
}

func (m *Metrics) RecordConfirmation(verified bool) {
	if m == nil {
		return
	}
	result := "verified"
	if !verified {
		result = "signature_mismatch"
	}
	m.OrdersConfirmedTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordReconciled(action string) {
	if m == nil {
		return
	}
	m.OrdersReconciled.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordReceiptIssued(created bool) {
	if m == nil {
		return
	}
	label := "false"
	if created {
		label = "true"
	}
	m.ReceiptsIssuedTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) RecordVerification(outcome, reason string) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) ObserveProvider(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ProviderDuration.WithLabelValues(operation, status).Observe(seconds)
}

func (m *Metrics) ObserveNearby(count int) {
	if m == nil {
		return
	}
	m.NearbyResults.Observe(float64(count))
}
