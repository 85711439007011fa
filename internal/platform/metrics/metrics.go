package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bridge
type Metrics struct {
	PurchasesTotal   *prometheus.CounterVec
	UpdatesPublished prometheus.Counter
	DeliveryFailures prometheus.Counter
	RestoreFailures  prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		PurchasesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "storebridge_purchases_total",
			Help: "Total purchase submissions by terminal outcome",
		}, []string{"outcome"}),
		UpdatesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storebridge_transaction_updates_published_total",
			Help: "Verified transaction updates delivered to the outbound channel",
		}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storebridge_update_delivery_failures_total",
			Help: "Outbound deliveries rejected by the update channel",
		}),
		RestoreFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storebridge_restore_failures_total",
			Help: "Restoration walks that ended with re-verification failures",
		}),
	}
}

// IncPurchase records a purchase reaching the given terminal outcome.
// Nil-safe so services can run without metrics wired.
func (m *Metrics) IncPurchase(outcome string) {
	if m == nil {
		return
	}
	m.PurchasesTotal.WithLabelValues(outcome).Inc()
}

// IncUpdatePublished records one successful outbound delivery.
func (m *Metrics) IncUpdatePublished() {
	if m == nil {
		return
	}
	m.UpdatesPublished.Inc()
}

// IncDeliveryFailure records one rejected outbound delivery.
func (m *Metrics) IncDeliveryFailure() {
	if m == nil {
		return
	}
	m.DeliveryFailures.Inc()
}

// IncRestoreFailure records a restoration walk that reported failures.
func (m *Metrics) IncRestoreFailure() {
	if m == nil {
		return
	}
	m.RestoreFailures.Inc()
}
