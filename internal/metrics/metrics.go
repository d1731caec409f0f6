// Package metrics registers the storefront's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CartSyncFailures counts best-effort remote cart writes that failed
	// after the local mutation already committed. Labelled by operation
	// (add, remove, fetch).
	CartSyncFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "sync_failures_total",
		Help:      "Best-effort remote cart sync failures by operation.",
	}, []string{"op"})

	// OrdersSubmitted counts order submissions by outcome.
	OrdersSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "orders_submitted_total",
		Help:      "Order submissions by outcome (accepted, rejected, error).",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(CartSyncFailures, OrdersSubmitted)
}
