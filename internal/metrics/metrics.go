package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fulfillment"

var (
	// Transitions counts transition requests by kind (status, payment_status) and outcome.
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Order transition requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// StockDecrements counts per-item ledger results: applied, skipped, failed.
	StockDecrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_decrements_total",
			Help:      "Inventory decrements by outcome",
		},
		[]string{"outcome"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications dispatched by outcome",
		},
		[]string{"outcome"},
	)

	// ReadRetries counts retried report reads by query name.
	ReadRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_retries_total",
			Help:      "Retried store reads",
		},
		[]string{"query"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)
)

// OutboxRelays counts outbox relay attempts: published, retry, exhausted.
var OutboxRelays = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_relays_total",
		Help:      "Outbox relay attempts by outcome",
	},
	[]string{"outcome"},
)
