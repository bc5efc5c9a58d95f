package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the prometheus registry and the instruments of the
// ordering core. Exposed on a dedicated metrics port, separate from the
// API server.
type Collector struct {
	registry *prometheus.Registry

	confirmationAttempts *prometheus.CounterVec
	ordersCommitted      prometheus.Counter
	broadcastDeliveries  *prometheus.CounterVec
	kitchenConnections   prometheus.Gauge
	chatDuration         prometheus.Histogram
}

// Confirmation attempt outcomes.
const (
	OutcomeCommitted    = "committed"
	OutcomeIncomplete   = "incomplete"
	OutcomeNotConfirmed = "not_confirmed"
	OutcomeStorageError = "storage_error"
)

// NewCollector creates and registers all instruments.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		confirmationAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_confirmation_attempts_total",
				Help: "Confirmation workflow outcomes per attempt",
			},
			[]string{"outcome"},
		),
		ordersCommitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_committed_total",
				Help: "Orders persisted and handed to the kitchen",
			},
		),
		broadcastDeliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kitchen_broadcast_deliveries_total",
				Help: "Per-connection delivery outcomes of kitchen broadcasts",
			},
			[]string{"outcome"},
		),
		kitchenConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kitchen_connections",
				Help: "Currently connected kitchen displays",
			},
		),
		chatDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chat_request_duration_seconds",
				Help:    "Latency of chat requests, assistant call included",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	c.registry.MustRegister(
		c.confirmationAttempts,
		c.ordersCommitted,
		c.broadcastDeliveries,
		c.kitchenConnections,
		c.chatDuration,
	)
	return c
}

// RecordConfirmationAttempt counts one workflow outcome.
func (c *Collector) RecordConfirmationAttempt(outcome string) {
	c.confirmationAttempts.WithLabelValues(outcome).Inc()
}

// RecordOrderCommitted counts one persisted order.
func (c *Collector) RecordOrderCommitted() {
	c.ordersCommitted.Inc()
}

// RecordDelivery counts one per-connection broadcast outcome.
func (c *Collector) RecordDelivery(delivered bool) {
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	c.broadcastDeliveries.WithLabelValues(outcome).Inc()
}

// SetKitchenConnections tracks the registry size.
func (c *Collector) SetKitchenConnections(n int) {
	c.kitchenConnections.Set(float64(n))
}

// ObserveChatDuration records one chat request latency in seconds.
func (c *Collector) ObserveChatDuration(seconds float64) {
	c.chatDuration.Observe(seconds)
}

// Handler returns the scrape handler for the metrics server.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
