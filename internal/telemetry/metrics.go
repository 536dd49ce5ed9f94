package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ProviderErrors   *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	Purchases        *prometheus.CounterVec
}

// NewMetrics creates Prometheus metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fulfillment_requests_total",
				Help: "Total number of requests by operation, provider, and status",
			},
			[]string{"operation", "provider", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fulfillment_request_duration_seconds",
				Help:    "Request duration in seconds by operation and provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider"},
		),
		ProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fulfillment_provider_errors_total",
				Help: "Total provider errors by provider and error code",
			},
			[]string{"provider", "error_code"},
		),
		UpstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paccofacile_upstream_requests_total",
				Help: "Total PaccoFacile API calls by operation and HTTP status",
			},
			[]string{"operation", "status"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paccofacile_upstream_duration_seconds",
				Help:    "PaccoFacile API call duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Purchases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paccofacile_auto_purchases_total",
				Help: "Automatic shipment purchases by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, provider, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, provider, status).Inc()
	m.RequestDuration.WithLabelValues(operation, provider).Observe(duration)
}

// RecordError records a provider error metric.
func (m *Metrics) RecordError(provider, errorCode string) {
	m.ProviderErrors.WithLabelValues(provider, errorCode).Inc()
}

// RecordUpstream records a PaccoFacile API call. A zero status means the
// call failed before a response was received.
func (m *Metrics) RecordUpstream(operation string, status int, duration time.Duration) {
	label := "transport_error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(operation, label).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPurchase records the outcome of an automatic purchase.
func (m *Metrics) RecordPurchase(outcome string) {
	m.Purchases.WithLabelValues(outcome).Inc()
}
