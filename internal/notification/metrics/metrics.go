package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for notification generation and delivery.
type Metrics struct {
	NotificationsCreated prometheus.Counter
	Deliveries           *prometheus.CounterVec
	DeliveryDuration     prometheus.Histogram
	PassDuration         prometheus.Histogram
	Retries              prometheus.Counter
	BreakerTransitions   *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		NotificationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "leasekeeper_notifications_created_total",
			Help: "Notifications created by the generator",
		}),
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leasekeeper_notification_deliveries_total",
			Help: "Delivery attempts labeled by outcome (sent, failed)",
		}, []string{"outcome"}),
		DeliveryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leasekeeper_notification_delivery_duration_seconds",
			Help:    "Duration of a single send call",
			Buckets: prometheus.DefBuckets,
		}),
		PassDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leasekeeper_notification_pass_duration_seconds",
			Help:    "Duration of one processing pass over a scope's pending notifications",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		Retries: f.NewCounter(prometheus.CounterOpts{
			Name: "leasekeeper_notification_retries_total",
			Help: "Failed notifications reset to pending by a retry request",
		}),
		BreakerTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leasekeeper_delivery_breaker_transitions_total",
			Help: "Delivery circuit breaker state changes labeled by target state",
		}, []string{"state"}),
	}
}

func (m *Metrics) IncDelivery(outcome string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(outcome).Inc()
}
