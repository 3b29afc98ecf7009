package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for lease operations.
type Metrics struct {
	LeasesCreated     prometheus.Counter
	LeasesTerminated  prometheus.Counter
	OverlapRejections prometheus.Counter
	SweepUpdated      *prometheus.CounterVec
	SweepDuration     prometheus.Histogram
	TxLockWait        prometheus.Histogram
}

// New registers lease metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LeasesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "leasekeeper_leases_created_total",
			Help: "Total number of leases created",
		}),
		LeasesTerminated: f.NewCounter(prometheus.CounterOpts{
			Name: "leasekeeper_leases_terminated_total",
			Help: "Total number of leases terminated",
		}),
		OverlapRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "leasekeeper_lease_overlap_rejections_total",
			Help: "Lease writes rejected because the unit was already let for the period",
		}),
		SweepUpdated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leasekeeper_lease_sweep_updates_total",
			Help: "Lease status changes persisted by the sweep, labeled by new status",
		}, []string{"status"}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leasekeeper_lease_sweep_duration_seconds",
			Help:    "Duration of status sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		TxLockWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leasekeeper_lease_unit_lock_wait_seconds",
			Help:    "Time spent waiting for the in-memory unit lock",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
