package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AccountsCreated     prometheus.Counter
	AccountsDeactivated prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "leasekeeper_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsDeactivated: f.NewCounter(prometheus.CounterOpts{
			Name: "leasekeeper_accounts_deactivated_total",
			Help: "Total number of accounts deactivated",
		}),
	}
}
