// Package metrics provides Prometheus metrics for the verification ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all verification ledger metrics.
type Metrics struct {
	AttestationsTotal  *prometheus.CounterVec   // Successful attestations by creation type
	VouchesTotal       prometheus.Counter       // Successful vouches
	RejectionsTotal    *prometheus.CounterVec   // Rejected operations by reason
	PromotionsTotal    prometheus.Counter       // Records crossing the community-vouched threshold
	OperationDuration  *prometheus.HistogramVec // Ledger operation latency by operation
	ChainMirrorsTotal  *prometheus.CounterVec   // Chain mirror attempts by outcome
	StorageErrorsTotal prometheus.Counter       // Transient storage failures surfaced to callers
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		AttestationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "metasignet_attestations_total",
			Help: "Total number of successful attestations by creation type",
		}, []string{"creation_type"}),

		VouchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metasignet_vouches_total",
			Help: "Total number of successful vouches",
		}),

		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "metasignet_rejections_total",
			Help: "Total number of rejected ledger operations by reason",
		}, []string{"reason"}),

		PromotionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metasignet_promotions_total",
			Help: "Total number of records promoted to community-vouched",
		}),

		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "metasignet_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations by operation name",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		ChainMirrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "metasignet_chain_mirrors_total",
			Help: "Total number of chain mirror attempts by outcome",
		}, []string{"outcome"}),

		StorageErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metasignet_storage_errors_total",
			Help: "Total number of transient storage failures surfaced to callers",
		}),
	}
}

// Rejection reasons used as label values.
const (
	ReasonAlreadyAttested = "already_attested"
	ReasonSelfVouch       = "self_vouch"
	ReasonNotFound        = "not_found"
	ReasonInvalidInput    = "invalid_input"
)
