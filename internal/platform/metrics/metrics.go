package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	TransfersCompleted  prometheus.Counter
	TransfersRejected   *prometheus.CounterVec
	TokensMinted        prometheus.Counter
	TokensBurned        prometheus.Counter
	VerificationChecks  prometheus.Counter
	VerificationHits    prometheus.Counter
	IdentitiesRegistered prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriledger_transfers_completed_total",
			Help: "Total number of completed transfers, including forced transfers",
		}),
		TransfersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriledger_transfers_rejected_total",
			Help: "Total number of rejected transfers by rejection reason",
		}, []string{"reason"}),
		TokensMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriledger_tokens_minted_total",
			Help: "Total amount of tokens minted",
		}),
		TokensBurned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriledger_tokens_burned_total",
			Help: "Total amount of tokens burned",
		}),
		VerificationChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriledger_verification_checks_total",
			Help: "Total number of identity verification checks",
		}),
		VerificationHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriledger_verification_cache_hits_total",
			Help: "Verification checks answered from cache",
		}),
		IdentitiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriledger_identities_registered_total",
			Help: "Total number of identity bindings registered",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veriledger_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// RejectionReason labels for TransfersRejected.
const (
	ReasonPaused       = "paused"
	ReasonFrozen       = "frozen"
	ReasonInsufficient = "insufficient_balance"
	ReasonNotVerified  = "not_verified"
	ReasonCompliance   = "compliance_rejected"
)
