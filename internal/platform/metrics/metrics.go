package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the attribution pipeline. Counters track
// entity creation along the forward flow; histograms cover the critical
// match/fuse/settle paths.
type Metrics struct {
	EventsIngested      prometheus.Counter
	IngestDuplicates    prometheus.Counter
	BackendFailures     *prometheus.CounterVec
	SimilarityClamped   prometheus.Counter
	MatchFanoutDuration prometheus.Histogram
	FusionDuration      prometheus.Histogram
	FusionDiscounted    prometheus.Counter
	ClaimsCreated       prometheus.Counter
	ClaimsAutoRejected  prometheus.Counter
	CertificatesIssued  prometheus.Counter
	RoyaltiesSettled    prometheus.Counter
	LedgerPublishFailed prometheus.Counter
	RequestDuration     prometheus.Histogram
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attribune_events_ingested_total",
			Help: "Total number of generation events ingested",
		}),
		IngestDuplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attribune_ingest_duplicates_total",
			Help: "Total number of submissions deduplicated by idempotency token",
		}),
		BackendFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attribune_match_backend_failures_total",
			Help: "Total number of auditor backend failures (timeouts and errors)",
		}, []string{"auditor"}),
		SimilarityClamped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attribune_match_similarity_clamped_total",
			Help: "Total number of candidate similarities clamped into [0,1]",
		}),
		MatchFanoutDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attribune_match_fanout_duration_seconds",
			Help:    "Duration of the concurrent auditor fan-out",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FusionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attribune_fusion_duration_seconds",
			Help:    "Duration of fusion over collected backend results",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		FusionDiscounted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attribune_fusion_discounted_total",
			Help: "Total number of fusions run with the reduced-evidence confidence discount",
		}),
		ClaimsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attribune_claims_created_total",
			Help: "Total number of claims created",
		}),
		ClaimsAutoRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attribune_claims_auto_rejected_total",
			Help: "Total number of claims auto-rejected for all-residual decompositions",
		}),
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attribune_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		RoyaltiesSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attribune_royalties_settled_total",
			Help: "Total number of royalty events settled",
		}),
		LedgerPublishFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attribune_ledger_publish_failures_total",
			Help: "Total number of ledger entries that failed to publish",
		}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attribune_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
	}
}

// ObserveMatchFanout records the duration of one auditor fan-out.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveMatchFanout(start time.Time) {
	m.MatchFanoutDuration.Observe(time.Since(start).Seconds())
}

// ObserveFusion records the duration of one fusion run.
func (m *Metrics) ObserveFusion(start time.Time) {
	m.FusionDuration.Observe(time.Since(start).Seconds())
}

// IncrementBackendFailure records a failed backend query.
func (m *Metrics) IncrementBackendFailure(auditorID string) {
	m.BackendFailures.WithLabelValues(auditorID).Inc()
}
