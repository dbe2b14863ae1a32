package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the certification engine: process
// throughput per stage, allocator outcomes, issuance and expiry sweeps.
type Metrics struct {
	ProcessesStarted    prometheus.Counter
	StageTransitions    *prometheus.CounterVec
	AllocatorAssigned   prometheus.Counter
	AllocatorExhausted  prometheus.Counter
	EvaluationsSubmitted *prometheus.CounterVec
	CertificatesIssued  prometheus.Counter
	CertificatesExpired prometheus.Counter
	VerifyDuration      prometheus.Histogram
	SweepDuration       prometheus.Histogram
}

// New registers all engine metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ProcessesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certo_processes_started_total",
			Help: "Total certification processes opened (registrations and renewals)",
		}),
		StageTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certo_stage_transitions_total",
			Help: "Total stage transitions by target stage",
		}, []string{"stage"}),
		AllocatorAssigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certo_allocator_assignments_total",
			Help: "Total successful evaluator assignments",
		}),
		AllocatorExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certo_allocator_exhausted_total",
			Help: "Total assignment attempts that found no eligible evaluator",
		}),
		EvaluationsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certo_evaluations_submitted_total",
			Help: "Total finalized evaluations by result",
		}, []string{"result"}),
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certo_certificates_issued_total",
			Help: "Total certificates issued",
		}),
		CertificatesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certo_certificates_expired_total",
			Help: "Total certificates flipped to expired by the sweep",
		}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certo_verify_duration_seconds",
			Help:    "Duration of public certificate verification lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certo_sweep_duration_seconds",
			Help:    "Duration of expiry sweep runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		}),
	}
}

// ObserveVerify records the duration of one verification lookup.
func (m *Metrics) ObserveVerify(start time.Time) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}

// ObserveSweep records the duration of one sweep run.
func (m *Metrics) ObserveSweep(start time.Time) {
	m.SweepDuration.Observe(time.Since(start).Seconds())
}
