package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration wizard.
type Metrics struct {
	// Forward transitions by source step and outcome
	StepTransitions *prometheus.CounterVec

	// Remote existence checks and uploads by operation
	RemoteLatency *prometheus.HistogramVec

	// Uploads by field and outcome
	Uploads *prometheus.CounterVec

	// Final submissions by mode ("direct", "payment") and outcome
	Submissions *prometheus.CounterVec

	SubmitLatency prometheus.Histogram

	// Codes backfilled by reconciliation, by level
	Reconciled *prometheus.CounterVec

	ActiveSessions prometheus.Gauge
}

// New registers the wizard metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the wizard metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membership_registration_step_transitions_total",
			Help: "Forward step transitions by source step and outcome",
		}, []string{"step", "outcome"}), // outcome: "advanced", "invalid", "rejected", "unavailable", "stale"

		RemoteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "membership_registration_remote_duration_seconds",
			Help:    "Duration of collaborator calls made by the wizard",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membership_registration_uploads_total",
			Help: "File uploads by field and outcome",
		}, []string{"field", "outcome"}),

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membership_registration_submissions_total",
			Help: "Final submissions by mode and outcome",
		}, []string{"mode", "outcome"}),

		SubmitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "membership_registration_submit_duration_seconds",
			Help:    "Duration of a submission including uploads",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		Reconciled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "membership_registration_reconciled_codes_total",
			Help: "Reference codes backfilled from stored names",
		}, []string{"level"}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "membership_registration_active_sessions",
			Help: "Wizard sessions held in memory",
		}),
	}
}

func (m *Metrics) IncrementTransition(step, outcome string) {
	if m != nil {
		m.StepTransitions.WithLabelValues(step, outcome).Inc()
	}
}

func (m *Metrics) ObserveRemoteLatency(operation string, d time.Duration) {
	if m != nil {
		m.RemoteLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementUpload(field, outcome string) {
	if m != nil {
		m.Uploads.WithLabelValues(field, outcome).Inc()
	}
}

func (m *Metrics) IncrementSubmission(mode, outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(mode, outcome).Inc()
	}
}

func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementReconciled(level string) {
	if m != nil {
		m.Reconciled.WithLabelValues(level).Inc()
	}
}

func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}
