package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementTransition("phone", "advanced")
		m.ObserveRemoteLatency("phone_uniqueness", time.Millisecond)
		m.IncrementUpload("janAadhaar", "ok")
		m.IncrementSubmission("direct", "success")
		m.ObserveSubmitLatency(time.Second)
		m.IncrementReconciled("state")
		m.SetActiveSessions(3)
	})
}

func TestCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementTransition("phone", "advanced")
	m.IncrementTransition("phone", "advanced")
	m.IncrementSubmission("payment", "handoff")
	m.SetActiveSessions(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepTransitions.WithLabelValues("phone", "advanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("payment", "handoff")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveSessions))
}
