package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/model"
)

func TestMetrics_Assessments(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveAssessment("acme", model.RiskCritical, 85, 120*time.Millisecond)
	m.ObserveAssessment("acme", model.RiskSafe, 10, 80*time.Millisecond)
	m.ObserveAssessment("globex", model.RiskSafe, 5, 40*time.Millisecond)
	m.AssessmentFailed()

	assert.InDelta(t, 1, testutil.ToFloat64(m.assessments.WithLabelValues("critical")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.assessments.WithLabelValues("safe")), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.riskScore.WithLabelValues("acme")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.assessmentErrors), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.assessmentDuration))
}

func TestMetrics_AlertObserver(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.AlertSent(model.AlertCriticalRisk)
	m.AlertSent(model.AlertCriticalRisk)
	m.AlertFailed(model.AlertLowBalance)
	m.AlertsSuppressed(alert.SuppressedCooldown, 3)
	m.AlertsSuppressed(alert.SuppressedCooldown, 1)

	assert.InDelta(t, 2, testutil.ToFloat64(m.alertsDispatched.WithLabelValues("critical_risk")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.alertSendFailures.WithLabelValues("low_balance")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.alertsSuppressed.WithLabelValues(string(alert.SuppressedCooldown))), 0)
}

func TestMetrics_RegistersUnderNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.AlertSent(model.AlertLowBalance)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "payroll_sentinel_alerts_dispatched_total")
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
