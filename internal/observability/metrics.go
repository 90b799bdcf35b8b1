// Package observability exposes Prometheus metrics for assessments and alerts.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/model"
)

const namespace = "payroll_sentinel"

// Metrics records assessment and alert outcomes. It implements alert.Observer.
type Metrics struct {
	assessments        *prometheus.CounterVec
	assessmentErrors   prometheus.Counter
	assessmentDuration prometheus.Histogram
	riskScore          *prometheus.GaugeVec
	alertsDispatched   *prometheus.CounterVec
	alertsSuppressed   *prometheus.CounterVec
	alertSendFailures  *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		assessments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Completed risk assessments by risk level",
		}, []string{"risk_level"}),
		assessmentErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_errors_total",
			Help:      "Company checks that failed before an assessment was produced",
		}),
		assessmentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "Time to check one company, including provider calls and dispatch",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		riskScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Most recent risk score per company",
		}, []string{"company_id"}),
		alertsDispatched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "dispatched_total",
			Help:      "Alerts delivered to a notification channel",
		}, []string{"type"}),
		alertsSuppressed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "suppressed_total",
			Help:      "Alert candidates dropped by the filter",
		}, []string{"reason"}),
		alertSendFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "send_failures_total",
			Help:      "Approved alerts the notification channel did not deliver",
		}, []string{"type"}),
	}
}

// ObserveAssessment records a completed assessment.
func (m *Metrics) ObserveAssessment(companyID string, level model.RiskLevel, score int, took time.Duration) {
	m.assessments.WithLabelValues(string(level)).Inc()
	m.assessmentDuration.Observe(took.Seconds())
	m.riskScore.WithLabelValues(companyID).Set(float64(score))
}

// AssessmentFailed records a check that produced no assessment.
func (m *Metrics) AssessmentFailed() {
	m.assessmentErrors.Inc()
}

// AlertSent implements alert.Observer.
func (m *Metrics) AlertSent(t model.AlertType) {
	m.alertsDispatched.WithLabelValues(string(t)).Inc()
}

// AlertFailed implements alert.Observer.
func (m *Metrics) AlertFailed(t model.AlertType) {
	m.alertSendFailures.WithLabelValues(string(t)).Inc()
}

// AlertsSuppressed implements alert.Observer.
func (m *Metrics) AlertsSuppressed(reason alert.SuppressReason, count int) {
	m.alertsSuppressed.WithLabelValues(string(reason)).Add(float64(count))
}

var _ alert.Observer = (*Metrics)(nil)
