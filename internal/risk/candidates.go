package risk

import (
	"fmt"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/google/uuid"
)

const (
	// upcomingPayrollWindow is how close a non-safe payroll must be to raise upcoming_payroll.
	upcomingPayrollWindow = 3
	// projectionNotifyScore is the minimum score at which projection warnings notify.
	projectionNotifyScore = 50
)

// BuildAlertCandidates derives the alerts an assessment could raise. Whether any of
// them is actually sent is decided later by the alert filter.
func BuildAlertCandidates(a *model.RiskAssessment, now time.Time) []model.AlertTrigger {
	if a == nil {
		return nil
	}

	score := CalculateRiskScore(a)
	summary := GenerateRiskSummary(a)

	newTrigger := func(t model.AlertType, sev model.Severity, msg string, notify bool) model.AlertTrigger {
		return model.AlertTrigger{
			ID:           uuid.NewString(),
			CompanyID:    a.CompanyID,
			AlertType:    t,
			Severity:     sev,
			Message:      msg,
			RiskScore:    score,
			Timestamp:    now,
			ShouldNotify: notify,
		}
	}

	var triggers []model.AlertTrigger

	switch a.RiskLevel {
	case model.RiskCritical:
		triggers = append(triggers, newTrigger(model.AlertCriticalRisk, model.SeverityCritical, summary, true))
	case model.RiskWarning:
		triggers = append(triggers, newTrigger(model.AlertLowBalance, model.SeverityWarning, summary, true))
	}

	if a.RiskLevel != model.RiskSafe && a.NextPayrollDate != nil && a.DaysUntilRisk <= upcomingPayrollWindow {
		amount := 0.0
		if a.NextPayrollAmount != nil {
			amount = *a.NextPayrollAmount
		}
		msg := fmt.Sprintf("Payroll of %s is due in %d day(s) on %s and is not fully covered (required float %s).",
			FormatCurrency(amount), a.DaysUntilRisk, a.NextPayrollDate.Format("2006-01-02"), FormatCurrency(a.RequiredFloat))
		sev := model.SeverityWarning
		if a.RiskLevel == model.RiskCritical {
			sev = model.SeverityCritical
		}
		triggers = append(triggers, newTrigger(model.AlertUpcomingPayroll, sev, msg, true))
	}

	risky := 0
	var firstRisky *model.CashFlowProjection
	for i := range a.Projections {
		if a.Projections[i].RiskLevel != model.RiskSafe {
			if firstRisky == nil {
				firstRisky = &a.Projections[i]
			}
			risky++
		}
	}
	if risky > 0 {
		msg := fmt.Sprintf("%d projected payroll event(s) fall below the safety float; first on %s with a running balance of %s.",
			risky, firstRisky.Date.Format("2006-01-02"), FormatCurrency(firstRisky.RunningBalance))
		triggers = append(triggers, newTrigger(model.AlertProjectionWarning, model.SeverityInfo, msg, score >= projectionNotifyScore))
	}

	return triggers
}
