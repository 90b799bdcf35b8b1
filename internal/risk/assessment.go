package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

var (
	criticalRecommendations = []string{
		"URGENT: Transfer funds to the payroll account immediately",
		"Contact your bank about a short-term credit line or overdraft protection",
		"Delay non-essential payments until payroll is covered",
		"Accelerate collection of outstanding receivables",
	}

	warningRecommendations = []string{
		"Monitor cash flow closely until the next payroll run",
		"Consider transferring additional funds to the payroll account",
		"Review upcoming expenses and defer what you can",
		"Follow up on outstanding invoices",
	}

	safeRecommendations = []string{
		"Cash position is healthy for upcoming payroll",
		"Continue monitoring balances regularly",
	}
)

// Option configures an Assessor.
type Option func(*Assessor)

// WithSafetyMultiplier overrides DefaultSafetyMultiplier.
func WithSafetyMultiplier(m float64) Option {
	return func(a *Assessor) {
		a.multiplier = m
	}
}

// WithClock sets the source of "now" used for daysUntilRisk and the assessment date.
func WithClock(clock func() time.Time) Option {
	return func(a *Assessor) {
		a.clock = clock
	}
}

// Assessor turns a balance and payroll obligations into a RiskAssessment.
type Assessor struct {
	clock      func() time.Time
	multiplier float64
}

// NewAssessor creates an Assessor with the default multiplier and the wall clock.
func NewAssessor(opts ...Option) *Assessor {
	a := &Assessor{
		clock:      time.Now,
		multiplier: DefaultSafetyMultiplier,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Multiplier returns the safety multiplier in use.
func (a *Assessor) Multiplier() float64 {
	return a.multiplier
}

// Now returns the assessor's current time.
func (a *Assessor) Now() time.Time {
	return a.clock()
}

// Assess computes a RiskAssessment.
//
// obligations must already be sorted by date; the first one is treated as the
// next payroll. An empty obligation list yields a safe assessment with a zero
// required float rather than an error.
func (a *Assessor) Assess(companyID string, currentBalance float64, obligations []model.PayrollObligation, inflows []model.CashInflow) (*model.RiskAssessment, error) {
	now := a.clock()

	assessment := &model.RiskAssessment{
		CompanyID:      companyID,
		CurrentBalance: currentBalance,
		AssessmentDate: now,
	}

	if len(obligations) > 0 {
		next := obligations[0]
		required, err := CalculateRequiredFloat(next.Amount, a.multiplier)
		if err != nil {
			return nil, fmt.Errorf("next payroll: %w", err)
		}

		nextDate := next.Date
		nextAmount := next.Amount
		assessment.RequiredFloat = required
		assessment.NextPayrollDate = &nextDate
		assessment.NextPayrollAmount = &nextAmount
		assessment.DaysUntilRisk = int(math.Ceil(next.Date.Sub(now).Hours() / 24))
	}

	assessment.RiskLevel = DetermineRiskLevel(currentBalance, assessment.RequiredFloat)

	projections, err := generateProjections(currentBalance, obligations, inflows, a.multiplier)
	if err != nil {
		return nil, fmt.Errorf("projections: %w", err)
	}
	assessment.Projections = projections
	assessment.Recommendations = recommendations(assessment.RiskLevel, projections)

	return assessment, nil
}

// PerformRiskAssessment assesses with the default multiplier and the wall clock.
func PerformRiskAssessment(companyID string, currentBalance float64, obligations []model.PayrollObligation, inflows []model.CashInflow) (*model.RiskAssessment, error) {
	return NewAssessor().Assess(companyID, currentBalance, obligations, inflows)
}

func recommendations(level model.RiskLevel, projections []model.CashFlowProjection) []string {
	var base []string
	switch level {
	case model.RiskCritical:
		base = criticalRecommendations
	case model.RiskWarning:
		base = warningRecommendations
	default:
		base = safeRecommendations
	}

	recs := make([]string, len(base), len(base)+2)
	copy(recs, base)

	var atRisk, critical int
	for _, p := range projections {
		if p.RiskLevel == model.RiskSafe {
			continue
		}
		atRisk++
		if p.RiskLevel == model.RiskCritical {
			critical++
		}
	}

	if atRisk > 0 {
		recs = append(recs, fmt.Sprintf("%d upcoming payroll period(s) show elevated risk", atRisk))
		if critical > 0 {
			recs = append(recs, "Arrange additional funding before the critical payroll dates")
		}
	}

	return recs
}
