package risk

import (
	"fmt"

	"github.com/Veraticus/payroll-sentinel/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	baseScoreCritical = 70
	baseScoreWarning  = 40
	baseScoreSafe     = 10

	projectionPointsEach = 2
	projectionPointsCap  = 10
)

// CalculateRiskScore scores an assessment on [0,100]: a base by risk level, an
// urgency bonus by days until the next payroll, and up to 10 points for
// non-safe future projections. The parts are summed before clamping.
func CalculateRiskScore(a *model.RiskAssessment) int {
	if a == nil {
		return 0
	}

	score := 0
	switch a.RiskLevel {
	case model.RiskCritical:
		score = baseScoreCritical
	case model.RiskWarning:
		score = baseScoreWarning
	default:
		score = baseScoreSafe
	}

	switch {
	case a.DaysUntilRisk <= 1:
		score += 20
	case a.DaysUntilRisk <= 3:
		score += 10
	case a.DaysUntilRisk <= 7:
		score += 5
	}

	risky := 0
	for _, p := range a.Projections {
		if p.RiskLevel != model.RiskSafe && p.Date.After(a.AssessmentDate) {
			risky++
		}
	}
	score += min(risky*projectionPointsEach, projectionPointsCap)

	return max(0, min(100, score))
}

// GenerateRiskSummary renders a one-sentence summary of the assessment.
func GenerateRiskSummary(a *model.RiskAssessment) string {
	if a == nil {
		return ""
	}

	balance := FormatCurrency(a.CurrentBalance)
	switch a.RiskLevel {
	case model.RiskCritical:
		return fmt.Sprintf("CRITICAL: Current balance of %s is insufficient to cover upcoming payroll. Immediate action required.", balance)
	case model.RiskWarning:
		return fmt.Sprintf("WARNING: Current balance of %s provides limited coverage for upcoming payroll. Monitor closely.", balance)
	default:
		return fmt.Sprintf("SAFE: Current balance of %s is sufficient to cover upcoming payroll obligations.", balance)
	}
}

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders an amount as US dollars with thousands separators.
func FormatCurrency(amount float64) string {
	if amount < 0 {
		return "-" + currencyPrinter.Sprintf("$%.2f", -amount)
	}
	return currencyPrinter.Sprintf("$%.2f", amount)
}
