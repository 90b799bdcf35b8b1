package risk

import (
	"errors"
	"fmt"

	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultSafetyMultiplier is the float kept above a payroll amount.
const DefaultSafetyMultiplier = 1.1

// warningRatio is the share of the required float below which risk is critical.
const warningRatio = 0.8

// Validation errors.
var (
	ErrNegativeAmount    = errors.New("payroll amount cannot be negative")
	ErrInvalidMultiplier = errors.New("safety multiplier must be positive")
)

// CalculateRequiredFloat returns payrollAmount x safetyMultiplier rounded to cents.
func CalculateRequiredFloat(payrollAmount, safetyMultiplier float64) (float64, error) {
	if payrollAmount < 0 {
		return 0, fmt.Errorf("%w: %.2f", ErrNegativeAmount, payrollAmount)
	}
	if safetyMultiplier <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMultiplier, safetyMultiplier)
	}

	required := decimal.NewFromFloat(payrollAmount).
		Mul(decimal.NewFromFloat(safetyMultiplier)).
		Round(2)

	return required.InexactFloat64(), nil
}

// DetermineRiskLevel tiers a balance against the float it must cover.
func DetermineRiskLevel(currentBalance, requiredFloat float64) model.RiskLevel {
	switch {
	case requiredFloat == 0:
		return model.RiskSafe
	case currentBalance >= requiredFloat:
		return model.RiskSafe
	case currentBalance >= warningRatio*requiredFloat:
		return model.RiskWarning
	default:
		return model.RiskCritical
	}
}
