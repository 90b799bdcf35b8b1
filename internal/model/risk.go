package model

import "time"

// RiskLevel classifies whether a balance covers an obligation.
type RiskLevel string

// Risk levels. Classification is by threshold, not by ranking.
const (
	RiskSafe     RiskLevel = "safe"
	RiskWarning  RiskLevel = "warning"
	RiskCritical RiskLevel = "critical"
)

// CashFlowProjection is the simulated state after one cash event.
type CashFlowProjection struct {
	Date            time.Time `json:"date"`
	RiskLevel       RiskLevel `json:"risk_level"`
	ExpectedInflow  float64   `json:"expected_inflow"`
	ExpectedOutflow float64   `json:"expected_outflow"`
	NetFlow         float64   `json:"net_flow"`
	RunningBalance  float64   `json:"running_balance"`
}

// RiskAssessment is the result of assessing one company at one point in time.
// It is a value: a fresh one is produced by every assessment.
type RiskAssessment struct {
	AssessmentDate    time.Time            `json:"assessment_date"`
	NextPayrollDate   *time.Time           `json:"next_payroll_date,omitempty"`
	NextPayrollAmount *float64             `json:"next_payroll_amount,omitempty"`
	ID                string               `json:"id,omitempty"`
	CompanyID         string               `json:"company_id"`
	RiskLevel         RiskLevel            `json:"risk_level"`
	Recommendations   []string             `json:"recommendations"`
	Projections       []CashFlowProjection `json:"projections"`
	CurrentBalance    float64              `json:"current_balance"`
	RequiredFloat     float64              `json:"required_float"`
	DaysUntilRisk     int                  `json:"days_until_risk"`
}

// AssessmentRecord is a persisted mirror of an assessment.
type AssessmentRecord struct {
	Assessment RiskAssessment `json:"assessment"`
	Summary    string         `json:"summary"`
	RiskScore  int            `json:"risk_score"`
}
