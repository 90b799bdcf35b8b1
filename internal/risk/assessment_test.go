package risk

import (
	"testing"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestAssessor() *Assessor {
	return NewAssessor(WithClock(fixedClock(baseDate)))
}

func TestAssess_Scenarios(t *testing.T) {
	obligations := []model.PayrollObligation{
		{Amount: 51000, Date: day(10), EmployeeCount: 12},
	}

	tests := []struct {
		name    string
		balance float64
		want    model.RiskLevel
	}{
		{name: "healthy balance is safe", balance: 200000, want: model.RiskSafe},
		{name: "below 80 percent is critical", balance: 40000, want: model.RiskCritical},
		{name: "between 80 and 100 percent is warning", balance: 50000, want: model.RiskWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := newTestAssessor().Assess("acme", tt.balance, obligations, nil)
			require.NoError(t, err)

			assert.Equal(t, "acme", a.CompanyID)
			assert.InDelta(t, 56100, a.RequiredFloat, 1e-9)
			assert.Equal(t, tt.want, a.RiskLevel)
			assert.Equal(t, 10, a.DaysUntilRisk)
			require.NotNil(t, a.NextPayrollDate)
			assert.Equal(t, day(10), *a.NextPayrollDate)
			require.NotNil(t, a.NextPayrollAmount)
			assert.InDelta(t, 51000, *a.NextPayrollAmount, 1e-9)
			assert.Equal(t, baseDate, a.AssessmentDate)
			assert.Len(t, a.Projections, 1)
		})
	}
}

func TestAssess_SafeScenarioScore(t *testing.T) {
	a, err := newTestAssessor().Assess("acme", 200000, []model.PayrollObligation{{Amount: 51000, Date: day(10)}}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.RiskSafe, a.RiskLevel)
	assert.Equal(t, 10, CalculateRiskScore(a))
}

func TestAssess_NoObligationsIsPermissive(t *testing.T) {
	a, err := newTestAssessor().Assess("acme", 1500, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, model.RiskSafe, a.RiskLevel)
	assert.Zero(t, a.RequiredFloat)
	assert.Zero(t, a.DaysUntilRisk)
	assert.Nil(t, a.NextPayrollDate)
	assert.Nil(t, a.NextPayrollAmount)
	assert.Empty(t, a.Projections)
	assert.Equal(t, safeRecommendations, a.Recommendations)
}

func TestAssess_UsesFirstObligationWithoutSorting(t *testing.T) {
	obligations := []model.PayrollObligation{
		{Amount: 10000, Date: day(20)},
		{Amount: 90000, Date: day(5)},
	}

	a, err := newTestAssessor().Assess("acme", 50000, obligations, nil)
	require.NoError(t, err)

	assert.InDelta(t, 11000, a.RequiredFloat, 1e-9)
	assert.Equal(t, 20, a.DaysUntilRisk)
	assert.Equal(t, model.RiskSafe, a.RiskLevel)
}

func TestAssess_DaysUntilRiskRoundsUpAndMayBeNegative(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{name: "half a day ahead", date: baseDate.Add(12 * time.Hour), want: 1},
		{name: "just over two days ahead", date: baseDate.Add(49 * time.Hour), want: 3},
		{name: "same instant", date: baseDate, want: 0},
		{name: "past due by a day and a half", date: baseDate.Add(-36 * time.Hour), want: -1},
		{name: "past due by three days", date: baseDate.AddDate(0, 0, -3), want: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := newTestAssessor().Assess("acme", 1e6, []model.PayrollObligation{{Amount: 100, Date: tt.date}}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.DaysUntilRisk)
		})
	}
}

func TestAssess_Recommendations(t *testing.T) {
	t.Run("critical with critical projections", func(t *testing.T) {
		obligations := []model.PayrollObligation{
			{Amount: 51000, Date: day(3)},
			{Amount: 51000, Date: day(17)},
		}
		a, err := newTestAssessor().Assess("acme", 40000, obligations, nil)
		require.NoError(t, err)

		require.Len(t, a.Recommendations, 6)
		assert.Equal(t, criticalRecommendations, a.Recommendations[:4])
		assert.Equal(t, "2 upcoming payroll period(s) show elevated risk", a.Recommendations[4])
		assert.Equal(t, "Arrange additional funding before the critical payroll dates", a.Recommendations[5])
	})

	t.Run("warning level with a critical projection", func(t *testing.T) {
		// Nothing remains after the payroll, so the projection is critical.
		a, err := newTestAssessor().Assess("acme", 90000, []model.PayrollObligation{{Amount: 90000, Date: day(3)}}, nil)
		require.NoError(t, err)
		assert.Equal(t, model.RiskWarning, a.RiskLevel)
		assert.Equal(t, model.RiskCritical, a.Projections[0].RiskLevel)
		require.Len(t, a.Recommendations, 6)
		assert.Equal(t, warningRecommendations, a.Recommendations[:4])
	})

	t.Run("safe level with a warning projection", func(t *testing.T) {
		// 45000 remains after the second run against a 49500 float.
		obligations := []model.PayrollObligation{
			{Amount: 30000, Date: day(3)},
			{Amount: 45000, Date: day(9)},
		}
		a, err := newTestAssessor().Assess("acme", 120000, obligations, nil)
		require.NoError(t, err)
		assert.Equal(t, model.RiskSafe, a.RiskLevel)
		assert.Equal(t, model.RiskWarning, a.Projections[1].RiskLevel)
		require.Len(t, a.Recommendations, 3)
		assert.Equal(t, safeRecommendations, a.Recommendations[:2])
		assert.Equal(t, "1 upcoming payroll period(s) show elevated risk", a.Recommendations[2])
	})

	t.Run("rule table is not aliased", func(t *testing.T) {
		a, err := newTestAssessor().Assess("acme", 1, nil, nil)
		require.NoError(t, err)
		a.Recommendations[0] = "mutated"
		assert.NotEqual(t, "mutated", safeRecommendations[0])
	})
}

func TestAssess_Idempotent(t *testing.T) {
	obligations := []model.PayrollObligation{
		{Amount: 51000, Date: day(3)},
		{Amount: 48000, Date: day(17)},
	}
	inflows := []model.CashInflow{{Amount: 20000, Date: day(10), Confidence: 0.8}}

	first, err := newTestAssessor().Assess("acme", 60000, obligations, inflows)
	require.NoError(t, err)
	second, err := newTestAssessor().Assess("acme", 60000, obligations, inflows)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssess_CustomMultiplier(t *testing.T) {
	a, err := NewAssessor(WithClock(fixedClock(baseDate)), WithSafetyMultiplier(1.5)).
		Assess("acme", 100000, []model.PayrollObligation{{Amount: 70000, Date: day(5)}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 105000, a.RequiredFloat, 1e-9)
	assert.Equal(t, model.RiskWarning, a.RiskLevel)
}

func TestAssess_NegativeNextPayroll(t *testing.T) {
	_, err := newTestAssessor().Assess("acme", 100, []model.PayrollObligation{{Amount: -1, Date: day(1)}}, nil)
	require.ErrorIs(t, err, ErrNegativeAmount)
}
