package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/risk"
	"github.com/Veraticus/payroll-sentinel/internal/testutil"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type balanceFunc func(ctx context.Context, companyID string) (model.Balance, error)

func (f balanceFunc) GetCurrentBalance(ctx context.Context, companyID string) (model.Balance, error) {
	return f(ctx, companyID)
}

type payrollFunc func(ctx context.Context, companyID string, monthsAhead int) ([]model.PayrollObligation, error)

func (f payrollFunc) GetUpcomingPayrollObligations(ctx context.Context, companyID string, monthsAhead int) ([]model.PayrollObligation, error) {
	return f(ctx, companyID, monthsAhead)
}

type fakeRecorder struct {
	levels []model.RiskLevel
	failed int
	mu     sync.Mutex
}

func (r *fakeRecorder) ObserveAssessment(_ string, level model.RiskLevel, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, level)
}

func (r *fakeRecorder) AssessmentFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

// balances maps company id to cash on hand; unknown companies fail.
func balances(amounts map[string]float64) balanceFunc {
	return func(_ context.Context, companyID string) (model.Balance, error) {
		amount, ok := amounts[companyID]
		if !ok {
			return model.Balance{}, common.ErrProviderUnavailable
		}
		return model.Balance{Amount: amount, AsOf: now, Accounts: 1}, nil
	}
}

// payrollInTwoDays returns a single 10,000 payroll two days out for everyone.
func payrollInTwoDays() payrollFunc {
	return func(_ context.Context, _ string, monthsAhead int) ([]model.PayrollObligation, error) {
		if monthsAhead != 3 {
			return nil, errors.New("unexpected horizon")
		}
		return []model.PayrollObligation{{Date: now.AddDate(0, 0, 2), Amount: 10000, EmployeeCount: 12}}, nil
	}
}

type fixture struct {
	db       *testutil.TestDB
	notifier *alert.MockNotifier
	recorder *fakeRecorder
	monitor  *Monitor
}

func newFixture(t *testing.T, b balanceFunc, p payrollFunc, opts Options) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	notifier := alert.NewMockNotifier()
	recorder := &fakeRecorder{}
	clock := func() time.Time { return now }

	dispatcher := alert.NewDispatcher(db.Storage, notifier, alert.DefaultPolicy(), alert.WithDispatchClock(clock))
	assessor := risk.NewAssessor(risk.WithClock(clock))

	return &fixture{
		db:       db,
		notifier: notifier,
		recorder: recorder,
		monitor:  New(b, p, db.Storage, assessor, dispatcher, recorder, opts),
	}
}

func TestCheckCompany_CriticalSendsAlertsAndPersists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, payrollInTwoDays(), DefaultOptions())
	acme := f.db.MustCreateCompany("Acme")
	f.monitor.balances = balances(map[string]float64{acme.ID: 5000})

	res, err := f.monitor.CheckCompany(ctx, acme.ID)
	require.NoError(t, err)

	assert.Equal(t, model.RiskCritical, res.Assessment.RiskLevel)
	assert.Equal(t, 2, res.Assessment.DaysUntilRisk)
	assert.NotEmpty(t, res.Assessment.ID)
	assert.Contains(t, res.Summary, "CRITICAL")
	require.NotEmpty(t, res.Dispatch.Sent)
	assert.Len(t, f.notifier.Calls(), len(res.Dispatch.Sent))

	latest, err := f.db.Storage.GetLatestAssessment(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Assessment.ID, latest.Assessment.ID)
	assert.Equal(t, res.Score, latest.RiskScore)

	history, err := f.db.Storage.ListAlerts(ctx, acme.ID, 10)
	require.NoError(t, err)
	assert.Len(t, history, len(res.Dispatch.Sent))

	assert.Equal(t, []model.RiskLevel{model.RiskCritical}, f.recorder.levels)
}

func TestCheckCompany_RepeatWithinCooldownIsSuppressed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, payrollInTwoDays(), DefaultOptions())
	acme := f.db.MustCreateCompany("Acme")
	f.monitor.balances = balances(map[string]float64{acme.ID: 5000})

	_, err := f.monitor.CheckCompany(ctx, acme.ID)
	require.NoError(t, err)
	sent := len(f.notifier.Calls())

	res, err := f.monitor.CheckCompany(ctx, acme.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Dispatch.Sent)
	assert.Positive(t, res.Dispatch.Suppressed[alert.SuppressedCooldown])
	assert.Len(t, f.notifier.Calls(), sent)
}

func TestCheckCompany_SafeSendsNothing(t *testing.T) {
	f := newFixture(t, nil, payrollInTwoDays(), DefaultOptions())
	acme := f.db.MustCreateCompany("Acme")
	f.monitor.balances = balances(map[string]float64{acme.ID: 50000})

	res, err := f.monitor.CheckCompany(context.Background(), acme.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RiskSafe, res.Assessment.RiskLevel)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, f.notifier.Calls())
}

func TestCheckCompany_ProviderErrorPropagates(t *testing.T) {
	f := newFixture(t, balances(nil), payrollInTwoDays(), DefaultOptions())
	acme := f.db.MustCreateCompany("Acme")

	_, err := f.monitor.CheckCompany(context.Background(), acme.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "failed to get balance")
	assert.Equal(t, 1, f.recorder.failed)

	_, err = f.db.Storage.GetLatestAssessment(context.Background(), acme.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCheckCompany_NegativePayrollIsRejected(t *testing.T) {
	negative := payrollFunc(func(context.Context, string, int) ([]model.PayrollObligation, error) {
		return []model.PayrollObligation{{Date: now.AddDate(0, 0, 5), Amount: -100}}, nil
	})
	f := newFixture(t, nil, negative, DefaultOptions())
	acme := f.db.MustCreateCompany("Acme")
	f.monitor.balances = balances(map[string]float64{acme.ID: 5000})

	_, err := f.monitor.CheckCompany(context.Background(), acme.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrNegativeAmount)
	assert.Contains(t, err.Error(), "failed to assess")
	assert.Empty(t, f.notifier.Calls())
}

func TestCheckCompany_DryRun(t *testing.T) {
	opts := DefaultOptions()
	opts.DryRun = true
	f := newFixture(t, nil, payrollInTwoDays(), opts)
	acme := f.db.MustCreateCompany("Acme")
	f.monitor.balances = balances(map[string]float64{acme.ID: 5000})

	res, err := f.monitor.CheckCompany(context.Background(), acme.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Candidates)
	assert.Empty(t, res.Dispatch.Sent)
	assert.Empty(t, f.notifier.Calls())

	_, err = f.db.Storage.GetLatestAssessment(context.Background(), acme.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCheckAll_OneFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(t, nil, payrollInTwoDays(), Options{MonthsAhead: 3, Concurrency: 2})
	acme := f.db.MustCreateCompany("Acme")
	globex := f.db.MustCreateCompany("Globex")
	initech := f.db.MustCreateCompany("Initech")
	paused := f.db.MustCreateCompany("Paused")
	require.NoError(t, f.db.Storage.SetCompanyActive(context.Background(), paused.ID, false))

	f.monitor.balances = balances(map[string]float64{
		acme.ID:   5000,
		globex.ID: 50000,
		paused.ID: 1,
	})

	var progressed []string
	summary, err := f.monitor.CheckAll(context.Background(), func(r Result) {
		progressed = append(progressed, r.CompanyID)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)

	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 1, summary.Failed)
	assert.Positive(t, summary.AlertsSent)
	assert.ElementsMatch(t, []string{acme.ID, globex.ID, initech.ID}, progressed)

	for _, r := range summary.Results {
		if r.CompanyID == initech.ID {
			assert.Error(t, r.Err)
			assert.Nil(t, r.Assessment)
		} else {
			assert.NoError(t, r.Err)
		}
	}
}

func TestCheckAll_NoCompanies(t *testing.T) {
	f := newFixture(t, balances(nil), payrollInTwoDays(), DefaultOptions())

	summary, err := f.monitor.CheckAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, summary.Checked)
	assert.Empty(t, summary.Results)
}

func TestCheckCompany_CandidatesCarryAssessmentTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, payrollInTwoDays(), Options{MonthsAhead: 3, Concurrency: 1, DryRun: true})
	acme := f.db.MustCreateCompany("Acme")
	f.monitor.balances = balances(map[string]float64{acme.ID: 5000})

	tick := now
	f.monitor.assessor = risk.NewAssessor(risk.WithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}))

	res, err := f.monitor.CheckCompany(ctx, acme.ID)
	require.NoError(t, err)
	require.NotEmpty(t, res.Candidates)
	for _, c := range res.Candidates {
		assert.Equal(t, res.Assessment.AssessmentDate, c.Timestamp)
	}
}
