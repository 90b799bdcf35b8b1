// Package monitor runs end-to-end payroll checks: fetch the balance and
// upcoming payroll, assess the risk, persist the assessment and dispatch alerts.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/risk"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

// Store is the slice of storage the monitor needs.
type Store interface {
	ListCompanies(ctx context.Context, activeOnly bool) ([]model.Company, error)
	SaveAssessment(ctx context.Context, record *model.AssessmentRecord) error
}

// Recorder receives assessment outcomes. observability.Metrics implements it.
type Recorder interface {
	ObserveAssessment(companyID string, level model.RiskLevel, score int, took time.Duration)
	AssessmentFailed()
}

// Options configures a Monitor.
type Options struct {
	MonthsAhead int // Horizon for upcoming payroll obligations
	Concurrency int // Companies checked in parallel by CheckAll
	DryRun      bool
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MonthsAhead: 3,
		Concurrency: 4,
	}
}

// Result is the outcome of checking one company.
type Result struct {
	Err        error
	Assessment *model.RiskAssessment
	CompanyID  string
	Summary    string
	Candidates []model.AlertTrigger
	Dispatch   alert.DispatchResult
	Score      int
	Duration   time.Duration
}

// Summary aggregates a CheckAll run.
type Summary struct {
	Results    []Result
	Checked    int
	Failed     int
	AlertsSent int
	Duration   time.Duration
}

// Monitor wires providers, the assessor and the alert dispatcher together.
type Monitor struct {
	balances   service.BalanceProvider
	payroll    service.PayrollProvider
	store      Store
	assessor   *risk.Assessor
	dispatcher *alert.Dispatcher
	recorder   Recorder
	logger     *slog.Logger
	opts       Options
}

// New creates a Monitor. recorder may be nil.
func New(balances service.BalanceProvider, payroll service.PayrollProvider, store Store,
	assessor *risk.Assessor, dispatcher *alert.Dispatcher, recorder Recorder, opts Options) *Monitor {
	if opts.MonthsAhead <= 0 {
		opts.MonthsAhead = DefaultOptions().MonthsAhead
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions().Concurrency
	}
	return &Monitor{
		balances:   balances,
		payroll:    payroll,
		store:      store,
		assessor:   assessor,
		dispatcher: dispatcher,
		recorder:   recorder,
		logger:     slog.Default().With("component", "monitor"),
		opts:       opts,
	}
}

// CheckCompany assesses one company and dispatches whatever alerts survive
// the filter. In dry-run mode candidates are built but neither the assessment
// nor any alert leaves the process.
func (m *Monitor) CheckCompany(ctx context.Context, companyID string) (*Result, error) {
	start := time.Now()
	res, err := m.checkCompany(ctx, companyID)
	if err != nil {
		if m.recorder != nil {
			m.recorder.AssessmentFailed()
		}
		return nil, err
	}
	res.Duration = time.Since(start)
	if m.recorder != nil {
		m.recorder.ObserveAssessment(companyID, res.Assessment.RiskLevel, res.Score, res.Duration)
	}
	return res, nil
}

func (m *Monitor) checkCompany(ctx context.Context, companyID string) (*Result, error) {
	var (
		balance     model.Balance
		obligations []model.PayrollObligation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = m.balances.GetCurrentBalance(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to get balance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		obligations, err = m.payroll.GetUpcomingPayrollObligations(gctx, companyID, m.opts.MonthsAhead)
		if err != nil {
			return fmt.Errorf("failed to get payroll obligations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("company %s: %w", companyID, err)
	}

	assessment, err := m.assessor.Assess(companyID, balance.Amount, obligations, nil)
	if err != nil {
		return nil, fmt.Errorf("company %s: failed to assess: %w", companyID, err)
	}

	res := &Result{
		CompanyID:  companyID,
		Assessment: assessment,
		Score:      risk.CalculateRiskScore(assessment),
		Summary:    risk.GenerateRiskSummary(assessment),
		Candidates: risk.BuildAlertCandidates(assessment, assessment.AssessmentDate),
	}

	m.logger.Info("Assessed company",
		"company_id", companyID,
		"risk_level", assessment.RiskLevel,
		"risk_score", res.Score,
		"balance", balance.Amount,
		"obligations", len(obligations))

	if m.opts.DryRun {
		return res, nil
	}

	record := &model.AssessmentRecord{Assessment: *assessment, RiskScore: res.Score, Summary: res.Summary}
	if err := m.store.SaveAssessment(ctx, record); err != nil {
		return nil, fmt.Errorf("company %s: failed to save assessment: %w", companyID, err)
	}
	assessment.ID = record.Assessment.ID

	dispatch, err := m.dispatcher.Dispatch(ctx, companyID, res.Candidates)
	if err != nil {
		return nil, fmt.Errorf("company %s: failed to dispatch alerts: %w", companyID, err)
	}
	res.Dispatch = dispatch

	return res, nil
}

// CheckAll checks every active company with bounded concurrency. A failing
// company does not stop the others; its error is recorded on its Result and
// joined into the returned error. progress, when non-nil, is called once per
// company as it finishes.
func (m *Monitor) CheckAll(ctx context.Context, progress func(Result)) (*Summary, error) {
	start := time.Now()

	companies, err := m.store.ListCompanies(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	results := make([]Result, len(companies))
	var progressMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)

	for i, c := range companies {
		g.Go(func() error {
			res, err := m.CheckCompany(gctx, c.ID)
			if err != nil {
				m.logger.Warn("Company check failed", "company_id", c.ID, "error", err)
				res = &Result{CompanyID: c.ID, Err: err}
			}
			results[i] = *res
			if progress != nil {
				progressMu.Lock()
				progress(*res)
				progressMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{
		Results:  results,
		Checked:  len(results),
		Duration: time.Since(start),
	}
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			errs = append(errs, r.Err)
			continue
		}
		summary.AlertsSent += len(r.Dispatch.Sent)
	}

	m.logger.Info("Checked companies",
		"checked", summary.Checked,
		"failed", summary.Failed,
		"alerts_sent", summary.AlertsSent,
		"duration", summary.Duration)

	return summary, errors.Join(errs...)
}
