// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// BalanceProvider reports a company's current cash position.
type BalanceProvider interface {
	GetCurrentBalance(ctx context.Context, companyID string) (model.Balance, error)
}

// PayrollProvider reports a company's upcoming payroll obligations, ascending by date.
type PayrollProvider interface {
	GetUpcomingPayrollObligations(ctx context.Context, companyID string, monthsAhead int) ([]model.PayrollObligation, error)
}

// PayrollRunFilter narrows payroll run queries.
type PayrollRunFilter struct {
	From   *time.Time
	To     *time.Time
	Status model.PayrollRunStatus
	Limit  int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Company operations
	CreateCompany(ctx context.Context, company *model.Company) error
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	ListCompanies(ctx context.Context, activeOnly bool) ([]model.Company, error)
	SetCompanyActive(ctx context.Context, id string, active bool) error

	// Bank account operations
	AddBankAccount(ctx context.Context, account *model.BankAccount) error
	GetBankAccounts(ctx context.Context, companyID string) ([]model.BankAccount, error)
	UpdateAccountBalance(ctx context.Context, accountID string, balance float64) error

	// Payroll run operations
	SavePayrollRun(ctx context.Context, run *model.PayrollRun) error
	GetPayrollRuns(ctx context.Context, companyID string, filter PayrollRunFilter) ([]model.PayrollRun, error)
	DeletePayrollRun(ctx context.Context, id string) error

	// Assessment operations
	SaveAssessment(ctx context.Context, record *model.AssessmentRecord) error
	GetLatestAssessment(ctx context.Context, companyID string) (*model.AssessmentRecord, error)
	ListAssessments(ctx context.Context, companyID string, limit int) ([]model.AssessmentRecord, error)

	// Alert history operations
	alert.HistoryStore
	ListAlerts(ctx context.Context, companyID string, limit int) ([]model.AlertHistoryEntry, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions is the policy used at collaborator boundaries:
// three attempts starting at one second and doubling.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}
