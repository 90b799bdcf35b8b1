// Package storage provides the data persistence layer for payroll sentinel.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidDateRange  = errors.New("start date must be before end date")
	ErrInvalidCompany    = errors.New("invalid company")
	ErrInvalidAccount    = errors.New("invalid bank account")
	ErrInvalidPayrollRun = errors.New("invalid payroll run")
	ErrInvalidAssessment = errors.New("invalid assessment")
	ErrInvalidAlert      = errors.New("invalid alert history entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCompany(c *model.Company) error {
	if c == nil {
		return fmt.Errorf("%w: company", ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCompany, err)
	}
	return nil
}

func validateBankAccount(a *model.BankAccount) error {
	if a == nil {
		return fmt.Errorf("%w: bank account", ErrNilParameter)
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}
	return nil
}

func validatePayrollRun(r *model.PayrollRun) error {
	if r == nil {
		return fmt.Errorf("%w: payroll run", ErrNilParameter)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayrollRun, err)
	}
	return nil
}

func validateAssessment(rec *model.AssessmentRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: assessment", ErrNilParameter)
	}
	if rec.Assessment.CompanyID == "" {
		return fmt.Errorf("%w: missing company ID", ErrInvalidAssessment)
	}
	if rec.Assessment.AssessmentDate.IsZero() {
		return fmt.Errorf("%w: missing assessment date", ErrInvalidAssessment)
	}
	return nil
}

func validateAlertEntry(e *model.AlertHistoryEntry) error {
	if e == nil {
		return fmt.Errorf("%w: alert", ErrNilParameter)
	}
	if e.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidAlert)
	}
	if e.CompanyID == "" {
		return fmt.Errorf("%w: missing company ID", ErrInvalidAlert)
	}
	if !e.AlertType.Valid() {
		return fmt.Errorf("%w: unknown alert type %q", ErrInvalidAlert, e.AlertType)
	}
	if e.SentAt.IsZero() {
		return fmt.Errorf("%w: missing sent time", ErrInvalidAlert)
	}
	return nil
}
