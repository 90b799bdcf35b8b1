package model

import (
	"fmt"
	"time"
)

// PayrollObligation is a future payroll disbursement reported by a payroll provider.
type PayrollObligation struct {
	Date          time.Time `json:"date" validate:"required"`
	Description   string    `json:"description,omitempty"`
	Amount        float64   `json:"amount" validate:"gte=0"`
	EmployeeCount int       `json:"employee_count,omitempty" validate:"gte=0"`
}

// Validate checks the obligation's field constraints.
func (p PayrollObligation) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid payroll obligation: %w", err)
	}
	return nil
}

// CashInflow is an expected incoming cash event.
type CashInflow struct {
	Date        time.Time `json:"date" validate:"required"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount" validate:"gte=0"`
	Confidence  float64   `json:"confidence,omitempty" validate:"gte=0,lte=1"`
}

// Validate checks the inflow's field constraints.
func (c CashInflow) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid cash inflow: %w", err)
	}
	return nil
}

// PayrollRunStatus tracks where a stored payroll run is in its lifecycle.
type PayrollRunStatus string

// Payroll run statuses.
const (
	PayrollRunDraft     PayrollRunStatus = "draft"
	PayrollRunApproved  PayrollRunStatus = "approved"
	PayrollRunProcessed PayrollRunStatus = "processed"
)

// PayrollRun is a payroll run recorded for a company, either entered by hand,
// imported from CSV, or mirrored from the payroll provider.
type PayrollRun struct {
	PayDate       time.Time        `json:"pay_date" validate:"required"`
	CreatedAt     time.Time        `json:"created_at"`
	ID            string           `json:"id"`
	CompanyID     string           `json:"company_id" validate:"required"`
	Description   string           `json:"description,omitempty"`
	Status        PayrollRunStatus `json:"status" validate:"omitempty,oneof=draft approved processed"`
	Amount        float64          `json:"amount" validate:"gte=0"`
	EmployeeCount int              `json:"employee_count" validate:"gte=0"`
}

// Validate checks the run's field constraints.
func (r *PayrollRun) Validate() error {
	if r == nil {
		return fmt.Errorf("payroll run is nil")
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid payroll run: %w", err)
	}
	return nil
}

// Obligation converts a pending run into the obligation the risk engine consumes.
func (r *PayrollRun) Obligation() PayrollObligation {
	return PayrollObligation{
		Amount:        r.Amount,
		Date:          r.PayDate,
		Description:   r.Description,
		EmployeeCount: r.EmployeeCount,
	}
}
