package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

// SavePayrollRun inserts or updates a payroll run.
func (s *SQLiteStorage) SavePayrollRun(ctx context.Context, run *model.PayrollRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePayrollRun(run); err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = model.PayrollRunDraft
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_runs (id, company_id, pay_date, amount, employee_count, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pay_date = excluded.pay_date,
			amount = excluded.amount,
			employee_count = excluded.employee_count,
			description = excluded.description,
			status = excluded.status
	`, run.ID, run.CompanyID, toMillis(run.PayDate), run.Amount, run.EmployeeCount,
		run.Description, string(run.Status), toMillis(run.CreatedAt))
	if isSQLiteForeignKey(err) {
		return fmt.Errorf("company %s: %w", run.CompanyID, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to save payroll run: %w", err)
	}
	return nil
}

// GetPayrollRuns returns a company's payroll runs ascending by pay date.
func (s *SQLiteStorage) GetPayrollRuns(ctx context.Context, companyID string, filter service.PayrollRunFilter) ([]model.PayrollRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.To, *filter.From)
	}

	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if filter.From != nil {
		where = append(where, "pay_date >= ?")
		args = append(args, toMillis(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "pay_date < ?")
		args = append(args, toMillis(*filter.To))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `
		SELECT id, company_id, pay_date, amount, employee_count, description, status, created_at
		FROM payroll_runs
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY pay_date ASC, created_at ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.PayrollRun
	for rows.Next() {
		var (
			r                  model.PayrollRun
			status             string
			payDate, createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.CompanyID, &payDate, &r.Amount, &r.EmployeeCount,
			&r.Description, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		r.PayDate = fromMillis(payDate)
		r.CreatedAt = fromMillis(createdAt)
		r.Status = model.PayrollRunStatus(status)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payroll runs: %w", err)
	}
	return runs, nil
}

// DeletePayrollRun removes a payroll run.
func (s *SQLiteStorage) DeletePayrollRun(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM payroll_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payroll run: %w", err)
	}
	return requireAffected(result, "payroll run", id)
}

var _ service.Storage = (*SQLiteStorage)(nil)
