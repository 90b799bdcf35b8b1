package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

func TestSQLiteStorage_PayrollRuns(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	acme := createTestCompany(t, store, "Acme")
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	runs := []*model.PayrollRun{
		{CompanyID: acme.ID, PayDate: base.AddDate(0, 0, 30), Amount: 52000, EmployeeCount: 12, Description: "March 31"},
		{CompanyID: acme.ID, PayDate: base.AddDate(0, 0, 14), Amount: 50000, EmployeeCount: 12, Description: "March 15"},
		{CompanyID: acme.ID, PayDate: base.AddDate(0, 2, 0), Amount: 51000, EmployeeCount: 12, Status: model.PayrollRunApproved},
		{CompanyID: acme.ID, PayDate: base.AddDate(0, 0, -14), Amount: 49000, EmployeeCount: 11, Status: model.PayrollRunProcessed},
	}
	for _, r := range runs {
		if err := store.SavePayrollRun(ctx, r); err != nil {
			t.Fatalf("SavePayrollRun failed: %v", err)
		}
	}

	all, err := store.GetPayrollRuns(ctx, acme.ID, service.PayrollRunFilter{})
	if err != nil {
		t.Fatalf("GetPayrollRuns failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Expected 4 runs, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].PayDate.Before(all[i-1].PayDate) {
			t.Errorf("runs not ascending at %d: %v before %v", i, all[i].PayDate, all[i-1].PayDate)
		}
	}
	if all[1].Status != model.PayrollRunDraft {
		t.Errorf("Default status = %q, want draft", all[1].Status)
	}

	from := base
	to := base.AddDate(0, 1, 0)
	window, err := store.GetPayrollRuns(ctx, acme.ID, service.PayrollRunFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("GetPayrollRuns(window) failed: %v", err)
	}
	if len(window) != 2 || window[0].Description != "March 15" || window[1].Description != "March 31" {
		t.Errorf("Unexpected window: %+v", window)
	}

	drafts, err := store.GetPayrollRuns(ctx, acme.ID, service.PayrollRunFilter{Status: model.PayrollRunDraft, Limit: 1})
	if err != nil {
		t.Fatalf("GetPayrollRuns(drafts) failed: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Description != "March 15" {
		t.Errorf("Unexpected drafts: %+v", drafts)
	}
}

func TestSQLiteStorage_PayrollRunUpdateAndDelete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	acme := createTestCompany(t, store, "Acme")
	run := &model.PayrollRun{CompanyID: acme.ID, PayDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Amount: 1000}
	if err := store.SavePayrollRun(ctx, run); err != nil {
		t.Fatalf("SavePayrollRun failed: %v", err)
	}

	run.Amount = 1500
	run.Status = model.PayrollRunApproved
	if err := store.SavePayrollRun(ctx, run); err != nil {
		t.Fatalf("SavePayrollRun (update) failed: %v", err)
	}

	runs, err := store.GetPayrollRuns(ctx, acme.ID, service.PayrollRunFilter{})
	if err != nil {
		t.Fatalf("GetPayrollRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].Amount != 1500 || runs[0].Status != model.PayrollRunApproved {
		t.Errorf("Unexpected runs after update: %+v", runs)
	}

	if err := store.DeletePayrollRun(ctx, run.ID); err != nil {
		t.Fatalf("DeletePayrollRun failed: %v", err)
	}
	if err := store.DeletePayrollRun(ctx, run.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteStorage_PayrollRunValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	acme := createTestCompany(t, store, "Acme")
	payDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	err := store.SavePayrollRun(ctx, &model.PayrollRun{CompanyID: acme.ID, PayDate: payDate, Amount: -1})
	if !errors.Is(err, ErrInvalidPayrollRun) {
		t.Errorf("Expected ErrInvalidPayrollRun for negative amount, got %v", err)
	}

	err = store.SavePayrollRun(ctx, &model.PayrollRun{CompanyID: "missing", PayDate: payDate, Amount: 1})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown company, got %v", err)
	}

	from := payDate
	to := payDate.AddDate(0, 0, -1)
	_, err = store.GetPayrollRuns(ctx, acme.ID, service.PayrollRunFilter{From: &from, To: &to})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("Expected ErrInvalidDateRange, got %v", err)
	}
}
