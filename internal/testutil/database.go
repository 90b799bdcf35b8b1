// Package testutil provides test helpers shared across payroll sentinel packages.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/storage"
)

// TestDB is a migrated in-memory database with seeding helpers.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	acme := db.MustCreateCompany("Acme")
//	db.MustAddPayrollRun(acme.ID, payDate, 50000)
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustCreateCompany stores an active company or fails the test.
func (db *TestDB) MustCreateCompany(name string) *model.Company {
	db.t.Helper()
	company := &model.Company{Name: name, Active: true}
	if err := db.Storage.CreateCompany(context.Background(), company); err != nil {
		db.t.Fatalf("failed to seed company %q: %v", name, err)
	}
	return company
}

// MustAddPayrollRun stores a draft payroll run or fails the test.
func (db *TestDB) MustAddPayrollRun(companyID string, payDate time.Time, amount float64) *model.PayrollRun {
	db.t.Helper()
	run := &model.PayrollRun{
		CompanyID: companyID,
		PayDate:   payDate,
		Amount:    amount,
		Status:    model.PayrollRunDraft,
	}
	if err := db.Storage.SavePayrollRun(context.Background(), run); err != nil {
		db.t.Fatalf("failed to seed payroll run: %v", err)
	}
	return run
}

// MustLinkAccount stores a bank account for the company or fails the test.
func (db *TestDB) MustLinkAccount(companyID, accessToken string) *model.BankAccount {
	db.t.Helper()
	account := &model.BankAccount{
		CompanyID:       companyID,
		InstitutionName: "Test Bank",
		AccountName:     "Operating",
		AccessToken:     accessToken,
	}
	if err := db.Storage.AddBankAccount(context.Background(), account); err != nil {
		db.t.Fatalf("failed to seed bank account: %v", err)
	}
	return account
}
