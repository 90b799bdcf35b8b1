package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

// RunStore is the slice of storage the StorageProvider reads.
type RunStore interface {
	GetPayrollRuns(ctx context.Context, companyID string, filter service.PayrollRunFilter) ([]model.PayrollRun, error)
}

// StorageProvider serves obligations from payroll runs recorded in storage.
// Processed runs have already been paid and are skipped.
type StorageProvider struct {
	store RunStore
	clock func() time.Time
}

// NewStorageProvider creates a StorageProvider.
func NewStorageProvider(store RunStore) *StorageProvider {
	return &StorageProvider{store: store, clock: time.Now}
}

// GetUpcomingPayrollObligations implements service.PayrollProvider.
func (p *StorageProvider) GetUpcomingPayrollObligations(ctx context.Context, companyID string, monthsAhead int) ([]model.PayrollObligation, error) {
	if monthsAhead <= 0 {
		monthsAhead = 3
	}
	start, end := window(p.clock(), monthsAhead)

	runs, err := p.store.GetPayrollRuns(ctx, companyID, service.PayrollRunFilter{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to load payroll runs: %w", err)
	}

	obligations := make([]model.PayrollObligation, 0, len(runs))
	for i := range runs {
		if runs[i].Status == model.PayrollRunProcessed {
			continue
		}
		obligations = append(obligations, runs[i].Obligation())
	}
	return obligations, nil
}

var _ service.PayrollProvider = (*StorageProvider)(nil)
