package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// SaveAssessment persists an assessment with its score and summary. The full
// assessment, projections included, is kept as a JSON payload.
func (s *SQLiteStorage) SaveAssessment(ctx context.Context, record *model.AssessmentRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAssessment(record); err != nil {
		return err
	}

	a := &record.Assessment
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode assessment: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments (id, company_id, assessed_at, risk_level, risk_score,
			current_balance, required_float, days_until_risk, summary, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.CompanyID, toMillis(a.AssessmentDate), string(a.RiskLevel), record.RiskScore,
		a.CurrentBalance, a.RequiredFloat, a.DaysUntilRisk, record.Summary, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// GetLatestAssessment returns the company's most recent assessment.
func (s *SQLiteStorage) GetLatestAssessment(ctx context.Context, companyID string) (*model.AssessmentRecord, error) {
	records, err := s.ListAssessments(ctx, companyID, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("assessment for company %s: %w", companyID, common.ErrNotFound)
	}
	return &records[0], nil
}

// ListAssessments returns the company's assessments, newest first.
func (s *SQLiteStorage) ListAssessments(ctx context.Context, companyID string, limit int) ([]model.AssessmentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM risk_assessments
		WHERE company_id = ?
		ORDER BY assessed_at DESC
		LIMIT ?
	`, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.AssessmentRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		var rec model.AssessmentRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode assessment: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assessments: %w", err)
	}
	return records, nil
}
