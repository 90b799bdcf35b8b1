package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // PostgreSQL driver and error codes

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute

	pqUniqueViolation = "23505"
)

// PostgresHistoryStore keeps alert history in PostgreSQL so several sentinel
// processes share one cooldown and daily-cap state.
type PostgresHistoryStore struct {
	db      *sql.DB
	history *historyStore
}

// NewPostgresConnection opens and pings a PostgreSQL connection pool.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	if err := validateString(dataSourceName, "dataSourceName"); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewPostgresHistoryStore wraps an open pool. Call Migrate before use.
func NewPostgresHistoryStore(db *sql.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{
		db:      db,
		history: newHistoryStore(db, dollarPlaceholders, alert.DefaultHistoryLimit),
	}
}

// Migrate creates the alert_history table if it does not exist.
func (p *PostgresHistoryStore) Migrate(ctx context.Context) error {
	for _, query := range alertHistorySchema {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create alert history schema: %w", err)
		}
	}
	return nil
}

// LastAlertTime implements alert.HistoryStore.
func (p *PostgresHistoryStore) LastAlertTime(ctx context.Context, companyID string) (time.Time, bool, error) {
	return p.history.lastAlertTime(ctx, companyID)
}

// History implements alert.HistoryStore.
func (p *PostgresHistoryStore) History(ctx context.Context, companyID string, since time.Time) ([]model.AlertHistoryEntry, error) {
	return p.history.since(ctx, companyID, since)
}

// Append implements alert.HistoryStore.
func (p *PostgresHistoryStore) Append(ctx context.Context, entry model.AlertHistoryEntry) error {
	err := p.history.append(ctx, entry)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: alert %s", common.ErrDuplicateEntry, entry.ID)
	}
	return err
}

// ListAlerts returns the company's most recent alerts, newest first.
func (p *PostgresHistoryStore) ListAlerts(ctx context.Context, companyID string, limit int) ([]model.AlertHistoryEntry, error) {
	return p.history.recent(ctx, companyID, limit)
}

// Close closes the connection pool.
func (p *PostgresHistoryStore) Close() error {
	return p.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

var _ alert.HistoryStore = (*PostgresHistoryStore)(nil)
