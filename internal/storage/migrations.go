package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Companies, bank accounts and payroll runs",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS companies (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL UNIQUE,
					slack_channel TEXT NOT NULL DEFAULT '',
					telegram_chat_id INTEGER NOT NULL DEFAULT 0,
					active INTEGER NOT NULL DEFAULT 1,
					created_at INTEGER NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS bank_accounts (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL,
					institution_name TEXT NOT NULL DEFAULT '',
					account_name TEXT NOT NULL DEFAULT '',
					access_token TEXT NOT NULL,
					last_balance REAL NOT NULL DEFAULT 0,
					created_at INTEGER NOT NULL,
					FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_bank_accounts_company ON bank_accounts(company_id)`,

				`CREATE TABLE IF NOT EXISTS payroll_runs (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL,
					pay_date INTEGER NOT NULL,
					amount REAL NOT NULL CHECK (amount >= 0),
					employee_count INTEGER NOT NULL DEFAULT 0,
					description TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'draft',
					created_at INTEGER NOT NULL,
					FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_payroll_runs_company_date ON payroll_runs(company_id, pay_date)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Risk assessments",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS risk_assessments (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL,
					assessed_at INTEGER NOT NULL,
					risk_level TEXT NOT NULL,
					risk_score INTEGER NOT NULL,
					current_balance REAL NOT NULL,
					required_float REAL NOT NULL,
					days_until_risk INTEGER NOT NULL,
					summary TEXT NOT NULL,
					payload TEXT NOT NULL
				)`,
				`CREATE INDEX idx_risk_assessments_company ON risk_assessments(company_id, assessed_at)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Alert history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, alertHistorySchema...)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
