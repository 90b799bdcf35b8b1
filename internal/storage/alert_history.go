package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// alertHistorySchema is portable between SQLite and PostgreSQL.
var alertHistorySchema = []string{
	`CREATE TABLE IF NOT EXISTS alert_history (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		risk_score INTEGER NOT NULL DEFAULT 0,
		channel TEXT NOT NULL DEFAULT '',
		channel_message_id TEXT NOT NULL DEFAULT '',
		sent_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alert_history_company_sent ON alert_history(company_id, sent_at)`,
}

// placeholderStyle rewrites a query written with ? placeholders for a driver.
type placeholderStyle func(query string) string

func questionPlaceholders(query string) string {
	return query
}

// dollarPlaceholders rewrites ? placeholders as $1, $2, ... for lib/pq.
func dollarPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// historyStore implements alert.HistoryStore over any database/sql driver.
// Each company keeps at most limit entries; older ones are pruned on append.
type historyStore struct {
	db    *sql.DB
	bind  placeholderStyle
	limit int
}

func newHistoryStore(db *sql.DB, bind placeholderStyle, limit int) *historyStore {
	return &historyStore{db: db, bind: bind, limit: limit}
}

func (h *historyStore) lastAlertTime(ctx context.Context, companyID string) (time.Time, bool, error) {
	var sentAt sql.NullInt64
	err := h.db.QueryRowContext(ctx, h.bind(`
		SELECT MAX(sent_at) FROM alert_history WHERE company_id = ?
	`), companyID).Scan(&sentAt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get last alert time: %w", err)
	}
	if !sentAt.Valid {
		return time.Time{}, false, nil
	}
	return fromMillis(sentAt.Int64), true, nil
}

func (h *historyStore) since(ctx context.Context, companyID string, since time.Time) ([]model.AlertHistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx, h.bind(`
		SELECT id, company_id, alert_type, severity, message, risk_score, channel, channel_message_id, sent_at
		FROM alert_history
		WHERE company_id = ? AND sent_at >= ?
		ORDER BY sent_at ASC
	`), companyID, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	return scanAlertEntries(rows)
}

func (h *historyStore) recent(ctx context.Context, companyID string, limit int) ([]model.AlertHistoryEntry, error) {
	if limit <= 0 || limit > h.limit {
		limit = h.limit
	}
	rows, err := h.db.QueryContext(ctx, h.bind(`
		SELECT id, company_id, alert_type, severity, message, risk_score, channel, channel_message_id, sent_at
		FROM alert_history
		WHERE company_id = ?
		ORDER BY sent_at DESC
		LIMIT ?
	`), companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return scanAlertEntries(rows)
}

func (h *historyStore) append(ctx context.Context, entry model.AlertHistoryEntry) error {
	if err := validateAlertEntry(&entry); err != nil {
		return err
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, h.bind(`
		INSERT INTO alert_history (id, company_id, alert_type, severity, message, risk_score, channel, channel_message_id, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), entry.ID, entry.CompanyID, string(entry.AlertType), string(entry.Severity), entry.Message,
		entry.RiskScore, entry.Channel, entry.ChannelMessageID, toMillis(entry.SentAt))
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}

	if err := h.prune(ctx, tx, entry.CompanyID); err != nil {
		return err
	}

	return tx.Commit()
}

// prune keeps only the company's newest limit entries.
func (h *historyStore) prune(ctx context.Context, q queryable, companyID string) error {
	_, err := q.ExecContext(ctx, h.bind(`
		DELETE FROM alert_history
		WHERE company_id = ? AND id NOT IN (
			SELECT id FROM alert_history
			WHERE company_id = ?
			ORDER BY sent_at DESC
			LIMIT ?
		)
	`), companyID, companyID, h.limit)
	if err != nil {
		return fmt.Errorf("failed to prune alert history: %w", err)
	}
	return nil
}

func scanAlertEntries(rows *sql.Rows) ([]model.AlertHistoryEntry, error) {
	defer func() { _ = rows.Close() }()

	var entries []model.AlertHistoryEntry
	for rows.Next() {
		var (
			e        model.AlertHistoryEntry
			typ, sev string
			sentAt   int64
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &typ, &sev, &e.Message, &e.RiskScore,
			&e.Channel, &e.ChannelMessageID, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		e.AlertType = model.AlertType(typ)
		e.Severity = model.Severity(sev)
		e.SentAt = fromMillis(sentAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return entries, nil
}

// LastAlertTime returns when the company was last alerted.
func (s *SQLiteStorage) LastAlertTime(ctx context.Context, companyID string) (time.Time, bool, error) {
	if err := validateContext(ctx); err != nil {
		return time.Time{}, false, err
	}
	return s.history.lastAlertTime(ctx, companyID)
}

// History returns the company's alerts sent at or after since, oldest first.
func (s *SQLiteStorage) History(ctx context.Context, companyID string, since time.Time) ([]model.AlertHistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.history.since(ctx, companyID, since)
}

// Append records a delivered alert and prunes the company's oldest entries.
func (s *SQLiteStorage) Append(ctx context.Context, entry model.AlertHistoryEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.history.append(ctx, entry)
}

// ListAlerts returns the company's most recent alerts, newest first.
func (s *SQLiteStorage) ListAlerts(ctx context.Context, companyID string, limit int) ([]model.AlertHistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}
	return s.history.recent(ctx, companyID, limit)
}
