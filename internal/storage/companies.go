package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// CreateCompany inserts a company, assigning an ID and creation time when unset.
func (s *SQLiteStorage) CreateCompany(ctx context.Context, company *model.Company) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCompany(company); err != nil {
		return err
	}

	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, slack_channel, telegram_chat_id, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, company.ID, company.Name, company.SlackChannel, company.TelegramChatID, company.Active, toMillis(company.CreatedAt))
	if isSQLiteConstraint(err) {
		return fmt.Errorf("%w: company %q", common.ErrDuplicateEntry, company.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetCompany retrieves a company by ID.
func (s *SQLiteStorage) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, slack_channel, telegram_chat_id, active, created_at
		FROM companies
		WHERE id = ?
	`, id)

	company, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("company %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// ListCompanies returns companies ordered by name.
func (s *SQLiteStorage) ListCompanies(ctx context.Context, activeOnly bool) ([]model.Company, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, name, slack_channel, telegram_chat_id, active, created_at FROM companies`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var companies []model.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, *company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating companies: %w", err)
	}
	return companies, nil
}

// SetCompanyActive enables or disables monitoring for a company.
func (s *SQLiteStorage) SetCompanyActive(ctx context.Context, id string, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE companies SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return requireAffected(result, "company", id)
}

// AddBankAccount links a bank account to a company.
func (s *SQLiteStorage) AddBankAccount(ctx context.Context, account *model.BankAccount) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBankAccount(account); err != nil {
		return err
	}

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bank_accounts (id, company_id, institution_name, account_name, access_token, last_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, account.ID, account.CompanyID, account.InstitutionName, account.AccountName,
		account.AccessToken, account.LastBalance, toMillis(account.CreatedAt))
	if isSQLiteForeignKey(err) {
		return fmt.Errorf("company %s: %w", account.CompanyID, common.ErrNotFound)
	}
	if isSQLiteConstraint(err) {
		return fmt.Errorf("%w: bank account %s", common.ErrDuplicateEntry, account.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to add bank account: %w", err)
	}
	return nil
}

// GetBankAccounts returns the accounts linked to a company.
func (s *SQLiteStorage) GetBankAccounts(ctx context.Context, companyID string) ([]model.BankAccount, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, institution_name, account_name, access_token, last_balance, created_at
		FROM bank_accounts
		WHERE company_id = ?
		ORDER BY created_at
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.BankAccount
	for rows.Next() {
		var (
			a         model.BankAccount
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.InstitutionName, &a.AccountName,
			&a.AccessToken, &a.LastBalance, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		a.CreatedAt = fromMillis(createdAt)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccountBalance records the most recently observed balance of an account.
func (s *SQLiteStorage) UpdateAccountBalance(ctx context.Context, accountID string, balance float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE bank_accounts SET last_balance = ? WHERE id = ?`, balance, accountID)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	return requireAffected(result, "bank account", accountID)
}

// AccessTokens returns the provider access tokens linked to a company.
func (s *SQLiteStorage) AccessTokens(ctx context.Context, companyID string) ([]string, error) {
	accounts, err := s.GetBankAccounts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(accounts))
	seen := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		if seen[a.AccessToken] {
			continue
		}
		seen[a.AccessToken] = true
		tokens = append(tokens, a.AccessToken)
	}
	return tokens, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*model.Company, error) {
	var (
		c         model.Company
		createdAt int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.SlackChannel, &c.TelegramChatID, &c.Active, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(createdAt)
	return &c, nil
}

func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, common.ErrNotFound)
	}
	return nil
}

func isSQLiteConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

func isSQLiteForeignKey(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
