package model

import (
	"fmt"
	"time"
)

// Company is a customer whose payroll coverage is monitored.
type Company struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=200"`
	// SlackChannel and TelegramChatID override the default notification targets.
	SlackChannel   string `json:"slack_channel,omitempty"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`
	Active         bool   `json:"active"`
}

// Validate checks the company's field constraints.
func (c *Company) Validate() error {
	if c == nil {
		return fmt.Errorf("company is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid company: %w", err)
	}
	return nil
}

// BankAccount links a company to an account at the banking-data provider.
type BankAccount struct {
	CreatedAt       time.Time `json:"created_at"`
	ID              string    `json:"id"`
	CompanyID       string    `json:"company_id" validate:"required"`
	InstitutionName string    `json:"institution_name,omitempty"`
	AccountName     string    `json:"account_name,omitempty"`
	// AccessToken is the provider item token; never serialized.
	AccessToken string  `json:"-" validate:"required"`
	LastBalance float64 `json:"last_balance"`
}

// Validate checks the account's field constraints.
func (b *BankAccount) Validate() error {
	if b == nil {
		return fmt.Errorf("bank account is nil")
	}
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("invalid bank account: %w", err)
	}
	return nil
}

// Balance is a company's cash position aggregated across its linked accounts.
type Balance struct {
	AsOf     time.Time `json:"as_of"`
	Amount   float64   `json:"amount"`
	Accounts int       `json:"accounts"`
}
