package plaid

import (
	"context"
)

// AccountBalance is one account as reported by /accounts/balance/get.
type AccountBalance struct {
	Available *float64
	Current   *float64
	AccountID string
	Name      string
	Type      string
	Currency  string
}

// BalanceFetcher defines the contract for fetching live account balances.
// This interface allows for easy mocking in tests.
type BalanceFetcher interface {
	GetAccountBalances(ctx context.Context, accessToken string) ([]AccountBalance, error)
}

// TokenSource looks up the provider access tokens linked to a company.
type TokenSource interface {
	AccessTokens(ctx context.Context, companyID string) ([]string, error)
}
