package plaid

import (
	"context"
	"sync"
)

// MockClient is a mock implementation of BalanceFetcher for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	GetAccountBalancesFn func(ctx context.Context, accessToken string) ([]AccountBalance, error)

	// Call tracking
	GetAccountBalancesCalls []string
	mu                      sync.Mutex
}

// NewMockClient creates a new mock Plaid client.
func NewMockClient() *MockClient {
	return &MockClient{
		GetAccountBalancesCalls: []string{},
	}
}

// GetAccountBalances implements BalanceFetcher.GetAccountBalances.
func (m *MockClient) GetAccountBalances(ctx context.Context, accessToken string) ([]AccountBalance, error) {
	m.mu.Lock()
	m.GetAccountBalancesCalls = append(m.GetAccountBalancesCalls, accessToken)
	m.mu.Unlock()

	if m.GetAccountBalancesFn != nil {
		return m.GetAccountBalancesFn(ctx, accessToken)
	}

	// Default behavior: return empty slice
	return []AccountBalance{}, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetAccountBalancesCalls = []string{}
}

// StaticTokens is a TokenSource backed by a map, for tests and single-company setups.
type StaticTokens map[string][]string

// AccessTokens implements TokenSource.
func (s StaticTokens) AccessTokens(_ context.Context, companyID string) ([]string, error) {
	return s[companyID], nil
}

// Ensure MockClient implements BalanceFetcher interface.
var _ BalanceFetcher = (*MockClient)(nil)
