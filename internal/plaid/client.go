// Package plaid provides a client for interacting with the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/service"
	"github.com/plaid/plaid-go/v20/plaid"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("%w: invalid Plaid environment: must be sandbox or production", common.ErrInvalidConfig)
	}

	return nil
}

// Client implements the BalanceFetcher interface.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   service.RetryOptions
	environment string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		environment: cfg.Environment,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts:   service.DefaultRetryOptions(),
	}, nil
}

// GetAccountBalances fetches real-time balances for every account under an access token.
func (c *Client) GetAccountBalances(ctx context.Context, accessToken string) ([]AccountBalance, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsBalanceGetRequest(accessToken)
		resp, _, err := c.client.PlaidApi.AccountsBalanceGet(ctx).AccountsBalanceGetRequest(*request).Execute()
		if err != nil {
			return c.classifyError(err)
		}
		accounts = resp.GetAccounts()
		return nil
	}, c.retryOpts)

	if retryErr != nil {
		return nil, fmt.Errorf("failed to fetch balances: %w", retryErr)
	}

	c.logger.Debug("Fetched account balances", "count", len(accounts))

	balances := make([]AccountBalance, 0, len(accounts))
	for _, account := range accounts {
		balances = append(balances, mapAccount(account))
	}
	return balances, nil
}

// ExchangePublicToken exchanges a public token from Link for an access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		if plaidError := extractPlaidError(err); plaidError != nil {
			return "", "", fmt.Errorf("plaid API error: %s - %s", plaidError.ErrorCode, plaidError.ErrorMessage)
		}
		return "", "", fmt.Errorf("failed to exchange public token: %w", err)
	}

	return resp.GetAccessToken(), resp.GetItemId(), nil
}

// classifyError marks Plaid-side outages as retryable. Rate limits are not.
func (c *Client) classifyError(err error) error {
	plaidError := extractPlaidError(err)
	if plaidError == nil {
		// Transport failures keep their type so IsRetryable can see them
		return err
	}

	apiErr := fmt.Errorf("plaid API error: %s - %s", plaidError.ErrorCode, plaidError.ErrorMessage)
	switch {
	case plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" || string(plaidError.ErrorType) == "RATE_LIMIT_EXCEEDED":
		c.logger.Warn("Rate limit hit", "error", plaidError.ErrorMessage)
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrPlaidRateLimit, apiErr), Retryable: false}
	case string(plaidError.ErrorType) == "API_ERROR" || plaidError.GetStatus() >= 500:
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrProviderUnavailable, apiErr), Retryable: true}
	case string(plaidError.ErrorType) == "ITEM_ERROR":
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrInvalidAccount, apiErr), Retryable: false}
	default:
		return &common.RetryableError{Err: apiErr, Retryable: false}
	}
}

func mapAccount(account plaid.AccountBase) AccountBalance {
	balances := account.GetBalances()
	out := AccountBalance{
		AccountID: account.GetAccountId(),
		Name:      account.GetName(),
		Type:      string(account.GetType()),
		Currency:  balances.GetIsoCurrencyCode(),
	}
	if v, ok := balances.GetAvailableOk(); ok && v != nil {
		available := *v
		out.Available = &available
	}
	if v, ok := balances.GetCurrentOk(); ok && v != nil {
		current := *v
		out.Current = &current
	}
	return out
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client implements BalanceFetcher interface.
var _ BalanceFetcher = (*Client)(nil)
