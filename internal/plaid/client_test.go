package plaid

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		wantIs  error
		config  Config
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "sandbox",
			},
		},
		{
			name: "missing client ID",
			config: Config{
				Secret:      "test-secret",
				Environment: "sandbox",
			},
			wantErr: true,
			wantIs:  common.ErrMissingConfig,
			errMsg:  "plaid client ID is required",
		},
		{
			name: "missing secret",
			config: Config{
				ClientID:    "test-client-id",
				Environment: "sandbox",
			},
			wantErr: true,
			wantIs:  common.ErrMissingConfig,
			errMsg:  "plaid secret is required",
		},
		{
			name: "missing environment",
			config: Config{
				ClientID: "test-client-id",
				Secret:   "test-secret",
			},
			wantErr: true,
			wantIs:  common.ErrMissingConfig,
			errMsg:  "plaid environment is required",
		},
		{
			name: "invalid environment",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "development",
			},
			wantErr: true,
			wantIs:  common.ErrInvalidConfig,
			errMsg:  "invalid Plaid environment",
		},
		{
			name: "valid production environment",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "production",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, tt.wantIs)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{ClientID: "id", Secret: "secret", Environment: "sandbox"})
	require.NoError(t, err)
	assert.NotNil(t, client.client)
	assert.NotNil(t, client.logger)
	assert.Equal(t, 3, client.retryOpts.MaxAttempts)

	client, err = NewClient(Config{ClientID: "id"})
	require.Error(t, err)
	assert.Nil(t, client)
}

func TestClient_GetAccountBalances_Validation(t *testing.T) {
	client := &Client{logger: slog.Default().With("component", "plaid-test")}

	//nolint:staticcheck // exercising the nil guard
	_, err := client.GetAccountBalances(nil, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cannot be nil")

	_, err = client.GetAccountBalances(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token is required")
}

func TestMapAccount(t *testing.T) {
	balances := plaid.AccountBalance{}
	balances.SetAvailable(1200.50)
	balances.SetCurrent(1500)
	balances.SetIsoCurrencyCode("USD")

	account := plaid.AccountBase{}
	account.SetAccountId("acc-1")
	account.SetName("Operating")
	account.SetType(plaid.ACCOUNTTYPE_DEPOSITORY)
	account.SetBalances(balances)

	got := mapAccount(account)
	assert.Equal(t, "acc-1", got.AccountID)
	assert.Equal(t, "Operating", got.Name)
	assert.Equal(t, "depository", got.Type)
	assert.Equal(t, "USD", got.Currency)
	require.NotNil(t, got.Available)
	require.NotNil(t, got.Current)
	assert.InDelta(t, 1200.50, *got.Available, 0.001)
	assert.InDelta(t, 1500.0, *got.Current, 0.001)
}

func TestMockClient(t *testing.T) {
	mock := NewMockClient()

	accounts, err := mock.GetAccountBalances(context.Background(), "token-a")
	require.NoError(t, err)
	assert.Empty(t, accounts)

	mock.GetAccountBalancesFn = func(_ context.Context, _ string) ([]AccountBalance, error) {
		return nil, common.ErrPlaidRateLimit
	}
	_, err = mock.GetAccountBalances(context.Background(), "token-b")
	require.ErrorIs(t, err, common.ErrPlaidRateLimit)

	assert.Equal(t, []string{"token-a", "token-b"}, mock.GetAccountBalancesCalls)

	mock.Reset()
	assert.Empty(t, mock.GetAccountBalancesCalls)
}
