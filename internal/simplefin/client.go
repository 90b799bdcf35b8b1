// Package simplefin reads account balances through a SimpleFIN Bridge.
// A company's linked access token is the bridge access URL, which carries
// its own basic-auth credentials.
package simplefin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

// Account is one account reported by the bridge.
type Account struct {
	BalanceDate      time.Time
	Available        *decimal.Decimal
	ID               string
	Name             string
	Currency         string
	OrganizationName string
	Balance          decimal.Decimal
}

// SimpleFIN API response types
type accountSet struct {
	Errors   []string  `json:"errors"`
	Accounts []account `json:"accounts"`
}

type account struct {
	Org              organization `json:"org"`
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Currency         string       `json:"currency"`
	Balance          string       `json:"balance"`
	AvailableBalance string       `json:"available-balance"`
	BalanceDate      int64        `json:"balance-date"`
}

type organization struct {
	Name string `json:"name"`
}

// Client fetches balances from SimpleFIN access URLs.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	retry      service.RetryOptions
}

// NewClient creates a client; timeout <= 0 means 30 seconds.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "simplefin"),
		retry:      service.DefaultRetryOptions(),
	}
}

// Claim exchanges a setup token for an access URL.
func (c *Client) Claim(ctx context.Context, setupToken string) (string, error) {
	return ClaimAccessURL(ctx, c.httpClient, setupToken)
}

// GetAccounts returns the balances of every account behind accessURL.
func (c *Client) GetAccounts(ctx context.Context, accessURL string) ([]Account, error) {
	u, err := url.Parse(strings.TrimRight(accessURL, "/") + "/accounts")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid simplefin access URL", common.ErrInvalidAccount)
	}
	q := u.Query()
	q.Set("balances-only", "1")
	u.RawQuery = q.Encode()

	var set accountSet
	err = common.WithRetry(ctx, func() error {
		return c.fetch(ctx, u.String(), &set)
	}, c.retry)
	if err != nil {
		return nil, err
	}

	for _, msg := range set.Errors {
		c.logger.Warn("SimpleFIN bridge reported an error", "url", Redact(accessURL), "message", msg)
	}

	accounts := make([]Account, 0, len(set.Accounts))
	for _, a := range set.Accounts {
		acct, err := a.toAccount()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

func (c *Client) fetch(ctx context.Context, target string, into *accountSet) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch simplefin accounts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := &common.HTTPStatusError{Service: "simplefin", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: access revoked: %w", common.ErrInvalidAccount, statusErr)
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("failed to decode simplefin response: %w", err)
	}
	return nil
}

func (a account) toAccount() (Account, error) {
	balance, err := decimal.NewFromString(a.Balance)
	if err != nil {
		return Account{}, fmt.Errorf("account %s: invalid balance %q: %w", a.ID, a.Balance, err)
	}
	out := Account{
		ID:               a.ID,
		Name:             a.Name,
		Currency:         a.Currency,
		OrganizationName: a.Org.Name,
		Balance:          balance,
	}
	if a.BalanceDate > 0 {
		out.BalanceDate = time.Unix(a.BalanceDate, 0).UTC()
	}
	if a.AvailableBalance != "" {
		available, err := decimal.NewFromString(a.AvailableBalance)
		if err != nil {
			return Account{}, fmt.Errorf("account %s: invalid available balance %q: %w", a.ID, a.AvailableBalance, err)
		}
		out.Available = &available
	}
	return out, nil
}
