package simplefin

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

// TokenSource lists the access URLs linked to a company.
type TokenSource interface {
	AccessTokens(ctx context.Context, companyID string) ([]string, error)
}

// AccountFetcher is the part of Client the BalanceProvider uses.
type AccountFetcher interface {
	GetAccounts(ctx context.Context, accessURL string) ([]Account, error)
}

// BalanceProvider sums every account behind a company's access URLs,
// preferring the available balance. Accounts in another currency than USD
// are skipped.
type BalanceProvider struct {
	fetcher AccountFetcher
	tokens  TokenSource
	clock   func() time.Time
}

// NewBalanceProvider creates a BalanceProvider.
func NewBalanceProvider(fetcher AccountFetcher, tokens TokenSource) *BalanceProvider {
	return &BalanceProvider{fetcher: fetcher, tokens: tokens, clock: time.Now}
}

// GetCurrentBalance implements service.BalanceProvider.
func (p *BalanceProvider) GetCurrentBalance(ctx context.Context, companyID string) (model.Balance, error) {
	urls, err := p.tokens.AccessTokens(ctx, companyID)
	if err != nil {
		return model.Balance{}, fmt.Errorf("failed to load linked accounts: %w", err)
	}
	if len(urls) == 0 {
		return model.Balance{}, fmt.Errorf("company %s has no linked bank accounts: %w", companyID, common.ErrNotFound)
	}

	total := decimal.Zero
	counted := 0
	for _, u := range urls {
		accounts, err := p.fetcher.GetAccounts(ctx, u)
		if err != nil {
			return model.Balance{}, err
		}
		for _, a := range accounts {
			if a.Currency != "" && a.Currency != "USD" {
				continue
			}
			if a.Available != nil {
				total = total.Add(*a.Available)
			} else {
				total = total.Add(a.Balance)
			}
			counted++
		}
	}

	return model.Balance{
		Amount:   total.Round(2).InexactFloat64(),
		AsOf:     p.clock().UTC(),
		Accounts: counted,
	}, nil
}

var _ service.BalanceProvider = (*BalanceProvider)(nil)
