package plaid

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

const depositoryType = "depository"

// BalanceProvider reports a company's cash as the sum of its linked
// depository accounts. Available balance is used where the bank reports it,
// falling back to the current balance.
type BalanceProvider struct {
	fetcher BalanceFetcher
	tokens  TokenSource
	clock   func() time.Time
}

// NewBalanceProvider creates a BalanceProvider.
func NewBalanceProvider(fetcher BalanceFetcher, tokens TokenSource) *BalanceProvider {
	return &BalanceProvider{fetcher: fetcher, tokens: tokens, clock: time.Now}
}

// GetCurrentBalance implements service.BalanceProvider.
func (p *BalanceProvider) GetCurrentBalance(ctx context.Context, companyID string) (model.Balance, error) {
	tokens, err := p.tokens.AccessTokens(ctx, companyID)
	if err != nil {
		return model.Balance{}, fmt.Errorf("failed to load linked accounts: %w", err)
	}
	if len(tokens) == 0 {
		return model.Balance{}, fmt.Errorf("company %s has no linked bank accounts: %w", companyID, common.ErrNotFound)
	}

	total := decimal.Zero
	counted := 0
	for _, token := range tokens {
		accounts, err := p.fetcher.GetAccountBalances(ctx, token)
		if err != nil {
			return model.Balance{}, err
		}
		for _, a := range accounts {
			if a.Type != depositoryType {
				continue
			}
			amount, ok := usableBalance(a)
			if !ok {
				continue
			}
			total = total.Add(decimal.NewFromFloat(amount))
			counted++
		}
	}

	return model.Balance{
		Amount:   total.Round(2).InexactFloat64(),
		AsOf:     p.clock(),
		Accounts: counted,
	}, nil
}

func usableBalance(a AccountBalance) (float64, bool) {
	if a.Available != nil {
		return *a.Available, true
	}
	if a.Current != nil {
		return *a.Current, true
	}
	return 0, false
}

var _ service.BalanceProvider = (*BalanceProvider)(nil)
