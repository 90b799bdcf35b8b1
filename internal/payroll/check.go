// Package payroll provides the sources of upcoming payroll obligations: the
// Check payroll API, payroll runs recorded in storage, and CSV imports.
package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

const (
	// DefaultCheckBaseURL is the production Check API.
	DefaultCheckBaseURL = "https://api.checkhq.com"
	// SandboxCheckBaseURL is the Check sandbox.
	SandboxCheckBaseURL = "https://sandbox.checkhq.com"

	defaultHTTPTimeout = 30 * time.Second
	maxPages           = 20
)

// ErrForeignPageLink is returned when a pagination link points away from the
// configured API host.
var ErrForeignPageLink = errors.New("pagination link leaves the check API host")

// CheckConfig holds Check API configuration.
type CheckConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Validate ensures all required fields are present.
func (c *CheckConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: check API key is required", common.ErrMissingConfig)
	}
	if c.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
			return fmt.Errorf("%w: check base URL: %v", common.ErrInvalidConfig, err)
		}
	}
	return nil
}

// CheckClient reads draft payrolls from the Check API.
type CheckClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	clock      func() time.Time
	apiKey     string
	baseURL    string
	retryOpts  service.RetryOptions
}

// NewCheckClient creates a Check API client.
func NewCheckClient(cfg CheckConfig) (*CheckClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCheckBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	return &CheckClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default().With("component", "check"),
		clock:      time.Now,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		retryOpts:  service.DefaultRetryOptions(),
	}, nil
}

type checkPayrollList struct {
	Next    *string        `json:"next"`
	Results []checkPayroll `json:"results"`
}

type checkPayroll struct {
	ID     string            `json:"id"`
	Payday string            `json:"payday"`
	Status string            `json:"status"`
	Totals checkTotals       `json:"totals"`
	Items  []json.RawMessage `json:"items"`
}

type checkTotals struct {
	NetPay       string `json:"net_pay"`
	CompanyDebit string `json:"company_debit"`
}

// GetUpcomingPayrollObligations implements service.PayrollProvider. Draft
// payrolls with a payday in [today, today+monthsAhead) are returned ascending
// by payday.
func (c *CheckClient) GetUpcomingPayrollObligations(ctx context.Context, companyID string, monthsAhead int) ([]model.PayrollObligation, error) {
	if companyID == "" {
		return nil, fmt.Errorf("company ID is required")
	}
	if monthsAhead <= 0 {
		monthsAhead = 3
	}

	start, end := window(c.clock(), monthsAhead)

	q := url.Values{}
	q.Set("company", companyID)
	q.Set("status", "draft")
	q.Set("payday_after", start.Format(time.DateOnly))
	next := c.baseURL + "/payrolls?" + q.Encode()

	var obligations []model.PayrollObligation
	for page := 0; next != "" && page < maxPages; page++ {
		var list checkPayrollList
		pageURL := next
		err := common.WithRetry(ctx, func() error {
			return c.getJSON(ctx, pageURL, &list)
		}, c.retryOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to list payrolls: %w", err)
		}

		for _, p := range list.Results {
			ob, err := p.obligation()
			if err != nil {
				c.logger.Warn("Skipping malformed payroll", "payroll_id", p.ID, "error", err)
				continue
			}
			if ob.Date.Before(start) || !ob.Date.Before(end) {
				continue
			}
			obligations = append(obligations, ob)
		}

		next = ""
		if list.Next != nil && *list.Next != "" {
			if next, err = c.nextPage(*list.Next); err != nil {
				return nil, err
			}
		}
	}

	sort.SliceStable(obligations, func(i, j int) bool {
		return obligations[i].Date.Before(obligations[j].Date)
	})

	c.logger.Debug("Fetched upcoming payrolls", "company_id", companyID, "count", len(obligations))
	return obligations, nil
}

// nextPage resolves a pagination link against the base URL. Links to another
// scheme or host are refused so the API key is only ever sent to the API.
func (c *CheckClient) nextPage(raw string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: check base URL: %v", common.ErrInvalidConfig, err)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid next page link %q: %w", raw, err)
	}

	next := base.ResolveReference(ref)
	if next.Scheme != base.Scheme || next.Host != base.Host {
		return "", fmt.Errorf("%w: %s", ErrForeignPageLink, next.Host)
	}
	return next.String(), nil
}

func (c *CheckClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to build request: %w", err), Retryable: false}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("check request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &common.HTTPStatusError{
			Service:    "check",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to decode check response: %w", err), Retryable: false}
	}
	return nil
}

func (p checkPayroll) obligation() (model.PayrollObligation, error) {
	payday, err := time.Parse(time.DateOnly, p.Payday)
	if err != nil {
		return model.PayrollObligation{}, fmt.Errorf("invalid payday %q: %w", p.Payday, err)
	}

	raw := p.Totals.NetPay
	if raw == "" {
		raw = p.Totals.CompanyDebit
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return model.PayrollObligation{}, fmt.Errorf("invalid net pay %q: %w", raw, err)
	}

	ob := model.PayrollObligation{
		Date:          payday,
		Amount:        amount.Round(2).InexactFloat64(),
		Description:   "Payroll " + p.ID,
		EmployeeCount: len(p.Items),
	}
	if err := ob.Validate(); err != nil {
		return model.PayrollObligation{}, err
	}
	return ob, nil
}

// window returns [start of today, start of today + monthsAhead) in UTC.
func window(now time.Time, monthsAhead int) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, monthsAhead, 0)
}

var _ service.PayrollProvider = (*CheckClient)(nil)
