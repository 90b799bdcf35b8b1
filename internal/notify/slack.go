package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// ChannelSlack names the Slack channel in history entries.
const ChannelSlack = "slack"

// ChannelResolver returns a company-specific Slack channel, or "" to use the default.
type ChannelResolver func(ctx context.Context, companyID string) (string, error)

// SlackNotifier posts alerts to a Slack incoming webhook.
type SlackNotifier struct {
	httpClient *http.Client
	logger     *slog.Logger
	resolve    ChannelResolver
	webhookURL string
	channel    string
}

type slackMessage struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

// NewSlackNotifier creates a notifier for webhookURL. channel optionally
// overrides the webhook's default channel, and resolve, when not nil, names a
// company's own channel.
func NewSlackNotifier(webhookURL, channel string, resolve ChannelResolver) (*SlackNotifier, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("%w: slack webhook URL is required", common.ErrMissingConfig)
	}
	return &SlackNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default().With("component", "slack"),
		resolve:    resolve,
		webhookURL: webhookURL,
		channel:    channel,
	}, nil
}

// Send implements alert.Notifier. Any non-2xx response is a failure.
func (s *SlackNotifier) Send(ctx context.Context, a model.AlertTrigger) (alert.SendResult, error) {
	channel := s.channel
	if s.resolve != nil {
		c, err := s.resolve(ctx, a.CompanyID)
		if err != nil {
			return alert.SendResult{}, fmt.Errorf("failed to resolve slack channel: %w", err)
		}
		if c != "" {
			channel = c
		}
	}

	body, err := json.Marshal(slackMessage{Text: Format(a), Channel: channel})
	if err != nil {
		return alert.SendResult{}, fmt.Errorf("failed to encode slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return alert.SendResult{}, fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return alert.SendResult{}, fmt.Errorf("%w: slack: %w", common.ErrNotifierFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return alert.SendResult{}, fmt.Errorf("%w: %w", common.ErrNotifierFailed, &common.HTTPStatusError{
			Service:    ChannelSlack,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		})
	}

	s.logger.Debug("Posted alert to slack", "alert_id", a.ID, "company_id", a.CompanyID)
	return alert.SendResult{Channel: ChannelSlack, ChannelMessageID: a.ID, Success: true}, nil
}

var _ alert.Notifier = (*SlackNotifier)(nil)
