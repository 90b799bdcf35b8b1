package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// ChannelLog names the log channel in history entries.
const ChannelLog = "log"

// MultiNotifier tries each channel in order and stops at the first that
// accepts the alert.
type MultiNotifier struct {
	logger    *slog.Logger
	notifiers []alert.Notifier
}

// NewMultiNotifier creates a MultiNotifier over notifiers, in priority order.
func NewMultiNotifier(notifiers ...alert.Notifier) *MultiNotifier {
	return &MultiNotifier{
		logger:    slog.Default().With("component", "notify"),
		notifiers: notifiers,
	}
}

// Send implements alert.Notifier.
func (m *MultiNotifier) Send(ctx context.Context, a model.AlertTrigger) (alert.SendResult, error) {
	if len(m.notifiers) == 0 {
		return alert.SendResult{}, fmt.Errorf("%w: no notification channels configured", common.ErrNotifierFailed)
	}

	var errs []error
	for _, n := range m.notifiers {
		res, err := n.Send(ctx, a)
		if err == nil && res.Success {
			return res, nil
		}
		if err == nil {
			err = alert.ErrSendFailed
		}
		m.logger.Warn("Notification channel failed, trying next",
			"alert_id", a.ID,
			"error", err)
		errs = append(errs, err)
	}
	return alert.SendResult{}, errors.Join(errs...)
}

// NewChain returns the notifier for the configured delivery channels, in
// priority order. With no channel configured, alerts only go to the log. The
// log is never a fallback behind a real channel: a failed delivery must stay
// failed so it does not start the cooldown.
func NewChain(channels ...alert.Notifier) alert.Notifier {
	if len(channels) == 0 {
		slog.Default().With("component", "notify").
			Warn("No notification channel configured; alerts will only be logged")
		return NewLogNotifier()
	}
	return NewMultiNotifier(channels...)
}

// LogNotifier writes alerts to the structured log. It backs dry runs and
// deployments without a chat channel.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: slog.Default().With("component", "alerts")}
}

// Send implements alert.Notifier.
func (l *LogNotifier) Send(_ context.Context, a model.AlertTrigger) (alert.SendResult, error) {
	l.logger.Warn("Payroll alert",
		"alert_id", a.ID,
		"company_id", a.CompanyID,
		"alert_type", a.AlertType,
		"severity", a.Severity,
		"risk_score", a.RiskScore,
		"message", a.Message)
	return alert.SendResult{Channel: ChannelLog, ChannelMessageID: a.ID, Success: true}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

var (
	_ alert.Notifier = (*MultiNotifier)(nil)
	_ alert.Notifier = (*LogNotifier)(nil)
)
