package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// ErrSendFailed is reported for a send that returned no error but was not accepted.
var ErrSendFailed = errors.New("notification channel did not accept alert")

// SendResult is what a notification channel reports for one alert.
type SendResult struct {
	Channel          string
	ChannelMessageID string
	Success          bool
}

// Notifier delivers an alert to a notification channel.
type Notifier interface {
	Send(ctx context.Context, alert model.AlertTrigger) (SendResult, error)
}

// Observer receives dispatch outcomes, typically to record metrics.
type Observer interface {
	AlertSent(alertType model.AlertType)
	AlertFailed(alertType model.AlertType)
	AlertsSuppressed(reason SuppressReason, count int)
}

// FailedSend is an approved alert the channel did not deliver.
type FailedSend struct {
	Err   error
	Alert model.AlertTrigger
}

// DispatchResult summarises one Dispatch call.
type DispatchResult struct {
	Suppressed map[SuppressReason]int
	Sent       []model.AlertHistoryEntry
	Failed     []FailedSend
}

// Dispatcher filters candidates, sends the survivors and records the ones that
// were delivered. Filtering, sending and recording happen under a per-company
// lock so two concurrent assessments of one company cannot both pass the cooldown.
type Dispatcher struct {
	filter   *Filter
	store    HistoryStore
	notifier Notifier
	observer Observer
	logger   *slog.Logger
	clock    func() time.Time
	locks    keyedMutex
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObserver attaches an Observer.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithDispatchClock sets the clock used for filtering and history timestamps.
func WithDispatchClock(clock func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// NewDispatcher creates a Dispatcher over store and notifier.
func NewDispatcher(store HistoryStore, notifier Notifier, policy Policy, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		notifier: notifier,
		clock:    time.Now,
		logger:   slog.Default().With("component", "alert-dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.filter = NewFilter(store, policy, d.clock)
	return d
}

// Filter returns the dispatcher's filter.
func (d *Dispatcher) Filter() *Filter {
	return d.filter
}

// Dispatch sends whichever candidates the filter approves. Only successful sends
// are appended to history, so a failing channel never consumes cooldown or the
// daily cap. The returned error is non-nil only when history could not be read
// or written.
func (d *Dispatcher) Dispatch(ctx context.Context, companyID string, candidates []model.AlertTrigger) (DispatchResult, error) {
	unlock := d.locks.lock(companyID)
	defer unlock()

	decision, err := d.filter.Decide(ctx, companyID, candidates)
	if err != nil {
		return DispatchResult{}, err
	}

	result := DispatchResult{Suppressed: decision.Suppressed}
	if d.observer != nil {
		for reason, n := range decision.Suppressed {
			d.observer.AlertsSuppressed(reason, n)
		}
	}

	for _, c := range decision.Approved {
		res, sendErr := d.notifier.Send(ctx, c)
		if sendErr == nil && !res.Success {
			sendErr = ErrSendFailed
		}
		if sendErr != nil {
			d.logger.Warn("Alert send failed",
				"company_id", companyID,
				"alert_type", c.AlertType,
				"error", sendErr)
			result.Failed = append(result.Failed, FailedSend{Alert: c, Err: sendErr})
			if d.observer != nil {
				d.observer.AlertFailed(c.AlertType)
			}
			continue
		}

		entry := c.HistoryEntry(d.clock(), res.Channel, res.ChannelMessageID)
		if err := d.store.Append(ctx, entry); err != nil {
			return result, fmt.Errorf("failed to record sent alert %s: %w", c.ID, err)
		}
		result.Sent = append(result.Sent, entry)
		if d.observer != nil {
			d.observer.AlertSent(c.AlertType)
		}

		d.logger.Info("Alert sent",
			"company_id", companyID,
			"alert_type", c.AlertType,
			"severity", c.Severity,
			"channel", res.Channel)
	}

	return result, nil
}

// keyedMutex hands out one mutex per key. Keys are company ids, a small set,
// so mutexes are never released.
type keyedMutex struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
