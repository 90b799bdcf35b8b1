// Package alert decides which alert candidates are worth sending and records
// the ones that were sent.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// Default policy values.
const (
	DefaultCooldown        = 240 * time.Minute
	DefaultMaxAlertsPerDay = 10
)

// Policy configures alert suppression.
type Policy struct {
	Cooldown        time.Duration
	MaxAlertsPerDay int
}

// DefaultPolicy returns the default cooldown and daily cap.
func DefaultPolicy() Policy {
	return Policy{
		Cooldown:        DefaultCooldown,
		MaxAlertsPerDay: DefaultMaxAlertsPerDay,
	}
}

func (p Policy) withDefaults() Policy {
	if p.Cooldown <= 0 {
		p.Cooldown = DefaultCooldown
	}
	if p.MaxAlertsPerDay <= 0 {
		p.MaxAlertsPerDay = DefaultMaxAlertsPerDay
	}
	return p
}

// SuppressReason says why a candidate was not returned by the filter.
type SuppressReason string

// Suppression reasons.
const (
	SuppressedCooldown  SuppressReason = "cooldown"
	SuppressedDailyCap  SuppressReason = "daily_cap"
	SuppressedDuplicate SuppressReason = "duplicate_type"
	SuppressedNoNotify  SuppressReason = "no_notify"
)

// Decision is the outcome of filtering one batch of candidates.
type Decision struct {
	Suppressed map[SuppressReason]int
	Approved   []model.AlertTrigger
}

// Filter applies cooldown, daily-cap and duplicate suppression against a HistoryStore.
//
// Filter does no locking of its own; callers that act on its result must
// serialise per company (Dispatcher does).
type Filter struct {
	store  HistoryStore
	clock  func() time.Time
	policy Policy
}

// NewFilter creates a Filter. A nil clock means time.Now.
func NewFilter(store HistoryStore, policy Policy, clock func() time.Time) *Filter {
	if clock == nil {
		clock = time.Now
	}
	return &Filter{
		store:  store,
		policy: policy.withDefaults(),
		clock:  clock,
	}
}

// Policy returns the effective policy.
func (f *Filter) Policy() Policy {
	return f.policy
}

// FilterAlerts returns the candidates that may be dispatched now.
func (f *Filter) FilterAlerts(ctx context.Context, companyID string, candidates []model.AlertTrigger) ([]model.AlertTrigger, error) {
	d, err := f.Decide(ctx, companyID, candidates)
	if err != nil {
		return nil, err
	}
	return d.Approved, nil
}

// Decide is FilterAlerts with suppression counts.
//
// The whole-company cooldown runs first and suppresses every candidate, including
// ones more severe than the alert that started the cooldown.
func (f *Filter) Decide(ctx context.Context, companyID string, candidates []model.AlertTrigger) (Decision, error) {
	d := Decision{Suppressed: make(map[SuppressReason]int)}
	if len(candidates) == 0 {
		return d, nil
	}

	now := f.clock()

	last, ok, err := f.store.LastAlertTime(ctx, companyID)
	if err != nil {
		return d, fmt.Errorf("failed to load last alert time: %w", err)
	}
	if ok && now.Sub(last) < f.policy.Cooldown {
		d.Suppressed[SuppressedCooldown] = len(candidates)
		return d, nil
	}

	dayStart := now.Add(-24 * time.Hour)
	cooldownStart := now.Add(-f.policy.Cooldown)
	windowStart := dayStart
	if cooldownStart.Before(windowStart) {
		windowStart = cooldownStart
	}

	history, err := f.store.History(ctx, companyID, windowStart)
	if err != nil {
		return d, fmt.Errorf("failed to load alert history: %w", err)
	}

	sentToday := 0
	recentTypes := make(map[model.AlertType]bool)
	for _, e := range history {
		if e.SentAt.After(dayStart) {
			sentToday++
		}
		if e.SentAt.After(cooldownStart) {
			recentTypes[e.AlertType] = true
		}
	}

	if sentToday >= f.policy.MaxAlertsPerDay {
		d.Suppressed[SuppressedDailyCap] = len(candidates)
		return d, nil
	}

	remaining := f.policy.MaxAlertsPerDay - sentToday
	for _, c := range candidates {
		switch {
		case recentTypes[c.AlertType]:
			d.Suppressed[SuppressedDuplicate]++
		case !c.ShouldNotify:
			d.Suppressed[SuppressedNoNotify]++
		case len(d.Approved) >= remaining:
			d.Suppressed[SuppressedDailyCap]++
		default:
			d.Approved = append(d.Approved, c)
		}
	}

	return d, nil
}
