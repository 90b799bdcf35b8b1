package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func candidate(id string, typ model.AlertType, sev model.Severity, notify bool) model.AlertTrigger {
	return model.AlertTrigger{
		ID:           id,
		CompanyID:    "acme",
		AlertType:    typ,
		Severity:     sev,
		ShouldNotify: notify,
		Timestamp:    t0,
	}
}

func sent(typ model.AlertType, when time.Time) model.AlertHistoryEntry {
	return model.AlertHistoryEntry{ID: string(typ) + when.String(), CompanyID: "acme", AlertType: typ, SentAt: when}
}

// fakeStore lets a test control LastAlertTime independently of History.
type fakeStore struct {
	last       time.Time
	lastErr    error
	historyErr error
	history    []model.AlertHistoryEntry
	hasLast    bool
}

func (f *fakeStore) LastAlertTime(context.Context, string) (time.Time, bool, error) {
	return f.last, f.hasLast, f.lastErr
}

func (f *fakeStore) History(_ context.Context, _ string, since time.Time) ([]model.AlertHistoryEntry, error) {
	var out []model.AlertHistoryEntry
	for _, e := range f.history {
		if !e.SentAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, f.historyErr
}

func (f *fakeStore) Append(_ context.Context, e model.AlertHistoryEntry) error {
	f.history = append(f.history, e)
	f.last, f.hasLast = e.SentAt, true
	return nil
}

func TestFilterAlerts_NoHistoryPassesNotifiable(t *testing.T) {
	f := NewFilter(NewMemoryStore(0), DefaultPolicy(), at(t0))

	got, err := f.FilterAlerts(context.Background(), "acme", []model.AlertTrigger{
		candidate("1", model.AlertCriticalRisk, model.SeverityCritical, true),
		candidate("2", model.AlertProjectionWarning, model.SeverityInfo, false),
		candidate("3", model.AlertUpcomingPayroll, model.SeverityCritical, true),
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestFilterAlerts_EmptyCandidates(t *testing.T) {
	f := NewFilter(NewMemoryStore(0), DefaultPolicy(), at(t0))
	got, err := f.FilterAlerts(context.Background(), "acme", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// The company-wide cooldown suppresses everything, even an alert more severe
// than the one that started it. This is intentional current behavior.
func TestFilterAlerts_CooldownSuppressesHigherSeverity(t *testing.T) {
	store := NewMemoryStore(0)
	require.NoError(t, store.Append(context.Background(), sent(model.AlertLowBalance, t0)))

	f := NewFilter(store, Policy{Cooldown: 240 * time.Minute, MaxAlertsPerDay: 10}, at(t0.Add(time.Minute)))
	d, err := f.Decide(context.Background(), "acme", []model.AlertTrigger{
		candidate("1", model.AlertCriticalRisk, model.SeverityCritical, true),
	})
	require.NoError(t, err)

	assert.Empty(t, d.Approved)
	assert.Equal(t, 1, d.Suppressed[SuppressedCooldown])
}

func TestFilterAlerts_CooldownBoundary(t *testing.T) {
	store := NewMemoryStore(0)
	require.NoError(t, store.Append(context.Background(), sent(model.AlertLowBalance, t0)))
	policy := Policy{Cooldown: 240 * time.Minute, MaxAlertsPerDay: 10}
	c := []model.AlertTrigger{candidate("1", model.AlertCriticalRisk, model.SeverityCritical, true)}

	got, err := NewFilter(store, policy, at(t0.Add(239*time.Minute))).FilterAlerts(context.Background(), "acme", c)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NewFilter(store, policy, at(t0.Add(240*time.Minute))).FilterAlerts(context.Background(), "acme", c)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFilterAlerts_DailyCap(t *testing.T) {
	store := NewMemoryStore(0)
	policy := Policy{Cooldown: 30 * time.Minute, MaxAlertsPerDay: 10}
	now := t0.Add(24 * time.Hour)

	// Ten alerts over the last day, the newest three hours ago.
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Append(context.Background(), sent(model.AlertLowBalance, now.Add(-time.Duration(20-2*i)*time.Hour-time.Hour))))
	}

	d, err := NewFilter(store, policy, at(now)).Decide(context.Background(), "acme", []model.AlertTrigger{
		candidate("11", model.AlertCriticalRisk, model.SeverityCritical, true),
		candidate("12", model.AlertUpcomingPayroll, model.SeverityWarning, true),
	})
	require.NoError(t, err)
	assert.Empty(t, d.Approved)
	assert.Equal(t, 2, d.Suppressed[SuppressedDailyCap])
}

func TestFilterAlerts_DailyCapIsRolling(t *testing.T) {
	store := NewMemoryStore(0)
	policy := Policy{Cooldown: 30 * time.Minute, MaxAlertsPerDay: 2}
	now := t0.Add(48 * time.Hour)

	require.NoError(t, store.Append(context.Background(), sent(model.AlertLowBalance, now.Add(-25*time.Hour))))
	require.NoError(t, store.Append(context.Background(), sent(model.AlertLowBalance, now.Add(-2*time.Hour))))

	got, err := NewFilter(store, policy, at(now)).FilterAlerts(context.Background(), "acme", []model.AlertTrigger{
		candidate("1", model.AlertCriticalRisk, model.SeverityCritical, true),
		candidate("2", model.AlertUpcomingPayroll, model.SeverityCritical, true),
	})
	require.NoError(t, err)
	require.Len(t, got, 1, "only one slot remains in the rolling window")
	assert.Equal(t, "1", got[0].ID)
}

func TestFilterAlerts_DropsRecentDuplicateTypes(t *testing.T) {
	store := &fakeStore{
		history: []model.AlertHistoryEntry{
			sent(model.AlertLowBalance, t0.Add(-time.Hour)),
			sent(model.AlertCriticalRisk, t0.Add(-6*time.Hour)),
		},
	}

	d, err := NewFilter(store, DefaultPolicy(), at(t0)).Decide(context.Background(), "acme", []model.AlertTrigger{
		candidate("1", model.AlertLowBalance, model.SeverityCritical, true),
		candidate("2", model.AlertCriticalRisk, model.SeverityCritical, true),
		candidate("3", model.AlertProjectionWarning, model.SeverityInfo, false),
	})
	require.NoError(t, err)

	require.Len(t, d.Approved, 1)
	assert.Equal(t, "2", d.Approved[0].ID)
	assert.Equal(t, 1, d.Suppressed[SuppressedDuplicate])
	assert.Equal(t, 1, d.Suppressed[SuppressedNoNotify])
}

func TestFilterAlerts_StoreErrors(t *testing.T) {
	boom := errors.New("boom")
	c := []model.AlertTrigger{candidate("1", model.AlertCriticalRisk, model.SeverityCritical, true)}

	_, err := NewFilter(&fakeStore{lastErr: boom}, DefaultPolicy(), at(t0)).FilterAlerts(context.Background(), "acme", c)
	require.ErrorIs(t, err, boom)

	_, err = NewFilter(&fakeStore{historyErr: boom}, DefaultPolicy(), at(t0)).FilterAlerts(context.Background(), "acme", c)
	require.ErrorIs(t, err, boom)
}

func TestPolicy_Defaults(t *testing.T) {
	f := NewFilter(NewMemoryStore(0), Policy{}, nil)
	assert.Equal(t, DefaultCooldown, f.Policy().Cooldown)
	assert.Equal(t, DefaultMaxAlertsPerDay, f.Policy().MaxAlertsPerDay)
}
