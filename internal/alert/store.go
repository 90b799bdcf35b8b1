package alert

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// DefaultHistoryLimit bounds how many entries are kept per company.
const DefaultHistoryLimit = 100

// HistoryStore holds the alerts that were actually sent, per company.
// It is the only state consulted for cooldown and daily-cap decisions.
type HistoryStore interface {
	// LastAlertTime returns when the company's most recent alert was sent.
	LastAlertTime(ctx context.Context, companyID string) (time.Time, bool, error)
	// History returns entries sent at or after since, oldest first.
	History(ctx context.Context, companyID string, since time.Time) ([]model.AlertHistoryEntry, error)
	// Append records a sent alert.
	Append(ctx context.Context, entry model.AlertHistoryEntry) error
}

// MemoryStore is a process-local HistoryStore. Its state is lost on restart.
type MemoryStore struct {
	entries map[string][]model.AlertHistoryEntry
	limit   int
	mu      sync.RWMutex
}

// NewMemoryStore creates a MemoryStore keeping at most limit entries per
// company; limit <= 0 means DefaultHistoryLimit.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryStore{
		entries: make(map[string][]model.AlertHistoryEntry),
		limit:   limit,
	}
}

// LastAlertTime implements HistoryStore.
func (m *MemoryStore) LastAlertTime(_ context.Context, companyID string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.entries[companyID]
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}
	return entries[len(entries)-1].SentAt, true, nil
}

// History implements HistoryStore.
func (m *MemoryStore) History(_ context.Context, companyID string, since time.Time) ([]model.AlertHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.AlertHistoryEntry
	for _, e := range m.entries[companyID] {
		if !e.SentAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Append implements HistoryStore. The oldest entry is evicted once the
// per-company limit is exceeded.
func (m *MemoryStore) Append(_ context.Context, entry model.AlertHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := append(m.entries[entry.CompanyID], entry)
	if over := len(entries) - m.limit; over > 0 {
		entries = append([]model.AlertHistoryEntry(nil), entries[over:]...)
	}
	m.entries[entry.CompanyID] = entries
	return nil
}

// Len returns the number of entries held for a company.
func (m *MemoryStore) Len(companyID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries[companyID])
}

var _ HistoryStore = (*MemoryStore)(nil)
