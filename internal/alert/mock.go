package alert

import (
	"context"
	"sync"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// MockNotifier is a Notifier for tests. It is safe for concurrent use.
type MockNotifier struct {
	// SendFn controls behavior; nil means every send succeeds.
	SendFn func(ctx context.Context, alert model.AlertTrigger) (SendResult, error)

	calls []model.AlertTrigger
	mu    sync.Mutex
}

// NewMockNotifier creates a MockNotifier that accepts everything.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send implements Notifier.
func (m *MockNotifier) Send(ctx context.Context, alert model.AlertTrigger) (SendResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, alert)
	fn := m.SendFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, alert)
	}
	return SendResult{Success: true, Channel: "mock", ChannelMessageID: "msg-" + alert.ID}, nil
}

// Calls returns a copy of every alert passed to Send.
func (m *MockNotifier) Calls() []model.AlertTrigger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AlertTrigger(nil), m.calls...)
}

// Reset clears call tracking.
func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var _ Notifier = (*MockNotifier)(nil)
