package alerting

import (
	"context"
	"strings"
	"sync"
)

var _ EventAlerter = (*MockAlerter)(nil)

// MockAlert is one captured delivery.
type MockAlert struct {
	Event    AlertEvent // empty for plain alerts
	Severity Severity
	Message  string
	Fields   []any
}

// MockAlerter records alerts in memory for test assertions.
type MockAlerter struct {
	mu     sync.Mutex
	alerts []MockAlert
}

// NewMockAlerter creates an empty recording alerter.
func NewMockAlerter() *MockAlerter {
	return &MockAlerter{}
}

// Name returns the channel name.
func (m *MockAlerter) Name() string {
	return "mock"
}

// Alert records the delivery and always succeeds.
func (m *MockAlerter) Alert(_ context.Context, severity Severity, message string, fields ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, MockAlert{Severity: severity, Message: message, Fields: fields})
	return nil
}

// AlertEvent records the event delivery at its mapped severity.
func (m *MockAlerter) AlertEvent(_ context.Context, event AlertEvent, message string, fields ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, MockAlert{
		Event:    event,
		Severity: EventSeverity(event),
		Message:  message,
		Fields:   fields,
	})
	return nil
}

// Alerts returns a copy of everything recorded so far.
func (m *MockAlerter) Alerts() []MockAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockAlert(nil), m.alerts...)
}

// Clear discards all recorded alerts.
func (m *MockAlerter) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = nil
}

// Count returns how many alerts were recorded.
func (m *MockAlerter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

// HasAlertWithSeverity reports whether any recorded alert carries the
// severity.
func (m *MockAlerter) HasAlertWithSeverity(severity Severity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.Severity == severity {
			return true
		}
	}
	return false
}

// HasAlertForEvent reports whether the event was delivered.
func (m *MockAlerter) HasAlertForEvent(event AlertEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.Event == event {
			return true
		}
	}
	return false
}

// HasAlertContaining reports whether any recorded message contains the
// substring.
func (m *MockAlerter) HasAlertContaining(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if strings.Contains(a.Message, substr) {
			return true
		}
	}
	return false
}

// LastAlert returns the most recent alert, or nil when none were recorded.
func (m *MockAlerter) LastAlert() *MockAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.alerts) == 0 {
		return nil
	}
	last := m.alerts[len(m.alerts)-1]
	return &last
}
