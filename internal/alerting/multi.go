package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var _ EventAlerter = (*MultiAlerter)(nil)

// MultiAlerter fans an alert out to every configured channel. Channels are
// contacted concurrently; a slow Telegram call must not hold up the console.
type MultiAlerter struct {
	mu       sync.RWMutex
	alerters []Alerter
	allow    func(event string) bool
	logger   *slog.Logger
}

// NewMultiAlerter creates a fan-out alerter over the given channels.
func NewMultiAlerter(logger *slog.Logger, alerters ...Alerter) *MultiAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiAlerter{
		alerters: alerters,
		logger:   logger,
	}
}

// Name returns the channel name.
func (m *MultiAlerter) Name() string {
	return "multi"
}

// AddAlerter registers another channel.
func (m *MultiAlerter) AddAlerter(alerter Alerter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerters = append(m.alerters, alerter)
}

// SetEventFilter installs a predicate consulted before every event
// delivery. A nil filter allows all events.
func (m *MultiAlerter) SetEventFilter(allow func(event string) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allow = allow
}

// eventEnabled reports whether the operator enabled the event.
func (m *MultiAlerter) eventEnabled(event AlertEvent) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allow == nil || m.allow(string(event))
}

// Alert delivers the alert to all channels and joins any failures. A failed
// channel never blocks delivery to the others.
func (m *MultiAlerter) Alert(ctx context.Context, severity Severity, message string, fields ...any) error {
	m.mu.RLock()
	targets := append([]Alerter(nil), m.alerters...)
	m.mu.RUnlock()

	if len(targets) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		emu  sync.Mutex
		errs []error
	)

	for _, a := range targets {
		wg.Add(1)
		go func(a Alerter) {
			defer wg.Done()
			if err := a.Alert(ctx, severity, message, fields...); err != nil {
				m.logger.Error("alert channel failed",
					"channel", a.Name(),
					"severity", severity.String(),
					"err", err,
				)
				emu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
				emu.Unlock()
			}
		}(a)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// AlertEvent delivers an alert for a predefined event, tagging the event
// name and mapping it to its severity. Events the operator disabled are
// dropped silently.
func (m *MultiAlerter) AlertEvent(ctx context.Context, event AlertEvent, message string, fields ...any) error {
	if !m.eventEnabled(event) {
		return nil
	}
	tagged := append([]any{"event", string(event)}, fields...)
	return m.Alert(ctx, EventSeverity(event), message, tagged...)
}

// SendSessionSummary delivers the end-of-session report to every channel,
// using the channel's native rendering when it has one and a plain alert
// otherwise. Honors the event filter for the session summary event.
func (m *MultiAlerter) SendSessionSummary(ctx context.Context, summary SessionSummary) error {
	if !m.eventEnabled(EventSessionSummary) {
		return nil
	}

	m.mu.RLock()
	targets := append([]Alerter(nil), m.alerters...)
	m.mu.RUnlock()

	var errs []error
	for _, a := range targets {
		var err error
		if sender, ok := a.(SessionSummarySender); ok {
			err = sender.SendSessionSummary(ctx, summary)
		} else {
			err = a.Alert(ctx, EventSeverity(EventSessionSummary), "Session summary",
				"date", summary.Date.Format("2006-01-02"),
				"executions", summary.TotalExecutions,
				"successful", summary.Successful,
				"failed", summary.Failed,
				"success_rate_pct", summary.SuccessRate.StringFixed(1),
				"total_volume_sol", summary.TotalVolume.StringFixed(4),
				"realized_pnl_sol", summary.RealizedPnL.StringFixed(4),
				"open_positions", summary.OpenPositions,
				"closed_positions", summary.ClosedPositions,
			)
		}
		if err != nil {
			m.logger.Error("session summary delivery failed", "channel", a.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
		}
	}
	return errors.Join(errs...)
}
