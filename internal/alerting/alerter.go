// Package alerting provides notification capabilities for the trading bot.
package alerting

import (
	"context"
	"fmt"
)

// Severity represents the alert severity level.
type Severity int

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning is for warning messages.
	SeverityWarning
	// SeverityHigh is for high priority alerts.
	SeverityHigh
	// SeverityCritical is for critical alerts requiring immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Emoji returns an emoji for the severity level.
func (s Severity) Emoji() string {
	switch s {
	case SeverityInfo:
		return "ℹ️"
	case SeverityWarning:
		return "⚠️"
	case SeverityHigh:
		return "🔴"
	case SeverityCritical:
		return "🚨"
	default:
		return "❓"
	}
}

// Alerter defines the interface for sending alerts.
type Alerter interface {
	// Alert sends an alert with the given severity and message.
	Alert(ctx context.Context, severity Severity, message string, fields ...any) error
	// Name returns the name of the alerter.
	Name() string
}

// EventAlerter is an Alerter that additionally routes predefined events,
// so delivery can be filtered per event by the operator's configuration.
type EventAlerter interface {
	Alerter
	// AlertEvent sends an alert for a predefined event, mapped to its
	// default severity.
	AlertEvent(ctx context.Context, event AlertEvent, message string, fields ...any) error
}

// SessionSummarySender is implemented by channels with a native rendering
// of the end-of-session report.
type SessionSummarySender interface {
	SendSessionSummary(ctx context.Context, summary SessionSummary) error
}

// FormatFields converts variadic key-value fields to a formatted string.
func FormatFields(fields ...any) string {
	if len(fields) == 0 {
		return ""
	}

	result := ""
	for i := 0; i < len(fields)-1; i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		value := fields[i+1]
		if result != "" {
			result += "\n"
		}
		result += fmt.Sprintf("• %s: %v", key, value)
	}
	return result
}

// AlertEvent represents a pre-defined alert event type.
type AlertEvent string

const (
	// EventExecutionCompleted is sent when an order fills successfully.
	EventExecutionCompleted AlertEvent = "execution_completed"
	// EventExecutionFailed is sent when an order exhausts its retries.
	EventExecutionFailed AlertEvent = "execution_failed"
	// EventSignalRejected is sent when risk evaluation blocks a signal.
	EventSignalRejected AlertEvent = "signal_rejected"
	// EventStopLossTriggered is sent when a position's stop loss fires.
	EventStopLossTriggered AlertEvent = "stop_loss_triggered"
	// EventTakeProfitTriggered is sent when a take-profit target is hit.
	EventTakeProfitTriggered AlertEvent = "take_profit_triggered"
	// EventPositionOpened is sent when a position is opened.
	EventPositionOpened AlertEvent = "position_opened"
	// EventPositionClosed is sent when a position is closed.
	EventPositionClosed AlertEvent = "position_closed"
	// EventSessionSummary is sent for the session trading summary.
	EventSessionSummary AlertEvent = "session_summary"
	// EventBotStarted is sent when the bot starts.
	EventBotStarted AlertEvent = "bot_started"
	// EventBotStopped is sent when the bot stops.
	EventBotStopped AlertEvent = "bot_stopped"
)

// EventSeverity returns the default severity for an event.
func EventSeverity(event AlertEvent) Severity {
	switch event {
	case EventStopLossTriggered:
		return SeverityHigh
	case EventExecutionFailed, EventSignalRejected:
		return SeverityWarning
	case EventExecutionCompleted, EventTakeProfitTriggered,
		EventPositionOpened, EventPositionClosed:
		return SeverityInfo
	case EventSessionSummary, EventBotStarted, EventBotStopped:
		return SeverityInfo
	default:
		return SeverityInfo
	}
}
