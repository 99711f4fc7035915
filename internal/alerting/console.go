package alerting

import (
	"context"
	"log/slog"
)

// logLevel maps an alert severity onto the process log.
func (s Severity) logLevel() slog.Level {
	switch s {
	case SeverityCritical:
		return slog.LevelError
	case SeverityHigh, SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// ConsoleAlerter writes alerts to the process log. It is the channel of
// last resort when no external channel is configured.
type ConsoleAlerter struct {
	logger *slog.Logger
}

// NewConsoleAlerter creates a console alerter.
func NewConsoleAlerter(logger *slog.Logger) *ConsoleAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleAlerter{logger: logger}
}

// Name returns the channel name.
func (c *ConsoleAlerter) Name() string {
	return "console"
}

// Alert logs the alert at a level derived from its severity.
func (c *ConsoleAlerter) Alert(ctx context.Context, severity Severity, message string, fields ...any) error {
	attrs := append([]any{"severity", severity.String()}, fields...)
	c.logger.Log(ctx, severity.logLevel(), "[ALERT] "+message, attrs...)
	return nil
}
