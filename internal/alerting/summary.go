package alerting

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionSummary contains session trading statistics for the summary report.
type SessionSummary struct {
	Date            time.Time
	TotalExecutions int
	Successful      int
	Failed          int
	SuccessRate     decimal.Decimal
	TotalVolume     decimal.Decimal
	MeanSlippage    decimal.Decimal
	RealizedPnL     decimal.Decimal
	OpenPositions   int
	ClosedPositions int
	QueueDepth      int
}

// NewSessionSummary creates a session summary from the provided data.
func NewSessionSummary(
	date time.Time,
	successful, failed int,
	totalVolume, meanSlippage, realizedPnL decimal.Decimal,
	openPositions, closedPositions, queueDepth int,
) SessionSummary {
	total := successful + failed

	var successRate decimal.Decimal
	if total > 0 {
		successRate = decimal.NewFromInt(int64(successful)).
			Div(decimal.NewFromInt(int64(total))).
			Mul(decimal.NewFromInt(100))
	}

	return SessionSummary{
		Date:            date,
		TotalExecutions: total,
		Successful:      successful,
		Failed:          failed,
		SuccessRate:     successRate,
		TotalVolume:     totalVolume,
		MeanSlippage:    meanSlippage,
		RealizedPnL:     realizedPnL,
		OpenPositions:   openPositions,
		ClosedPositions: closedPositions,
		QueueDepth:      queueDepth,
	}
}
