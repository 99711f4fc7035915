// Package types defines shared types used across the trading system.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind represents the kind of order driven through the execution
// pipeline. Close orders (stop-loss, take-profit) reference a position
// instead of an originating signal.
type OrderKind int

const (
	KindBuy OrderKind = iota
	KindSell
	KindStopLoss
	KindTakeProfit
)

func (k OrderKind) String() string {
	switch k {
	case KindBuy:
		return "buy"
	case KindSell:
		return "sell"
	case KindStopLoss:
		return "stop_loss"
	case KindTakeProfit:
		return "take_profit"
	default:
		return "unknown"
	}
}

// IsClose returns true for order kinds that reduce or close a position.
func (k OrderKind) IsClose() bool {
	switch k {
	case KindSell, KindStopLoss, KindTakeProfit:
		return true
	default:
		return false
	}
}

// ExecStatus represents the state of an execution record.
type ExecStatus int

const (
	ExecPending ExecStatus = iota
	ExecExecuting
	ExecCompleted
	ExecFailed
	ExecCancelled
)

func (s ExecStatus) String() string {
	switch s {
	case ExecPending:
		return "pending"
	case ExecExecuting:
		return "executing"
	case ExecCompleted:
		return "completed"
	case ExecFailed:
		return "failed"
	case ExecCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the execution is in a terminal state.
func (s ExecStatus) IsTerminal() bool {
	switch s {
	case ExecCompleted, ExecFailed, ExecCancelled:
		return true
	default:
		return false
	}
}

// Signal represents a scored trading recommendation produced outside the
// execution core.
type Signal struct {
	ID                string
	Mint              string // token mint address on the bonding curve
	Strategy          string
	RecommendedAmount decimal.Decimal // SOL-denominated
	StopLoss          decimal.Decimal
	TakeProfitLevels  []decimal.Decimal // ascending price targets
	Confidence        decimal.Decimal   // 0-1
	Reason            string
}

// Position represents an open or partially-closed holding, owned by the
// risk manager. The execution core treats it as read-only except through
// the risk manager's accessor operations.
type Position struct {
	ID               string
	Mint             string
	WalletID         string
	Strategy         string
	EntryPrice       decimal.Decimal
	EntryAmount      decimal.Decimal
	CurrentAmount    decimal.Decimal
	CurrentPrice     decimal.Decimal
	StopLoss         decimal.Decimal
	TakeProfitLevels []decimal.Decimal
	OpenedAt         time.Time
	UpdatedAt        time.Time
}

// UnrealizedReturn returns the fractional return at the given price
// (0.10 = +10%). Zero entry price yields zero.
func (p *Position) UnrealizedReturn(price decimal.Decimal) decimal.Decimal {
	if p.EntryPrice.IsZero() {
		return decimal.Zero
	}
	return price.Sub(p.EntryPrice).Div(p.EntryPrice)
}

// RiskEvaluation is the risk manager's decision on a signal.
type RiskEvaluation struct {
	Approved          bool
	BlockingFactors   []string
	RecommendedAmount decimal.Decimal // risk-adjusted, SOL-denominated
}

// AlertKind classifies risk alerts raised on a position price update.
type AlertKind int

const (
	AlertStopLoss AlertKind = iota
	AlertTakeProfit
)

func (k AlertKind) String() string {
	switch k {
	case AlertStopLoss:
		return "position_stop_loss"
	case AlertTakeProfit:
		return "position_take_profit"
	default:
		return "unknown"
	}
}

// RiskAlert is raised by the risk manager when a position price update
// crosses a stop-loss or take-profit threshold.
type RiskAlert struct {
	Kind       AlertKind
	PositionID string
	Price      decimal.Decimal
	Threshold  decimal.Decimal
}
