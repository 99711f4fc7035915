// Package venue provides connectivity to the bonding-curve trading venue.
package venue

import (
	"context"

	"github.com/shopspring/decimal"
)

// Action is the direction of a trade request.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// TradeRequest is a structured market order. Buys are denominated in SOL,
// sells in tokens.
type TradeRequest struct {
	Action           Action
	Mint             string
	Amount           decimal.Decimal
	DenominatedInSol bool
	Slippage         decimal.Decimal // tolerance, percent
	PriorityFee      decimal.Decimal // SOL
	Pool             string
}

// TradeResult is a parsed fill.
type TradeResult struct {
	Signature string
	Price     decimal.Decimal
	Amount    decimal.Decimal
	Fee       decimal.Decimal
}

// Submitter submits a single trade to the venue and returns the fill or a
// typed failure. Retry policy is the caller's concern; all failures are
// reported uniformly.
type Submitter interface {
	Submit(ctx context.Context, req TradeRequest) (*TradeResult, error)
	Name() string
}
