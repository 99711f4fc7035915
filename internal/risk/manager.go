// Package risk evaluates trading signals and owns position storage.
package risk

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"pumpbot/internal/types"
)

// Config holds the risk manager configuration.
type Config struct {
	MaxOpenPositions int
	MaxPositionSize  decimal.Decimal // SOL cap per trade
	MinWalletBalance decimal.Decimal // floor that must remain after a buy

	// Direct position management thresholds.
	TrailingActivation decimal.Decimal // unrealized return that arms the trailing stop
	TrailingStopRatio  decimal.Decimal // candidate stop as a ratio of current price
	TierTwoClosePct    decimal.Decimal // share closed when the second target is hit
	TierOneClosePct    decimal.Decimal // share closed when the first target is hit
	TierTwoMinSize     decimal.Decimal // minimum remaining size to act on target two
	TierOneMinSize     decimal.Decimal // minimum remaining size to act on target one
}

// DefaultConfig returns a conservative default configuration.
func DefaultConfig() Config {
	return Config{
		MaxOpenPositions:   5,
		MaxPositionSize:    decimal.RequireFromString("2.0"),
		MinWalletBalance:   decimal.RequireFromString("0.05"),
		TrailingActivation: decimal.RequireFromString("0.10"),
		TrailingStopRatio:  decimal.RequireFromString("0.90"),
		TierTwoClosePct:    decimal.RequireFromString("0.60"),
		TierOneClosePct:    decimal.RequireFromString("0.50"),
		TierTwoMinSize:     decimal.RequireFromString("0.2"),
		TierOneMinSize:     decimal.RequireFromString("0.5"),
	}
}

// ActionKind classifies the outcome of direct position management.
type ActionKind int

const (
	ActionHold ActionKind = iota
	ActionCloseAll
	ActionPartialClose
	ActionRaiseStop
)

func (k ActionKind) String() string {
	switch k {
	case ActionCloseAll:
		return "close_all"
	case ActionPartialClose:
		return "partial_close"
	case ActionRaiseStop:
		return "raise_stop"
	default:
		return "hold"
	}
}

// PositionAction is the decision returned by ManagePosition.
type PositionAction struct {
	Kind        ActionKind
	ClosePct    decimal.Decimal // set for ActionPartialClose
	NewStopLoss decimal.Decimal // set for ActionRaiseStop
	Reason      string
}

// Manager validates signals against risk limits and owns the position map.
// Positions are only ever mutated through its exposed operations.
// Thread-safe for concurrent access.
type Manager struct {
	mu sync.RWMutex

	cfg       Config
	positions map[string]*types.Position

	totalRealized decimal.Decimal
	closedCount   int

	logger *slog.Logger
}

// NewManager creates a new risk manager.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		cfg:       cfg,
		positions: make(map[string]*types.Position),
		logger:    logger,
	}
}

// EvaluateSignal decides whether a signal may trade and returns the
// risk-adjusted amount. A rejection carries the blocking factors.
func (m *Manager) EvaluateSignal(sig types.Signal, walletBalance decimal.Decimal) types.RiskEvaluation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var blocking []string

	if sig.RecommendedAmount.LessThanOrEqual(decimal.Zero) {
		blocking = append(blocking, "recommended amount not positive")
	}

	if len(m.positions) >= m.cfg.MaxOpenPositions {
		blocking = append(blocking, fmt.Sprintf("max open positions reached (%d)", m.cfg.MaxOpenPositions))
	}

	amount := sig.RecommendedAmount
	if amount.GreaterThan(m.cfg.MaxPositionSize) {
		amount = m.cfg.MaxPositionSize
	}

	available := walletBalance.Sub(m.cfg.MinWalletBalance)
	if available.LessThanOrEqual(decimal.Zero) || available.LessThan(amount) {
		blocking = append(blocking, fmt.Sprintf("insufficient wallet balance (%s available)", available))
	}

	if len(blocking) > 0 {
		m.logger.Info("signal rejected",
			"signal_id", sig.ID,
			"blocking_factors", blocking,
		)
		return types.RiskEvaluation{Approved: false, BlockingFactors: blocking}
	}

	return types.RiskEvaluation{Approved: true, RecommendedAmount: amount}
}

// OpenPosition registers a new position.
func (m *Manager) OpenPosition(pos types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.positions[pos.ID]; exists {
		return fmt.Errorf("position %s already exists", pos.ID)
	}

	p := pos
	m.positions[pos.ID] = &p

	m.logger.Info("position opened",
		"position_id", pos.ID,
		"mint", pos.Mint,
		"entry_price", pos.EntryPrice,
		"entry_amount", pos.EntryAmount,
		"stop_loss", pos.StopLoss,
	)
	return nil
}

// GetPosition returns a copy of the position.
func (m *Manager) GetPosition(id string) (types.Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.positions[id]
	if !ok {
		return types.Position{}, false
	}
	return *pos, true
}

// OpenPositions returns copies of all open positions.
func (m *Manager) OpenPositions() []types.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Position, 0, len(m.positions))
	for _, pos := range m.positions {
		out = append(out, *pos)
	}
	return out
}

// UpdatePositionPrice records a new tracked price for the position and
// returns any threshold alerts. A stop-loss breach takes precedence over
// a take-profit target.
func (m *Manager) UpdatePositionPrice(id string, price decimal.Decimal) ([]types.RiskAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrPositionNotFound, id)
	}

	pos.CurrentPrice = price
	pos.UpdatedAt = time.Now().UTC()

	var alerts []types.RiskAlert

	if pos.StopLoss.IsPositive() && price.LessThanOrEqual(pos.StopLoss) {
		alerts = append(alerts, types.RiskAlert{
			Kind:       types.AlertStopLoss,
			PositionID: id,
			Price:      price,
			Threshold:  pos.StopLoss,
		})
		return alerts, nil
	}

	if len(pos.TakeProfitLevels) > 0 && price.GreaterThanOrEqual(pos.TakeProfitLevels[0]) {
		alerts = append(alerts, types.RiskAlert{
			Kind:       types.AlertTakeProfit,
			PositionID: id,
			Price:      price,
			Threshold:  pos.TakeProfitLevels[0],
		})
	}

	return alerts, nil
}

// ManagePosition applies the direct management policy at the given price:
// stop-loss exit, tiered take-profit, then the trailing-stop ratchet. The
// two take-profit tiers are mutually exclusive, evaluated in descending
// target order. Stops only ever move up.
func (m *Manager) ManagePosition(id string, price decimal.Decimal) (PositionAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[id]
	if !ok {
		return PositionAction{}, fmt.Errorf("%w: %s", types.ErrPositionNotFound, id)
	}

	pos.CurrentPrice = price
	pos.UpdatedAt = time.Now().UTC()

	if pos.StopLoss.IsPositive() && price.LessThanOrEqual(pos.StopLoss) {
		return PositionAction{Kind: ActionCloseAll, Reason: "stop loss hit"}, nil
	}

	if len(pos.TakeProfitLevels) >= 2 &&
		price.GreaterThanOrEqual(pos.TakeProfitLevels[1]) &&
		pos.CurrentAmount.GreaterThan(m.cfg.TierTwoMinSize) {
		return PositionAction{
			Kind:     ActionPartialClose,
			ClosePct: m.cfg.TierTwoClosePct,
			Reason:   "second take-profit target reached",
		}, nil
	}

	if len(pos.TakeProfitLevels) >= 1 &&
		price.GreaterThanOrEqual(pos.TakeProfitLevels[0]) &&
		pos.CurrentAmount.GreaterThan(m.cfg.TierOneMinSize) {
		return PositionAction{
			Kind:     ActionPartialClose,
			ClosePct: m.cfg.TierOneClosePct,
			Reason:   "first take-profit target reached",
		}, nil
	}

	if pos.UnrealizedReturn(price).GreaterThan(m.cfg.TrailingActivation) {
		candidate := price.Mul(m.cfg.TrailingStopRatio)
		if candidate.GreaterThan(pos.StopLoss) {
			pos.StopLoss = candidate
			return PositionAction{
				Kind:        ActionRaiseStop,
				NewStopLoss: candidate,
				Reason:      "trailing stop raised",
			}, nil
		}
	}

	return PositionAction{Kind: ActionHold}, nil
}

// ClosePosition reduces the position by the closed amount at the exit
// price, removing it entirely when nothing remains. The returned flag
// reports whether the position was removed; partial closes leave it open.
func (m *Manager) ClosePosition(id string, exitPrice, amount decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", types.ErrPositionNotFound, id)
	}

	closed := amount
	if closed.GreaterThan(pos.CurrentAmount) {
		closed = pos.CurrentAmount
	}

	realized := exitPrice.Sub(pos.EntryPrice).Mul(closed)
	m.totalRealized = m.totalRealized.Add(realized)

	pos.CurrentAmount = pos.CurrentAmount.Sub(closed)
	pos.CurrentPrice = exitPrice
	pos.UpdatedAt = time.Now().UTC()

	if pos.CurrentAmount.LessThanOrEqual(decimal.Zero) {
		delete(m.positions, id)
		m.closedCount++
		m.logger.Info("position closed",
			"position_id", id,
			"exit_price", exitPrice,
			"realized_pnl", realized,
		)
		return true, nil
	}

	m.logger.Info("position reduced",
		"position_id", id,
		"exit_price", exitPrice,
		"closed_amount", closed,
		"remaining", pos.CurrentAmount,
		"realized_pnl", realized,
	)
	return false, nil
}

// Snapshot summarizes the manager's state.
type Snapshot struct {
	OpenPositions int
	ClosedCount   int
	TotalRealized decimal.Decimal
}

// GetSnapshot returns the current state.
func (m *Manager) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		OpenPositions: len(m.positions),
		ClosedCount:   m.closedCount,
		TotalRealized: m.totalRealized,
	}
}
