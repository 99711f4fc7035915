package venue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"pumpbot/internal/types"
)

// SimConfig holds configuration for the simulated venue.
type SimConfig struct {
	SlippagePct decimal.Decimal // applied against the caller on every fill
	FeePerTrade decimal.Decimal // SOL
	FillDelay   time.Duration
}

// DefaultSimConfig returns default simulation config.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		SlippagePct: decimal.RequireFromString("0.5"),
		FeePerTrade: decimal.RequireFromString("0.0001"),
		FillDelay:   0,
	}
}

// Simulator implements Submitter with scriptable prices and failures.
// Used for paper trading and tests.
type Simulator struct {
	cfg    SimConfig
	logger *slog.Logger

	mu       sync.Mutex
	prices   map[string]decimal.Decimal // mint -> current price
	failures map[string]int             // mint -> remaining failures to inject
	submits  atomic.Int64
	nextSig  atomic.Int64
}

// NewSimulator creates a new simulated venue.
func NewSimulator(cfg SimConfig, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		cfg:      cfg,
		logger:   logger,
		prices:   make(map[string]decimal.Decimal),
		failures: make(map[string]int),
	}
}

// Name returns the venue name.
func (s *Simulator) Name() string {
	return "sim"
}

// SetPrice sets the simulated price for a mint.
func (s *Simulator) SetPrice(mint string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[mint] = price
}

// FailNext makes the next n submissions for a mint fail.
func (s *Simulator) FailNext(mint string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[mint] = n
}

// Submits returns the total number of submission attempts observed.
func (s *Simulator) Submits() int64 {
	return s.submits.Load()
}

// Submit fills the trade at the scripted price, or returns an injected
// failure.
func (s *Simulator) Submit(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	s.submits.Add(1)

	if s.cfg.FillDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.FillDelay):
		}
	}

	s.mu.Lock()
	if n := s.failures[req.Mint]; n > 0 {
		s.failures[req.Mint] = n - 1
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: injected failure", types.ErrVenueRejected)
	}
	price, ok := s.prices[req.Mint]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: no price for mint %s", types.ErrVenueRejected, req.Mint)
	}

	// Slippage works against the caller.
	slip := price.Mul(s.cfg.SlippagePct).Div(decimal.NewFromInt(100))
	fillPrice := price
	if req.Action == ActionBuy {
		fillPrice = fillPrice.Add(slip)
	} else {
		fillPrice = fillPrice.Sub(slip)
	}

	// Buys are SOL-denominated: the fill amount is the token quantity
	// bought. Sells are token-denominated: the fill amount echoes the
	// tokens sold.
	fillAmount := req.Amount
	if req.DenominatedInSol && fillPrice.IsPositive() {
		fillAmount = req.Amount.Div(fillPrice)
	}

	result := &TradeResult{
		Signature: fmt.Sprintf("SIM-%d", s.nextSig.Add(1)),
		Price:     fillPrice,
		Amount:    fillAmount,
		Fee:       s.cfg.FeePerTrade,
	}

	s.logger.Debug("simulated fill",
		"action", req.Action,
		"mint", req.Mint,
		"price", result.Price,
		"amount", result.Amount,
	)

	return result, nil
}

// Ensure Simulator implements Submitter.
var _ Submitter = (*Simulator)(nil)
