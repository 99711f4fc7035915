package venue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"pumpbot/internal/types"
)

func newTestSimulator() *Simulator {
	cfg := SimConfig{
		SlippagePct: decimal.RequireFromString("1.0"),
		FeePerTrade: decimal.RequireFromString("0.0001"),
	}
	return NewSimulator(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSimulator_Submit_BuySlipsAgainstCaller(t *testing.T) {
	sim := newTestSimulator()
	sim.SetPrice("MintAAA", decimal.RequireFromString("0.001"))

	res, err := sim.Submit(context.Background(), TradeRequest{
		Action:           ActionBuy,
		Mint:             "MintAAA",
		Amount:           decimal.RequireFromString("0.5"),
		DenominatedInSol: true,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// 1% slippage on a buy raises the fill price.
	wantPrice := decimal.RequireFromString("0.00101")
	if !res.Price.Equal(wantPrice) {
		t.Errorf("Price = %s, want %s", res.Price, wantPrice)
	}

	// SOL-denominated buy: fill amount is the token quantity.
	wantAmount := decimal.RequireFromString("0.5").Div(wantPrice)
	if !res.Amount.Equal(wantAmount) {
		t.Errorf("Amount = %s, want %s", res.Amount, wantAmount)
	}

	if res.Signature == "" {
		t.Error("Signature should be set")
	}
	if !res.Fee.Equal(decimal.RequireFromString("0.0001")) {
		t.Errorf("Fee = %s, want 0.0001", res.Fee)
	}
}

func TestSimulator_Submit_SellSlipsDown(t *testing.T) {
	sim := newTestSimulator()
	sim.SetPrice("MintAAA", decimal.RequireFromString("0.001"))

	res, err := sim.Submit(context.Background(), TradeRequest{
		Action: ActionSell,
		Mint:   "MintAAA",
		Amount: decimal.RequireFromString("500"),
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	wantPrice := decimal.RequireFromString("0.00099")
	if !res.Price.Equal(wantPrice) {
		t.Errorf("Price = %s, want %s", res.Price, wantPrice)
	}

	// Token-denominated sell echoes the tokens sold.
	if !res.Amount.Equal(decimal.RequireFromString("500")) {
		t.Errorf("Amount = %s, want 500", res.Amount)
	}
}

func TestSimulator_Submit_InjectedFailures(t *testing.T) {
	sim := newTestSimulator()
	sim.SetPrice("MintAAA", decimal.RequireFromString("0.001"))
	sim.FailNext("MintAAA", 2)

	req := TradeRequest{Action: ActionBuy, Mint: "MintAAA", Amount: decimal.NewFromInt(1), DenominatedInSol: true}

	for i := 0; i < 2; i++ {
		if _, err := sim.Submit(context.Background(), req); !errors.Is(err, types.ErrVenueRejected) {
			t.Fatalf("attempt %d: error = %v, want ErrVenueRejected", i+1, err)
		}
	}

	// Failures exhausted, the third attempt fills.
	if _, err := sim.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit() after failures error = %v", err)
	}

	if got := sim.Submits(); got != 3 {
		t.Errorf("Submits() = %d, want 3", got)
	}
}

func TestSimulator_Submit_NoPrice(t *testing.T) {
	sim := newTestSimulator()

	_, err := sim.Submit(context.Background(), TradeRequest{
		Action: ActionBuy,
		Mint:   "Unknown",
		Amount: decimal.NewFromInt(1),
	})
	if !errors.Is(err, types.ErrVenueRejected) {
		t.Errorf("error = %v, want ErrVenueRejected", err)
	}
}
