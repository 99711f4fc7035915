package wallet

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"pumpbot/internal/types"
)

func newTestManager() *Manager {
	return NewManager([]Wallet{
		{ID: "momentum-1", Strategy: "momentum", Balance: decimal.NewFromInt(5)},
		{ID: "shared", Balance: decimal.NewFromInt(10)},
		{ID: "capped", Strategy: "sniper", Balance: decimal.NewFromInt(10),
			MaxDailyUsage: decimal.NewFromInt(1)},
	}, nil)
}

func TestManager_WalletForStrategy_PrefersMatch(t *testing.T) {
	m := newTestManager()

	id, err := m.WalletForStrategy("momentum", decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("WalletForStrategy() error = %v", err)
	}
	if id != "momentum-1" {
		t.Errorf("wallet = %s, want momentum-1", id)
	}
}

func TestManager_WalletForStrategy_FallsBackToUnbound(t *testing.T) {
	m := newTestManager()

	// No wallet is tagged for this strategy; the unbound wallet serves it.
	id, err := m.WalletForStrategy("scalper", decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("WalletForStrategy() error = %v", err)
	}
	if id != "shared" {
		t.Errorf("wallet = %s, want shared", id)
	}
}

func TestManager_WalletForStrategy_NoCapacity(t *testing.T) {
	m := newTestManager()

	_, err := m.WalletForStrategy("momentum", decimal.NewFromInt(100))
	if !errors.Is(err, types.ErrNoWallet) {
		t.Errorf("error = %v, want ErrNoWallet", err)
	}
}

func TestManager_WalletForStrategy_DailyCap(t *testing.T) {
	m := newTestManager()

	// Capped wallet holds 10 but may only spend 1 per day.
	_, err := m.WalletForStrategy("sniper", decimal.NewFromInt(2))
	// Falls back to the unbound wallet, which can fund 2.
	if err != nil {
		t.Fatalf("WalletForStrategy() error = %v", err)
	}

	if err := m.UpdateUsage("capped", decimal.NewFromInt(1)); err != nil {
		t.Fatalf("UpdateUsage() error = %v", err)
	}

	// Now even 1 exceeds the remaining daily budget.
	id, err := m.WalletForStrategy("sniper", decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("WalletForStrategy() error = %v", err)
	}
	if id != "shared" {
		t.Errorf("wallet = %s, want shared after cap exhausted", id)
	}
}

func TestManager_Balance(t *testing.T) {
	m := newTestManager()

	bal, err := m.Balance("shared")
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Balance = %s, want 10", bal)
	}

	if _, err := m.Balance("missing"); !errors.Is(err, types.ErrWalletNotFound) {
		t.Errorf("error = %v, want ErrWalletNotFound", err)
	}
}

func TestManager_UpdateUsage(t *testing.T) {
	m := newTestManager()

	if err := m.UpdateUsage("shared", decimal.NewFromFloat(0.5)); err != nil {
		t.Fatalf("UpdateUsage() error = %v", err)
	}
	if err := m.UpdateUsage("shared", decimal.NewFromFloat(0.25)); err != nil {
		t.Fatalf("UpdateUsage() error = %v", err)
	}

	for _, w := range m.Wallets() {
		if w.ID != "shared" {
			continue
		}
		if !w.UsedToday.Equal(decimal.NewFromFloat(0.75)) {
			t.Errorf("UsedToday = %s, want 0.75", w.UsedToday)
		}
		if w.LastUsed.IsZero() {
			t.Error("LastUsed should be set")
		}
	}

	if err := m.UpdateUsage("missing", decimal.NewFromInt(1)); !errors.Is(err, types.ErrWalletNotFound) {
		t.Errorf("error = %v, want ErrWalletNotFound", err)
	}
}

func TestManager_ResetDailyUsage(t *testing.T) {
	m := newTestManager()

	_ = m.UpdateUsage("shared", decimal.NewFromInt(3))
	m.ResetDailyUsage()

	for _, w := range m.Wallets() {
		if !w.UsedToday.IsZero() {
			t.Errorf("wallet %s UsedToday = %s, want 0", w.ID, w.UsedToday)
		}
	}
}
