// Package wallet allocates funding wallets to trading strategies and
// tracks their daily usage.
package wallet

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"pumpbot/internal/types"
)

// Wallet is a funding wallet bound to a strategy tag.
type Wallet struct {
	ID            string
	Strategy      string // empty matches any strategy
	Balance       decimal.Decimal
	UsedToday     decimal.Decimal
	MaxDailyUsage decimal.Decimal // zero disables the daily cap
	LastUsed      time.Time
}

// available returns the amount the wallet can still fund today.
func (w *Wallet) available() decimal.Decimal {
	avail := w.Balance
	if w.MaxDailyUsage.IsPositive() {
		remaining := w.MaxDailyUsage.Sub(w.UsedToday)
		if remaining.LessThan(avail) {
			avail = remaining
		}
	}
	return avail
}

// Manager owns the wallet set behind accessor operations.
// Thread-safe for concurrent access.
type Manager struct {
	mu      sync.RWMutex
	wallets map[string]*Wallet
	logger  *slog.Logger
}

// NewManager creates a wallet manager seeded with the given wallets.
func NewManager(wallets []Wallet, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		wallets: make(map[string]*Wallet, len(wallets)),
		logger:  logger,
	}
	for _, w := range wallets {
		wc := w
		m.wallets[w.ID] = &wc
	}
	return m
}

// WalletForStrategy returns the identifier of a wallet able to fund the
// requested amount for the strategy. Strategy-matched wallets are
// preferred over unbound ones.
func (m *Manager) WalletForStrategy(strategy string, amount decimal.Decimal) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var fallback string
	for _, w := range m.wallets {
		if w.available().LessThan(amount) {
			continue
		}
		if w.Strategy == strategy {
			return w.ID, nil
		}
		if w.Strategy == "" && fallback == "" {
			fallback = w.ID
		}
	}

	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("%w: strategy %q amount %s", types.ErrNoWallet, strategy, amount)
}

// Balance returns the wallet's current balance.
func (m *Manager) Balance(walletID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.wallets[walletID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", types.ErrWalletNotFound, walletID)
	}
	return w.Balance, nil
}

// UpdateUsage records notional spent through the wallet.
func (m *Manager) UpdateUsage(walletID string, notional decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[walletID]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrWalletNotFound, walletID)
	}

	w.UsedToday = w.UsedToday.Add(notional)
	w.LastUsed = time.Now().UTC()

	m.logger.Debug("wallet usage updated",
		"wallet_id", walletID,
		"notional", notional,
		"used_today", w.UsedToday,
	)
	return nil
}

// ResetDailyUsage clears daily usage counters, typically at session roll.
func (m *Manager) ResetDailyUsage() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.wallets {
		w.UsedToday = decimal.Zero
	}
	m.logger.Info("wallet daily usage reset", "wallets", len(m.wallets))
}

// Wallets returns copies of all wallets.
func (m *Manager) Wallets() []Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, *w)
	}
	return out
}
