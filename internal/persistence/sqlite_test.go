package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"pumpbot/internal/execution"
	"pumpbot/internal/types"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testSnapshot(id string) execution.Snapshot {
	executedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return execution.Snapshot{
		ID:            id,
		SignalID:      "sig-1",
		Mint:          "MintAAA",
		WalletID:      "wallet-1",
		Kind:          types.KindBuy,
		Amount:        decimal.NewFromFloat(0.5),
		ExpectedPrice: decimal.NewFromFloat(0.001),
		Status:        types.ExecCompleted,
		RetryCount:    1,
		ActualPrice:   decimal.NewFromFloat(0.00101),
		ActualAmount:  decimal.NewFromFloat(495),
		Fee:           decimal.NewFromFloat(0.0001),
		Slippage:      decimal.NewFromFloat(1.0),
		TxSignature:   "SIG123",
		CreatedAt:     executedAt.Add(-time.Second),
		ExecutedAt:    &executedAt,
	}
}

func TestSQLiteRepository_SaveAndGetExecution(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	snap := testSnapshot("exec-1")
	if err := repo.SaveExecution(ctx, snap); err != nil {
		t.Fatalf("SaveExecution() error = %v", err)
	}

	got, err := repo.GetExecution(ctx, "exec-1")
	if err != nil {
		t.Fatalf("GetExecution() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetExecution() returned nil")
	}

	if got.Mint != snap.Mint {
		t.Errorf("Mint = %s, want %s", got.Mint, snap.Mint)
	}
	if got.Kind != types.KindBuy {
		t.Errorf("Kind = %v, want KindBuy", got.Kind)
	}
	if got.Status != types.ExecCompleted {
		t.Errorf("Status = %v, want ExecCompleted", got.Status)
	}
	if got.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", got.RetryCount)
	}
	if !got.ActualPrice.Equal(snap.ActualPrice) {
		t.Errorf("ActualPrice = %s, want %s", got.ActualPrice, snap.ActualPrice)
	}
	if got.TxSignature != "SIG123" {
		t.Errorf("TxSignature = %s, want SIG123", got.TxSignature)
	}
	if got.ExecutedAt == nil {
		t.Error("ExecutedAt = nil, want non-nil")
	}
}

func TestSQLiteRepository_GetExecution_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetExecution(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetExecution() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetExecution() = %+v, want nil", got)
	}
}

func TestSQLiteRepository_SaveExecution_Upsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	snap := testSnapshot("exec-1")
	snap.Status = types.ExecFailed
	snap.ErrorDetail = "first attempt"
	if err := repo.SaveExecution(ctx, snap); err != nil {
		t.Fatalf("SaveExecution() error = %v", err)
	}

	snap.Status = types.ExecCompleted
	snap.ErrorDetail = ""
	if err := repo.SaveExecution(ctx, snap); err != nil {
		t.Fatalf("SaveExecution() upsert error = %v", err)
	}

	got, err := repo.GetExecution(ctx, "exec-1")
	if err != nil {
		t.Fatalf("GetExecution() error = %v", err)
	}
	if got.Status != types.ExecCompleted {
		t.Errorf("Status = %v, want ExecCompleted", got.Status)
	}

	list, err := repo.ListExecutions(ctx, 10)
	if err != nil {
		t.Fatalf("ListExecutions() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("executions = %d, want 1", len(list))
	}
}

func TestSQLiteRepository_ListExecutionsByMint(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := testSnapshot("exec-a")
	a.Mint = "MintAAA"
	b := testSnapshot("exec-b")
	b.Mint = "MintBBB"

	if err := repo.SaveExecution(ctx, a); err != nil {
		t.Fatalf("SaveExecution() error = %v", err)
	}
	if err := repo.SaveExecution(ctx, b); err != nil {
		t.Fatalf("SaveExecution() error = %v", err)
	}

	list, err := repo.ListExecutionsByMint(ctx, "MintAAA", 10)
	if err != nil {
		t.Fatalf("ListExecutionsByMint() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("executions = %d, want 1", len(list))
	}
	if list[0].ID != "exec-a" {
		t.Errorf("ID = %s, want exec-a", list[0].ID)
	}
}

func TestSQLiteRepository_Positions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	pos := types.Position{
		ID:            "pos-1",
		Mint:          "MintAAA",
		WalletID:      "wallet-1",
		Strategy:      "momentum",
		EntryPrice:    decimal.NewFromFloat(0.001),
		EntryAmount:   decimal.NewFromFloat(500),
		CurrentAmount: decimal.NewFromFloat(500),
		CurrentPrice:  decimal.NewFromFloat(0.001),
		StopLoss:      decimal.NewFromFloat(0.0008),
		TakeProfitLevels: []decimal.Decimal{
			decimal.NewFromFloat(0.0015),
			decimal.NewFromFloat(0.002),
		},
		OpenedAt:  now,
		UpdatedAt: now,
	}

	if err := repo.SavePosition(ctx, pos); err != nil {
		t.Fatalf("SavePosition() error = %v", err)
	}

	open, err := repo.GetOpenPositions(ctx)
	if err != nil {
		t.Fatalf("GetOpenPositions() error = %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open positions = %d, want 1", len(open))
	}

	got := open[0]
	if got.ID != "pos-1" {
		t.Errorf("ID = %s, want pos-1", got.ID)
	}
	if !got.StopLoss.Equal(pos.StopLoss) {
		t.Errorf("StopLoss = %s, want %s", got.StopLoss, pos.StopLoss)
	}
	if len(got.TakeProfitLevels) != 2 {
		t.Fatalf("take profit levels = %d, want 2", len(got.TakeProfitLevels))
	}
	if !got.TakeProfitLevels[1].Equal(decimal.NewFromFloat(0.002)) {
		t.Errorf("TakeProfitLevels[1] = %s, want 0.002", got.TakeProfitLevels[1])
	}

	// Close it and verify it disappears from the open set.
	if err := repo.ClosePosition(ctx, "pos-1", decimal.NewFromFloat(0.0016), time.Now().UTC()); err != nil {
		t.Fatalf("ClosePosition() error = %v", err)
	}

	open, err = repo.GetOpenPositions(ctx)
	if err != nil {
		t.Fatalf("GetOpenPositions() error = %v", err)
	}
	if len(open) != 0 {
		t.Errorf("open positions = %d, want 0", len(open))
	}
}
