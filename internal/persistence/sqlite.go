package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"pumpbot/internal/execution"
	"pumpbot/internal/types"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)
var _ execution.Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a new SQLite repository.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}

	if err := repo.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return repo, nil
}

// Migrate runs database migrations.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			signal_id TEXT,
			position_id TEXT,
			mint TEXT NOT NULL,
			wallet_id TEXT,
			kind INTEGER NOT NULL,
			amount TEXT NOT NULL,
			expected_price TEXT NOT NULL DEFAULT '0',
			status INTEGER NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			actual_price TEXT NOT NULL DEFAULT '0',
			actual_amount TEXT NOT NULL DEFAULT '0',
			fee TEXT NOT NULL DEFAULT '0',
			slippage TEXT NOT NULL DEFAULT '0',
			tx_signature TEXT,
			error_detail TEXT,
			created_at DATETIME NOT NULL,
			executed_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_mint ON executions(mint)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions(created_at)`,

		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			mint TEXT NOT NULL,
			wallet_id TEXT,
			strategy TEXT,
			entry_price TEXT NOT NULL,
			entry_amount TEXT NOT NULL,
			current_amount TEXT NOT NULL,
			current_price TEXT NOT NULL DEFAULT '0',
			stop_loss TEXT NOT NULL DEFAULT '0',
			take_profit_levels TEXT,
			exit_price TEXT,
			exit_time DATETIME,
			is_open INTEGER NOT NULL DEFAULT 1,
			opened_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_mint ON positions(mint)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_is_open ON positions(is_open)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// SaveExecution upserts an execution snapshot. Called once per terminal
// record and again on replacement, so INSERT OR REPLACE keeps the latest.
func (r *SQLiteRepository) SaveExecution(ctx context.Context, snap execution.Snapshot) error {
	query := `INSERT OR REPLACE INTO executions
		(id, signal_id, position_id, mint, wallet_id, kind, amount, expected_price, status, retry_count,
		 actual_price, actual_amount, fee, slippage, tx_signature, error_detail, created_at, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var executedAt any
	if snap.ExecutedAt != nil {
		executedAt = *snap.ExecutedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		snap.ID,
		snap.SignalID,
		snap.PositionID,
		snap.Mint,
		snap.WalletID,
		int(snap.Kind),
		snap.Amount.String(),
		snap.ExpectedPrice.String(),
		int(snap.Status),
		snap.RetryCount,
		snap.ActualPrice.String(),
		snap.ActualAmount.String(),
		snap.Fee.String(),
		snap.Slippage.String(),
		snap.TxSignature,
		snap.ErrorDetail,
		snap.CreatedAt,
		executedAt,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}

	return nil
}

const executionColumns = `id, signal_id, position_id, mint, wallet_id, kind, amount, expected_price, status, retry_count,
	actual_price, actual_amount, fee, slippage, tx_signature, error_detail, created_at, executed_at`

// GetExecution returns the execution with the given id, or nil if absent.
func (r *SQLiteRepository) GetExecution(ctx context.Context, id string) (*execution.Snapshot, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	snap, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query execution: %w", err)
	}
	return &snap, nil
}

// ListExecutions returns the most recent executions.
func (r *SQLiteRepository) ListExecutions(ctx context.Context, limit int) ([]execution.Snapshot, error) {
	query := `SELECT ` + executionColumns + ` FROM executions ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanExecutions(rows)
}

// ListExecutionsByMint returns the most recent executions for a mint.
func (r *SQLiteRepository) ListExecutionsByMint(ctx context.Context, mint string, limit int) ([]execution.Snapshot, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE mint = ? ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, mint, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions by mint: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanExecutions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecution(row rowScanner) (execution.Snapshot, error) {
	var snap execution.Snapshot
	var kind, status int
	var amount, expectedPrice, actualPrice, actualAmount, fee, slippage string
	var signalID, positionID, walletID, txSignature, errorDetail sql.NullString
	var executedAt sql.NullTime

	err := row.Scan(
		&snap.ID,
		&signalID,
		&positionID,
		&snap.Mint,
		&walletID,
		&kind,
		&amount,
		&expectedPrice,
		&status,
		&snap.RetryCount,
		&actualPrice,
		&actualAmount,
		&fee,
		&slippage,
		&txSignature,
		&errorDetail,
		&snap.CreatedAt,
		&executedAt,
	)
	if err != nil {
		return execution.Snapshot{}, err
	}

	snap.SignalID = signalID.String
	snap.PositionID = positionID.String
	snap.WalletID = walletID.String
	snap.TxSignature = txSignature.String
	snap.ErrorDetail = errorDetail.String
	snap.Kind = types.OrderKind(kind)
	snap.Status = types.ExecStatus(status)
	snap.Amount, _ = decimal.NewFromString(amount)
	snap.ExpectedPrice, _ = decimal.NewFromString(expectedPrice)
	snap.ActualPrice, _ = decimal.NewFromString(actualPrice)
	snap.ActualAmount, _ = decimal.NewFromString(actualAmount)
	snap.Fee, _ = decimal.NewFromString(fee)
	snap.Slippage, _ = decimal.NewFromString(slippage)
	if executedAt.Valid {
		t := executedAt.Time
		snap.ExecutedAt = &t
	}

	return snap, nil
}

func scanExecutions(rows *sql.Rows) ([]execution.Snapshot, error) {
	var snaps []execution.Snapshot
	for rows.Next() {
		snap, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// SavePosition upserts a position as open.
func (r *SQLiteRepository) SavePosition(ctx context.Context, position types.Position) error {
	query := `INSERT OR REPLACE INTO positions
		(id, mint, wallet_id, strategy, entry_price, entry_amount, current_amount, current_price,
		 stop_loss, take_profit_levels, is_open, opened_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		position.ID,
		position.Mint,
		position.WalletID,
		position.Strategy,
		position.EntryPrice.String(),
		position.EntryAmount.String(),
		position.CurrentAmount.String(),
		position.CurrentPrice.String(),
		position.StopLoss.String(),
		joinLevels(position.TakeProfitLevels),
		position.OpenedAt,
		position.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}

	return nil
}

// GetOpenPositions returns all open positions.
func (r *SQLiteRepository) GetOpenPositions(ctx context.Context) ([]types.Position, error) {
	query := `SELECT id, mint, wallet_id, strategy, entry_price, entry_amount, current_amount, current_price,
		stop_loss, take_profit_levels, opened_at, updated_at
		FROM positions WHERE is_open = 1`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var positions []types.Position
	for rows.Next() {
		var p types.Position
		var entryPrice, entryAmount, currentAmount, currentPrice, stopLoss string
		var walletID, strategy, levels sql.NullString

		if err := rows.Scan(&p.ID, &p.Mint, &walletID, &strategy, &entryPrice, &entryAmount,
			&currentAmount, &currentPrice, &stopLoss, &levels, &p.OpenedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		p.WalletID = walletID.String
		p.Strategy = strategy.String
		p.EntryPrice, _ = decimal.NewFromString(entryPrice)
		p.EntryAmount, _ = decimal.NewFromString(entryAmount)
		p.CurrentAmount, _ = decimal.NewFromString(currentAmount)
		p.CurrentPrice, _ = decimal.NewFromString(currentPrice)
		p.StopLoss, _ = decimal.NewFromString(stopLoss)
		p.TakeProfitLevels = splitLevels(levels.String)

		positions = append(positions, p)
	}

	return positions, rows.Err()
}

// ClosePosition marks a position as closed.
func (r *SQLiteRepository) ClosePosition(ctx context.Context, positionID string, exitPrice decimal.Decimal, exitTime time.Time) error {
	query := `UPDATE positions SET is_open = 0, exit_price = ?, exit_time = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, exitPrice.String(), exitTime, time.Now().UTC(), positionID)
	if err != nil {
		return fmt.Errorf("close position: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func joinLevels(levels []decimal.Decimal) string {
	if len(levels) == 0 {
		return ""
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = l.String()
	}
	return strings.Join(parts, ",")
}

func splitLevels(s string) []decimal.Decimal {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	levels := make([]decimal.Decimal, 0, len(parts))
	for _, p := range parts {
		l, err := decimal.NewFromString(p)
		if err != nil {
			continue
		}
		levels = append(levels, l)
	}
	return levels
}
