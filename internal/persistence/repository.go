// Package persistence provides durable storage for executions and positions.
package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"pumpbot/internal/execution"
	"pumpbot/internal/types"
)

// Repository defines the interface for state persistence.
type Repository interface {
	// Execution operations
	SaveExecution(ctx context.Context, snap execution.Snapshot) error
	GetExecution(ctx context.Context, id string) (*execution.Snapshot, error)
	ListExecutions(ctx context.Context, limit int) ([]execution.Snapshot, error)
	ListExecutionsByMint(ctx context.Context, mint string, limit int) ([]execution.Snapshot, error)

	// Position operations
	SavePosition(ctx context.Context, position types.Position) error
	GetOpenPositions(ctx context.Context) ([]types.Position, error)
	ClosePosition(ctx context.Context, positionID string, exitPrice decimal.Decimal, exitTime time.Time) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
