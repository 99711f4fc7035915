package execution

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"pumpbot/internal/types"
)

// Record is the unit of work tracked through the order lifecycle. It is
// owned exclusively by the worker while in flight; concurrent status
// queries go through Snapshot.
type Record struct {
	mu sync.Mutex

	id         string
	signalID   string
	positionID string // set for close orders only
	mint       string
	walletID   string
	strategy   string
	kind       types.OrderKind

	amount        decimal.Decimal
	expectedPrice decimal.Decimal

	// Carried from the signal so a completed buy can open a position.
	stopLoss         decimal.Decimal
	takeProfitLevels []decimal.Decimal

	status      types.ExecStatus
	retryCount  int
	actualPrice decimal.Decimal
	actualAmount decimal.Decimal
	fee         decimal.Decimal
	slippage    decimal.Decimal
	txSignature string
	errorDetail string

	createdAt  time.Time
	executedAt *time.Time
}

// Snapshot is an immutable copy of a Record for external observation.
type Snapshot struct {
	ID            string
	SignalID      string
	PositionID    string
	Mint          string
	WalletID      string
	Kind          types.OrderKind
	Amount        decimal.Decimal
	ExpectedPrice decimal.Decimal
	Status        types.ExecStatus
	RetryCount    int
	ActualPrice   decimal.Decimal
	ActualAmount  decimal.Decimal
	Fee           decimal.Decimal
	Slippage      decimal.Decimal
	TxSignature   string
	ErrorDetail   string
	CreatedAt     time.Time
	ExecutedAt    *time.Time
}

// newBuyRecord creates a record for an organic buy derived from a signal.
func newBuyRecord(sig types.Signal, walletID string, amount decimal.Decimal) *Record {
	return &Record{
		id:               uuid.New().String(),
		signalID:         sig.ID,
		mint:             sig.Mint,
		walletID:         walletID,
		strategy:         sig.Strategy,
		kind:             types.KindBuy,
		amount:           amount,
		stopLoss:         sig.StopLoss,
		takeProfitLevels: sig.TakeProfitLevels,
		status:           types.ExecPending,
		createdAt:        time.Now().UTC(),
	}
}

// newCloseRecord creates a record that reduces or closes a position. The
// expected price is the position's current tracked price.
func newCloseRecord(kind types.OrderKind, pos types.Position, amount decimal.Decimal) *Record {
	return &Record{
		id:            uuid.New().String(),
		positionID:    pos.ID,
		mint:          pos.Mint,
		walletID:      pos.WalletID,
		kind:          kind,
		amount:        amount,
		expectedPrice: pos.CurrentPrice,
		status:        types.ExecPending,
		createdAt:     time.Now().UTC(),
	}
}

// ID returns the execution identifier.
func (r *Record) ID() string {
	return r.id
}

// Snapshot returns a copy of the record's current state.
func (r *Record) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var executedAt *time.Time
	if r.executedAt != nil {
		t := *r.executedAt
		executedAt = &t
	}

	return Snapshot{
		ID:            r.id,
		SignalID:      r.signalID,
		PositionID:    r.positionID,
		Mint:          r.mint,
		WalletID:      r.walletID,
		Kind:          r.kind,
		Amount:        r.amount,
		ExpectedPrice: r.expectedPrice,
		Status:        r.status,
		RetryCount:    r.retryCount,
		ActualPrice:   r.actualPrice,
		ActualAmount:  r.actualAmount,
		Fee:           r.fee,
		Slippage:      r.slippage,
		TxSignature:   r.txSignature,
		ErrorDetail:   r.errorDetail,
		CreatedAt:     r.createdAt,
		ExecutedAt:    executedAt,
	}
}

// beginExecuting transitions Pending -> Executing. Returns false if the
// record is no longer Pending (cancelled while queued).
func (r *Record) beginExecuting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != types.ExecPending {
		return false
	}
	r.status = types.ExecExecuting
	return true
}

// complete stamps fill data and transitions Executing -> Completed.
func (r *Record) complete(price, amount, fee decimal.Decimal, signature string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = types.ExecCompleted
	r.actualPrice = price
	r.actualAmount = amount
	r.fee = fee
	r.txSignature = signature
	r.slippage = slippagePct(price, r.expectedPrice)
	now := time.Now().UTC()
	r.executedAt = &now
}

// failAttempt records a failed submission attempt. When the retry budget
// is not exhausted the record transitions back to Pending and final is
// false; otherwise it transitions to Failed.
func (r *Record) failAttempt(detail string, maxRetries int) (retries int, final bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errorDetail = detail
	r.retryCount++

	if r.retryCount < maxRetries {
		r.status = types.ExecPending
		return r.retryCount, false
	}

	r.status = types.ExecFailed
	now := time.Now().UTC()
	r.executedAt = &now
	return r.retryCount, true
}

// cancel transitions Pending -> Cancelled. Returns false for in-flight or
// terminal records.
func (r *Record) cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != types.ExecPending {
		return false
	}
	r.status = types.ExecCancelled
	now := time.Now().UTC()
	r.executedAt = &now
	return true
}

// exitParams returns the exit thresholds and strategy tag carried from the
// originating signal.
func (r *Record) exitParams() (stopLoss decimal.Decimal, takeProfits []decimal.Decimal, strategy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLoss, r.takeProfitLevels, r.strategy
}

// newPositionID generates an identifier for a position opened from a fill.
func newPositionID() string {
	return uuid.New().String()
}

// slippagePct computes |actual-expected|/expected*100. Zero when no
// expected price was recorded.
func slippagePct(actual, expected decimal.Decimal) decimal.Decimal {
	if expected.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return actual.Sub(expected).Abs().Div(expected).Mul(decimal.NewFromInt(100))
}
