package execution

import (
	"sync"

	"github.com/shopspring/decimal"
	"pumpbot/internal/types"
)

// Ledger tracks executions in two collections with disjoint membership:
// pending records by identifier and an append-only list of completed
// records. A record moves between them in a single locked step.
type Ledger struct {
	mu        sync.RWMutex
	pending   map[string]*Record
	completed []*Record
}

// Summary aggregates completed execution statistics.
type Summary struct {
	Pending      int
	Completed    int
	Successful   int
	Failed       int
	QueueDepth   int
	SuccessRate  decimal.Decimal // percent of completed that succeeded
	TotalVolume  decimal.Decimal // sum of actual_amount * actual_price over successes
	MeanSlippage decimal.Decimal // percent, over successes
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		pending: make(map[string]*Record),
	}
}

// AddPending registers a new record awaiting execution.
func (l *Ledger) AddPending(r *Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[r.id] = r
}

// Get looks up a record by identifier, checking pending first and then
// scanning completed.
func (l *Ledger) Get(id string) (*Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if r, ok := l.pending[id]; ok {
		return r, true
	}
	for _, r := range l.completed {
		if r.id == id {
			return r, true
		}
	}
	return nil, false
}

// Complete moves a record from the pending collection to the completed
// list. The move is atomic: no observer sees the record in both or in
// neither collection.
func (l *Ledger) Complete(r *Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.pending, r.id)
	l.completed = append(l.completed, r)
}

// HasPendingCloseFor reports whether a close order for the given position
// is already pending. Used to keep the monitor from stacking duplicate
// exit orders across sweeps.
func (l *Ledger) HasPendingCloseFor(positionID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, r := range l.pending {
		if r.positionID == positionID && r.kind.IsClose() {
			return true
		}
	}
	return false
}

// PendingCount returns the number of pending records.
func (l *Ledger) PendingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pending)
}

// CompletedCount returns the number of completed records.
func (l *Ledger) CompletedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.completed)
}

// Summarize computes aggregate statistics over completed executions. All
// ratios are zero when the completed set is empty.
func (l *Ledger) Summarize() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Summary{
		Pending:      len(l.pending),
		Completed:    len(l.completed),
		SuccessRate:  decimal.Zero,
		TotalVolume:  decimal.Zero,
		MeanSlippage: decimal.Zero,
	}

	slippageSum := decimal.Zero
	for _, r := range l.completed {
		snap := r.Snapshot()
		switch snap.Status {
		case types.ExecCompleted:
			s.Successful++
			s.TotalVolume = s.TotalVolume.Add(snap.ActualAmount.Mul(snap.ActualPrice))
			slippageSum = slippageSum.Add(snap.Slippage)
		case types.ExecFailed:
			s.Failed++
		}
	}

	if s.Completed > 0 {
		s.SuccessRate = decimal.NewFromInt(int64(s.Successful)).
			Div(decimal.NewFromInt(int64(s.Completed))).
			Mul(decimal.NewFromInt(100))
	}
	if s.Successful > 0 {
		s.MeanSlippage = slippageSum.Div(decimal.NewFromInt(int64(s.Successful)))
	}

	return s
}
