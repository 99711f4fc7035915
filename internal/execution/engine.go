// Package execution drives approved trading signals through a queue-backed
// order lifecycle: submission, bounded retries with exponential backoff,
// position reconciliation, and stop-loss/take-profit monitoring.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"pumpbot/internal/alerting"
	"pumpbot/internal/metrics"
	"pumpbot/internal/types"
	"pumpbot/internal/venue"
)

// WalletAllocator selects and accounts for funding wallets.
type WalletAllocator interface {
	WalletForStrategy(strategy string, amount decimal.Decimal) (string, error)
	Balance(walletID string) (decimal.Decimal, error)
	UpdateUsage(walletID string, notional decimal.Decimal) error
}

// RiskManager evaluates signals and owns position storage. ClosePosition
// reports whether the position was fully closed and removed.
type RiskManager interface {
	EvaluateSignal(sig types.Signal, walletBalance decimal.Decimal) types.RiskEvaluation
	OpenPosition(pos types.Position) error
	GetPosition(id string) (types.Position, bool)
	OpenPositions() []types.Position
	UpdatePositionPrice(id string, price decimal.Decimal) ([]types.RiskAlert, error)
	ClosePosition(id string, exitPrice, amount decimal.Decimal) (bool, error)
}

// Store persists terminal execution records. Implementations must be safe
// for concurrent use.
type Store interface {
	SaveExecution(ctx context.Context, snap Snapshot) error
}

// Config holds execution engine configuration.
type Config struct {
	MaxRetries         int
	BackoffUnit        time.Duration // delay is 2^retries units
	MonitorInterval    time.Duration
	TakeProfitFraction decimal.Decimal // share of position sold on a take-profit alert
	SlippagePct        decimal.Decimal // venue slippage tolerance
	PriorityFee        decimal.Decimal
	Pool               string
	FaultPause         time.Duration // pause after an unexpected loop fault
}

// DefaultConfig returns default engine config.
func DefaultConfig() Config {
	return Config{
		MaxRetries:         3,
		BackoffUnit:        time.Second,
		MonitorInterval:    10 * time.Second,
		TakeProfitFraction: decimal.RequireFromString("0.5"),
		SlippagePct:        decimal.RequireFromString("1.0"),
		PriorityFee:        decimal.RequireFromString("0.0001"),
		Pool:               "pump",
		FaultPause:         time.Second,
	}
}

// Engine coordinates the execution worker, the position monitor, and the
// execution ledger. A single worker consumes the queue, so at most one
// order is in flight against the venue at any instant.
type Engine struct {
	cfg       Config
	logger    *slog.Logger
	submitter venue.Submitter
	wallets   WalletAllocator
	risk      RiskManager
	alerter   alerting.EventAlerter
	store     Store
	recorder  *metrics.Recorder

	ledger *Ledger
	queue  *queue

	mu      sync.Mutex
	running bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewEngine creates a new execution engine. alerter and store may be nil.
func NewEngine(
	cfg Config,
	submitter venue.Submitter,
	wallets WalletAllocator,
	riskMgr RiskManager,
	alerter alerting.EventAlerter,
	store Store,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cfg:       cfg,
		logger:    logger,
		submitter: submitter,
		wallets:   wallets,
		risk:      riskMgr,
		alerter:   alerter,
		store:     store,
		recorder:  metrics.NewRecorder(),
		ledger:    NewLedger(),
		queue:     newQueue(),
		done:      make(chan struct{}),
	}
}

// Start starts the worker and monitor loops.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return types.ErrAlreadyRunning
	}
	e.running = true
	e.mu.Unlock()

	e.logger.Info("starting execution engine",
		"venue", e.submitter.Name(),
		"max_retries", e.cfg.MaxRetries,
		"monitor_interval", e.cfg.MonitorInterval,
	)

	e.wg.Add(1)
	go e.workerLoop(ctx)

	e.wg.Add(1)
	go e.monitorLoop(ctx)

	return nil
}

// Stop stops the engine and waits for both loops to exit.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	e.mu.Unlock()

	e.logger.Info("stopping execution engine")
	close(e.done)
	e.wg.Wait()
	e.logger.Info("execution engine stopped")
	return nil
}

// IsRunning returns true if the engine is running.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// ExecuteSignal converts an approved signal into a queued buy execution.
// Returns the execution identifier, or a typed rejection when no wallet
// qualifies or the risk manager declines. Rejected signals leave no record.
func (e *Engine) ExecuteSignal(ctx context.Context, sig types.Signal) (string, error) {
	walletID, err := e.wallets.WalletForStrategy(sig.Strategy, sig.RecommendedAmount)
	if err != nil {
		e.recorder.RecordRejection("no_wallet")
		return "", fmt.Errorf("%w: signal %s", types.ErrNoWallet, sig.ID)
	}

	balance, err := e.wallets.Balance(walletID)
	if err != nil {
		e.recorder.RecordRejection("balance_unavailable")
		return "", fmt.Errorf("wallet balance: %w", err)
	}

	eval := e.risk.EvaluateSignal(sig, balance)
	if !eval.Approved {
		e.recorder.RecordRejection("risk")
		e.logger.Warn("signal rejected by risk manager",
			"signal_id", sig.ID,
			"blocking_factors", strings.Join(eval.BlockingFactors, ", "),
		)
		e.alertEvent(ctx, alerting.EventSignalRejected, "Signal rejected",
			"signal_id", sig.ID,
			"mint", sig.Mint,
			"blocking_factors", strings.Join(eval.BlockingFactors, ", "),
		)
		return "", fmt.Errorf("%w: %s", types.ErrRiskRejected, strings.Join(eval.BlockingFactors, ", "))
	}

	rec := newBuyRecord(sig, walletID, eval.RecommendedAmount)
	e.enqueue(rec)

	e.logger.Info("execution queued",
		"execution_id", rec.ID(),
		"signal_id", sig.ID,
		"mint", sig.Mint,
		"wallet_id", walletID,
		"amount", eval.RecommendedAmount,
	)

	return rec.ID(), nil
}

// TriggerStopLoss enqueues a stop-loss sell for the entire current amount
// of a position. Used by the monitor and for manual intervention; both go
// through the same queue and retry policy as organic orders.
func (e *Engine) TriggerStopLoss(ctx context.Context, positionID string) (string, error) {
	pos, ok := e.risk.GetPosition(positionID)
	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrPositionNotFound, positionID)
	}

	rec := newCloseRecord(types.KindStopLoss, pos, pos.CurrentAmount)
	e.enqueue(rec)

	e.logger.Warn("stop-loss queued",
		"execution_id", rec.ID(),
		"position_id", positionID,
		"amount", pos.CurrentAmount,
	)

	return rec.ID(), nil
}

// TriggerTakeProfit enqueues a take-profit sell for a fraction of the
// position's current amount. A zero fraction uses the configured default.
func (e *Engine) TriggerTakeProfit(ctx context.Context, positionID string, fraction decimal.Decimal) (string, error) {
	pos, ok := e.risk.GetPosition(positionID)
	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrPositionNotFound, positionID)
	}

	if fraction.LessThanOrEqual(decimal.Zero) {
		fraction = e.cfg.TakeProfitFraction
	}
	amount := pos.CurrentAmount.Mul(fraction)

	rec := newCloseRecord(types.KindTakeProfit, pos, amount)
	e.enqueue(rec)

	e.logger.Info("take-profit queued",
		"execution_id", rec.ID(),
		"position_id", positionID,
		"fraction", fraction,
		"amount", amount,
	)

	return rec.ID(), nil
}

// Status returns a snapshot of the execution record.
func (e *Engine) Status(id string) (Snapshot, bool) {
	rec, ok := e.ledger.Get(id)
	if !ok {
		return Snapshot{}, false
	}
	return rec.Snapshot(), true
}

// Cancel cancels a pending execution. In-flight and terminal records are
// not cancellable.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	rec, ok := e.ledger.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}

	if !rec.cancel() {
		return fmt.Errorf("%w: %s is %s", types.ErrNotCancellable, id, rec.Snapshot().Status)
	}

	e.ledger.Complete(rec)
	e.persistTerminal(ctx, rec)
	e.recorder.RecordExecution(rec.Snapshot().Kind.String(), types.ExecCancelled.String())
	e.logger.Info("execution cancelled", "execution_id", id)
	return nil
}

// Summary returns aggregate execution statistics including queue depth.
func (e *Engine) Summary() Summary {
	s := e.ledger.Summarize()
	s.QueueDepth = e.queue.Len()
	e.recorder.RecordQueueDepth(s.QueueDepth)
	return s
}

// enqueue registers a record as pending and appends it to the queue tail.
func (e *Engine) enqueue(rec *Record) {
	e.ledger.AddPending(rec)
	e.queue.Push(rec)
	e.recorder.RecordEnqueued(rec.Snapshot().Kind.String())
	e.recorder.RecordQueueDepth(e.queue.Len())
}

// workerLoop is the single queue consumer. Unexpected faults in the loop
// control logic are recovered at this boundary so the worker stays up.
func (e *Engine) workerLoop(ctx context.Context) {
	defer e.wg.Done()

	e.logger.Info("execution worker started")

	for {
		rec, ok := e.queue.Pop(ctx, e.done)
		if !ok {
			e.logger.Info("execution worker stopped")
			return
		}
		e.processGuarded(ctx, rec)
	}
}

// processGuarded runs process under a recover boundary.
func (e *Engine) processGuarded(ctx context.Context, rec *Record) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("execution worker fault",
				"execution_id", rec.ID(),
				"panic", r,
			)
			e.recorder.RecordError("worker_fault")
			select {
			case <-time.After(e.cfg.FaultPause):
			case <-e.done:
			}
		}
	}()

	e.process(ctx, rec)
}

// process drives a single record through the state machine.
func (e *Engine) process(ctx context.Context, rec *Record) {
	if !rec.beginExecuting() {
		// Cancelled while queued.
		return
	}

	snap := rec.Snapshot()
	e.logger.Info("processing execution",
		"execution_id", snap.ID,
		"kind", snap.Kind,
		"mint", snap.Mint,
		"attempt", snap.RetryCount+1,
	)

	req := venue.TradeRequest{
		Action:           venue.ActionBuy,
		Mint:             snap.Mint,
		Amount:           snap.Amount,
		DenominatedInSol: true,
		Slippage:         e.cfg.SlippagePct,
		PriorityFee:      e.cfg.PriorityFee,
		Pool:             e.cfg.Pool,
	}
	if snap.Kind != types.KindBuy {
		req.Action = venue.ActionSell
		req.DenominatedInSol = false
	}

	timer := metrics.NewTimer()
	result, err := e.submitter.Submit(ctx, req)
	timer.ObserveSubmit()

	if err != nil {
		e.handleFailure(ctx, rec, err)
		return
	}

	e.handleFill(ctx, rec, result)
}

// handleFill completes a record, applies wallet usage, and reconciles the
// position with the risk manager.
func (e *Engine) handleFill(ctx context.Context, rec *Record, result *venue.TradeResult) {
	rec.complete(result.Price, result.Amount, result.Fee, result.Signature)
	snap := rec.Snapshot()

	if err := e.wallets.UpdateUsage(snap.WalletID, snap.ActualAmount.Mul(snap.ActualPrice)); err != nil {
		e.logger.Warn("wallet usage update failed",
			"execution_id", snap.ID,
			"wallet_id", snap.WalletID,
			"err", err,
		)
	}

	switch {
	case snap.Kind == types.KindBuy:
		e.openPositionFromFill(ctx, rec, snap)
	case snap.Kind.IsClose() && snap.PositionID != "":
		closed, err := e.risk.ClosePosition(snap.PositionID, snap.ActualPrice, snap.ActualAmount)
		switch {
		case err != nil:
			e.logger.Error("position close failed",
				"execution_id", snap.ID,
				"position_id", snap.PositionID,
				"err", err,
			)
			e.recorder.RecordError("position_close")
		case closed:
			// Partial closes leave the position open; the gauge only
			// moves when the position is actually removed.
			e.recorder.RecordPositionClosed(snap.Kind.String())
			e.alertEvent(ctx, alerting.EventPositionClosed, "Position closed",
				"position_id", snap.PositionID,
				"mint", snap.Mint,
				"kind", snap.Kind.String(),
				"exit_price", snap.ActualPrice.String(),
			)
		}
	}

	e.ledger.Complete(rec)
	e.persistTerminal(ctx, rec)
	e.recorder.RecordExecution(snap.Kind.String(), types.ExecCompleted.String())
	e.recorder.RecordSlippage(snap.Slippage.InexactFloat64())

	e.logger.Info("execution completed",
		"execution_id", snap.ID,
		"kind", snap.Kind,
		"price", snap.ActualPrice,
		"amount", snap.ActualAmount,
		"fee", snap.Fee,
		"slippage_pct", snap.Slippage,
		"signature", snap.TxSignature,
	)

	e.alertEvent(ctx, alerting.EventExecutionCompleted, "Execution completed",
		"execution_id", snap.ID,
		"kind", snap.Kind.String(),
		"mint", snap.Mint,
		"price", snap.ActualPrice.String(),
		"amount", snap.ActualAmount.String(),
	)
}

// openPositionFromFill creates a position for a completed buy. Exit
// thresholds travel with the record from the originating signal.
func (e *Engine) openPositionFromFill(ctx context.Context, rec *Record, snap Snapshot) {
	stopLoss, takeProfits, strategy := rec.exitParams()

	now := time.Now().UTC()
	pos := types.Position{
		ID:               newPositionID(),
		Mint:             snap.Mint,
		WalletID:         snap.WalletID,
		Strategy:         strategy,
		EntryPrice:       snap.ActualPrice,
		EntryAmount:      snap.ActualAmount,
		CurrentAmount:    snap.ActualAmount,
		CurrentPrice:     snap.ActualPrice,
		StopLoss:         stopLoss,
		TakeProfitLevels: takeProfits,
		OpenedAt:         now,
		UpdatedAt:        now,
	}

	if err := e.risk.OpenPosition(pos); err != nil {
		e.logger.Error("position creation failed",
			"execution_id", snap.ID,
			"mint", snap.Mint,
			"err", err,
		)
		e.recorder.RecordError("position_open")
		return
	}

	e.recorder.RecordPositionOpened()
	e.logger.Info("position opened",
		"position_id", pos.ID,
		"mint", pos.Mint,
		"entry_price", pos.EntryPrice,
		"entry_amount", pos.EntryAmount,
	)
	e.alertEvent(ctx, alerting.EventPositionOpened, "Position opened",
		"position_id", pos.ID,
		"mint", pos.Mint,
		"entry_price", pos.EntryPrice.String(),
	)
}

// handleFailure applies the retry policy: exponential backoff and re-queue
// at the tail while the retry budget lasts, terminal failure after.
func (e *Engine) handleFailure(ctx context.Context, rec *Record, submitErr error) {
	retries, final := rec.failAttempt(submitErr.Error(), e.cfg.MaxRetries)
	snap := rec.Snapshot()

	if !final {
		delay := e.cfg.BackoffUnit * (1 << retries)
		e.recorder.RecordRetry(snap.Kind.String())
		e.logger.Warn("execution failed, retrying",
			"execution_id", snap.ID,
			"retry", retries,
			"max_retries", e.cfg.MaxRetries,
			"backoff", delay,
			"err", submitErr,
		)

		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-time.After(delay):
		}

		e.queue.Push(rec)
		return
	}

	e.ledger.Complete(rec)
	e.persistTerminal(ctx, rec)
	e.recorder.RecordExecution(snap.Kind.String(), types.ExecFailed.String())

	e.logger.Error("execution failed permanently",
		"execution_id", snap.ID,
		"kind", snap.Kind,
		"retries", retries,
		"err", submitErr,
	)

	e.alertEvent(ctx, alerting.EventExecutionFailed, "Execution failed",
		"execution_id", snap.ID,
		"kind", snap.Kind.String(),
		"mint", snap.Mint,
		"error", snap.ErrorDetail,
	)
}

// alertEvent delivers an event alert when a channel is configured. Delivery
// failures are logged, never propagated into the execution path.
func (e *Engine) alertEvent(ctx context.Context, event alerting.AlertEvent, message string, fields ...any) {
	if e.alerter == nil {
		return
	}
	if err := e.alerter.AlertEvent(ctx, event, message, fields...); err != nil {
		e.logger.Warn("alert delivery failed", "event", event, "err", err)
	}
}

// monitorLoop periodically re-evaluates open positions against their exit
// thresholds and feeds triggered exits through the shared queue.
func (e *Engine) monitorLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.MonitorInterval)
	defer ticker.Stop()

	e.logger.Info("position monitor started", "interval", e.cfg.MonitorInterval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("position monitor stopped")
			return
		case <-e.done:
			e.logger.Info("position monitor stopped")
			return
		case <-ticker.C:
			e.sweepGuarded(ctx)
		}
	}
}

// sweepGuarded runs one monitor sweep under a recover boundary.
func (e *Engine) sweepGuarded(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("position monitor fault", "panic", r)
			e.recorder.RecordError("monitor_fault")
		}
	}()

	e.sweep(ctx)
}

// sweep re-evaluates every open position at its current tracked price.
// Price refresh itself is the market-data collaborator's responsibility.
func (e *Engine) sweep(ctx context.Context) {
	for _, pos := range e.risk.OpenPositions() {
		if e.ledger.HasPendingCloseFor(pos.ID) {
			continue
		}

		alerts, err := e.risk.UpdatePositionPrice(pos.ID, pos.CurrentPrice)
		if err != nil {
			e.logger.Warn("position re-evaluation failed",
				"position_id", pos.ID,
				"err", err,
			)
			continue
		}

		for _, alert := range alerts {
			switch alert.Kind {
			case types.AlertStopLoss:
				e.logger.Warn("stop-loss triggered",
					"position_id", pos.ID,
					"price", alert.Price,
					"stop_loss", alert.Threshold,
				)
				e.alertEvent(ctx, alerting.EventStopLossTriggered, "Stop loss triggered",
					"position_id", pos.ID,
					"mint", pos.Mint,
					"price", alert.Price.String(),
					"stop_loss", alert.Threshold.String(),
				)
				if _, err := e.TriggerStopLoss(ctx, pos.ID); err != nil {
					e.logger.Error("stop-loss trigger failed", "position_id", pos.ID, "err", err)
				}
			case types.AlertTakeProfit:
				e.logger.Info("take-profit triggered",
					"position_id", pos.ID,
					"price", alert.Price,
					"target", alert.Threshold,
				)
				e.alertEvent(ctx, alerting.EventTakeProfitTriggered, "Take profit triggered",
					"position_id", pos.ID,
					"mint", pos.Mint,
					"price", alert.Price.String(),
					"target", alert.Threshold.String(),
				)
				if _, err := e.TriggerTakeProfit(ctx, pos.ID, e.cfg.TakeProfitFraction); err != nil {
					e.logger.Error("take-profit trigger failed", "position_id", pos.ID, "err", err)
				}
			}
		}
	}

	e.recorder.RecordMonitorSweep()
}

// persistTerminal writes a terminal record to the store, if configured.
func (e *Engine) persistTerminal(ctx context.Context, rec *Record) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveExecution(ctx, rec.Snapshot()); err != nil {
		e.logger.Warn("failed to persist execution",
			"execution_id", rec.ID(),
			"err", err,
		)
		e.recorder.RecordError("persist")
	}
}
