package types

import "errors"

// Sentinel errors for the trading system.
var (
	// Execution errors
	ErrNoWallet       = errors.New("no eligible wallet for signal")
	ErrRiskRejected   = errors.New("signal rejected by risk manager")
	ErrNotFound       = errors.New("execution not found")
	ErrNotCancellable = errors.New("execution is not cancellable")
	ErrAlreadyRunning = errors.New("engine already running")
	ErrNotRunning     = errors.New("engine not running")

	// Venue errors
	ErrVenueRejected    = errors.New("trade rejected by venue")
	ErrMalformedResult  = errors.New("malformed venue response")
	ErrSlippageExceeded = errors.New("slippage tolerance exceeded")

	// Position errors
	ErrPositionNotFound = errors.New("position not found")
	ErrPositionClosed   = errors.New("position already closed")

	// Wallet errors
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrDailyLimitExceeded = errors.New("wallet daily usage limit exceeded")

	// Validation errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidAmount = errors.New("invalid order amount")
)
