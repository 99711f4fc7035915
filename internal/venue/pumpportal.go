package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
	"pumpbot/internal/types"
)

// ClientConfig holds configuration for the PumpPortal HTTP client.
type ClientConfig struct {
	Endpoint             string
	APIKey               string
	Timeout              time.Duration
	MaxRequestsPerSecond int
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint:             "https://pumpportal.fun/api/trade",
		Timeout:              15 * time.Second,
		MaxRequestsPerSecond: 5,
	}
}

// Client submits trades to a PumpPortal-style HTTP trade endpoint.
type Client struct {
	cfg     ClientConfig
	logger  *slog.Logger
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new venue client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://pumpportal.fun/api/trade"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRequestsPerSecond <= 0 {
		cfg.MaxRequestsPerSecond = 5
	}

	return &Client{
		cfg:     cfg,
		logger:  logger,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), cfg.MaxRequestsPerSecond),
	}
}

// Name returns the venue name.
func (c *Client) Name() string {
	return "pumpportal"
}

// tradePayload is the wire format of a trade request.
type tradePayload struct {
	Action           string          `json:"action"`
	Mint             string          `json:"mint"`
	Amount           decimal.Decimal `json:"amount"`
	DenominatedInSol bool            `json:"denominatedInSol"`
	Slippage         decimal.Decimal `json:"slippage"`
	PriorityFee      decimal.Decimal `json:"priorityFee"`
	Pool             string          `json:"pool"`
}

// tradeResponse is the wire format of a trade result.
type tradeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Signature string          `json:"signature"`
		Price     decimal.Decimal `json:"price"`
		Amount    decimal.Decimal `json:"amount"`
		Fee       decimal.Decimal `json:"fee"`
	} `json:"data"`
}

// Submit executes a market order against the venue.
func (c *Client) Submit(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	payload := tradePayload{
		Action:           string(req.Action),
		Mint:             req.Mint,
		Amount:           req.Amount,
		DenominatedInSol: req.DenominatedInSol,
		Slippage:         req.Slippage,
		PriorityFee:      req.PriorityFee,
		Pool:             req.Pool,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal trade: %w", err)
	}

	url := c.cfg.Endpoint
	if c.cfg.APIKey != "" {
		url += "?api-key=" + c.cfg.APIKey
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit trade: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", types.ErrVenueRejected, resp.StatusCode, string(respBody))
	}

	var parsed tradeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedResult, err)
	}

	if !parsed.Success {
		detail := parsed.Error
		if detail == "" {
			detail = "unknown error"
		}
		return nil, fmt.Errorf("%w: %s", types.ErrVenueRejected, detail)
	}

	if parsed.Data.Signature == "" {
		return nil, fmt.Errorf("%w: missing signature", types.ErrMalformedResult)
	}

	c.logger.Debug("trade submitted",
		"action", req.Action,
		"mint", req.Mint,
		"signature", parsed.Data.Signature,
		"price", parsed.Data.Price,
		"amount", parsed.Data.Amount,
	)

	return &TradeResult{
		Signature: parsed.Data.Signature,
		Price:     parsed.Data.Price,
		Amount:    parsed.Data.Amount,
		Fee:       parsed.Data.Fee,
	}, nil
}

// Ensure Client implements Submitter.
var _ Submitter = (*Client)(nil)
