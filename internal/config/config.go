// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"pumpbot/internal/execution"
	"pumpbot/internal/risk"
	"pumpbot/internal/types"
	"pumpbot/internal/venue"
	"pumpbot/internal/wallet"
)

// Config represents the full application configuration.
type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Venue       VenueConfig       `yaml:"venue"`
	Execution   ExecutionConfig   `yaml:"execution"`
	Risk        RiskConfig        `yaml:"risk"`
	Wallets     []WalletConfig    `yaml:"wallets"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Alerting    AlertingConfig    `yaml:"alerting"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// VenueConfig holds trade venue settings.
type VenueConfig struct {
	Mode               string  `yaml:"mode"` // live | sim
	Endpoint           string  `yaml:"endpoint"`
	APIKey             string  `yaml:"api_key"`
	TimeoutSec         int     `yaml:"timeout_sec"`
	RateLimitPerSecond int     `yaml:"rate_limit_per_second"`
	SlippagePct        float64 `yaml:"slippage_pct"`
	PriorityFee        float64 `yaml:"priority_fee"`
	Pool               string  `yaml:"pool"`
}

// ExecutionConfig holds execution engine settings.
type ExecutionConfig struct {
	MaxRetries         int     `yaml:"max_retries"`
	BackoffUnitMs      int     `yaml:"backoff_unit_ms"`
	MonitorIntervalSec int     `yaml:"monitor_interval_sec"`
	TakeProfitFraction float64 `yaml:"take_profit_fraction"`
}

// RiskConfig holds risk management settings.
type RiskConfig struct {
	MaxOpenPositions   int     `yaml:"max_open_positions"`
	MaxPositionSize    float64 `yaml:"max_position_size"`
	MinWalletBalance   float64 `yaml:"min_wallet_balance"`
	TrailingActivation float64 `yaml:"trailing_activation"`
	TrailingStopRatio  float64 `yaml:"trailing_stop_ratio"`
	TierTwoClosePct    float64 `yaml:"tier_two_close_pct"`
	TierOneClosePct    float64 `yaml:"tier_one_close_pct"`
	TierTwoMinSize     float64 `yaml:"tier_two_min_size"`
	TierOneMinSize     float64 `yaml:"tier_one_min_size"`
}

// WalletConfig holds a single funding wallet.
type WalletConfig struct {
	ID            string  `yaml:"id"`
	Strategy      string  `yaml:"strategy"`
	Balance       float64 `yaml:"balance"`
	MaxDailyUsage float64 `yaml:"max_daily_usage"`
}

// PersistenceConfig holds persistence settings.
type PersistenceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AlertingConfig holds alerting settings.
type AlertingConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Channels []ChannelConfig `yaml:"channels"`
	Events   []string        `yaml:"events"`
}

// ChannelConfig holds a single alert channel configuration.
type ChannelConfig struct {
	Type     string `yaml:"type"` // telegram | console
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes. Environment
// variables referenced as ${VAR} are expanded before parsing.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Venue.Mode == "" {
		c.Venue.Mode = "sim"
	}
	if c.Venue.TimeoutSec <= 0 {
		c.Venue.TimeoutSec = 15
	}
	if c.Venue.RateLimitPerSecond <= 0 {
		c.Venue.RateLimitPerSecond = 5
	}
	if c.Venue.SlippagePct <= 0 {
		c.Venue.SlippagePct = 1.0
	}
	if c.Venue.Pool == "" {
		c.Venue.Pool = "pump"
	}
	if c.Execution.MaxRetries <= 0 {
		c.Execution.MaxRetries = 3
	}
	if c.Execution.BackoffUnitMs <= 0 {
		c.Execution.BackoffUnitMs = 1000
	}
	if c.Execution.MonitorIntervalSec <= 0 {
		c.Execution.MonitorIntervalSec = 10
	}
	if c.Execution.TakeProfitFraction <= 0 {
		c.Execution.TakeProfitFraction = 0.5
	}
	if c.Risk.MaxOpenPositions <= 0 {
		c.Risk.MaxOpenPositions = 5
	}
	if c.Risk.MaxPositionSize <= 0 {
		c.Risk.MaxPositionSize = 2.0
	}
	if c.Risk.TrailingStopRatio <= 0 {
		c.Risk.TrailingStopRatio = 0.90
	}
	if c.Risk.TrailingActivation <= 0 {
		c.Risk.TrailingActivation = 0.10
	}
	if c.Risk.TierTwoClosePct <= 0 {
		c.Risk.TierTwoClosePct = 0.60
	}
	if c.Risk.TierOneClosePct <= 0 {
		c.Risk.TierOneClosePct = 0.50
	}
	if c.Risk.TierTwoMinSize <= 0 {
		c.Risk.TierTwoMinSize = 0.2
	}
	if c.Risk.TierOneMinSize <= 0 {
		c.Risk.TierOneMinSize = 0.5
	}
	if c.Metrics.Port <= 0 {
		c.Metrics.Port = 9090
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Venue.Mode {
	case "live":
		if c.Venue.APIKey == "" {
			errs = append(errs, "venue.api_key is required in live mode")
		}
	case "sim":
	default:
		errs = append(errs, "venue.mode must be 'live' or 'sim'")
	}

	if c.Execution.TakeProfitFraction > 1 {
		errs = append(errs, "execution.take_profit_fraction must not exceed 1")
	}

	if c.Risk.TrailingStopRatio >= 1 {
		errs = append(errs, "risk.trailing_stop_ratio must be below 1")
	}
	if c.Risk.MinWalletBalance < 0 {
		errs = append(errs, "risk.min_wallet_balance must not be negative")
	}

	if len(c.Wallets) == 0 {
		errs = append(errs, "at least one wallet is required")
	}
	seen := make(map[string]bool)
	for i, w := range c.Wallets {
		if w.ID == "" {
			errs = append(errs, fmt.Sprintf("wallets[%d].id is required", i))
			continue
		}
		if seen[w.ID] {
			errs = append(errs, fmt.Sprintf("duplicate wallet id %q", w.ID))
		}
		seen[w.ID] = true
		if w.Balance < 0 {
			errs = append(errs, fmt.Sprintf("wallets[%d].balance must not be negative", i))
		}
	}

	if c.Persistence.Enabled && c.Persistence.Path == "" {
		errs = append(errs, "persistence.path is required when persistence is enabled")
	}

	if c.Alerting.Enabled {
		for i, ch := range c.Alerting.Channels {
			switch ch.Type {
			case "telegram":
				if ch.BotToken == "" || ch.ChatID == "" {
					errs = append(errs, fmt.Sprintf("alerting.channels[%d] telegram requires bot_token and chat_id", i))
				}
			case "console":
			default:
				errs = append(errs, fmt.Sprintf("alerting.channels[%d].type %q is not supported", i, ch.Type))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// ToExecutionConfig converts to execution.Config.
func (c *Config) ToExecutionConfig() execution.Config {
	return execution.Config{
		MaxRetries:         c.Execution.MaxRetries,
		BackoffUnit:        time.Duration(c.Execution.BackoffUnitMs) * time.Millisecond,
		MonitorInterval:    time.Duration(c.Execution.MonitorIntervalSec) * time.Second,
		TakeProfitFraction: decimal.NewFromFloat(c.Execution.TakeProfitFraction),
		SlippagePct:        decimal.NewFromFloat(c.Venue.SlippagePct),
		PriorityFee:        decimal.NewFromFloat(c.Venue.PriorityFee),
		Pool:               c.Venue.Pool,
		FaultPause:         time.Second,
	}
}

// ToRiskConfig converts to risk.Config.
func (c *Config) ToRiskConfig() risk.Config {
	return risk.Config{
		MaxOpenPositions:   c.Risk.MaxOpenPositions,
		MaxPositionSize:    decimal.NewFromFloat(c.Risk.MaxPositionSize),
		MinWalletBalance:   decimal.NewFromFloat(c.Risk.MinWalletBalance),
		TrailingActivation: decimal.NewFromFloat(c.Risk.TrailingActivation),
		TrailingStopRatio:  decimal.NewFromFloat(c.Risk.TrailingStopRatio),
		TierTwoClosePct:    decimal.NewFromFloat(c.Risk.TierTwoClosePct),
		TierOneClosePct:    decimal.NewFromFloat(c.Risk.TierOneClosePct),
		TierTwoMinSize:     decimal.NewFromFloat(c.Risk.TierTwoMinSize),
		TierOneMinSize:     decimal.NewFromFloat(c.Risk.TierOneMinSize),
	}
}

// ToVenueClientConfig converts to venue.ClientConfig for live trading.
func (c *Config) ToVenueClientConfig() venue.ClientConfig {
	cfg := venue.ClientConfig{
		APIKey:               c.Venue.APIKey,
		Timeout:              time.Duration(c.Venue.TimeoutSec) * time.Second,
		MaxRequestsPerSecond: c.Venue.RateLimitPerSecond,
	}
	if c.Venue.Endpoint != "" {
		cfg.Endpoint = c.Venue.Endpoint
	}
	return cfg
}

// ToWallets converts configured wallets to the wallet manager's seed set.
func (c *Config) ToWallets() []wallet.Wallet {
	out := make([]wallet.Wallet, 0, len(c.Wallets))
	for _, w := range c.Wallets {
		out = append(out, wallet.Wallet{
			ID:            w.ID,
			Strategy:      w.Strategy,
			Balance:       decimal.NewFromFloat(w.Balance),
			MaxDailyUsage: decimal.NewFromFloat(w.MaxDailyUsage),
		})
	}
	return out
}

// SlogLevel maps the configured log level to a slog level string.
func (c *Config) SlogLevel() string {
	return strings.ToLower(c.LogLevel)
}

// IsAlertEventEnabled checks if an alert event type is enabled.
func (c *Config) IsAlertEventEnabled(event string) bool {
	if !c.Alerting.Enabled {
		return false
	}
	// No events specified means all are enabled
	if len(c.Alerting.Events) == 0 {
		return true
	}
	for _, e := range c.Alerting.Events {
		if e == event || e == "all" {
			return true
		}
	}
	return false
}
