package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"pumpbot/internal/types"
)

const validYAML = `
log_level: debug
venue:
  mode: sim
  slippage_pct: 0.8
  priority_fee: 0.0002
execution:
  max_retries: 4
  backoff_unit_ms: 500
  monitor_interval_sec: 5
  take_profit_fraction: 0.5
risk:
  max_open_positions: 3
  max_position_size: 1.5
  min_wallet_balance: 0.05
wallets:
  - id: main
    strategy: momentum
    balance: 10.0
    max_daily_usage: 5.0
  - id: backup
    balance: 2.0
persistence:
  enabled: true
  path: /tmp/pumpbot.db
metrics:
  enabled: true
  port: 9100
`

func TestLoadFromBytes_Valid(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.Venue.Mode != "sim" {
		t.Errorf("Venue.Mode = %s, want sim", cfg.Venue.Mode)
	}
	if cfg.Execution.MaxRetries != 4 {
		t.Errorf("MaxRetries = %d, want 4", cfg.Execution.MaxRetries)
	}
	if len(cfg.Wallets) != 2 {
		t.Fatalf("wallets = %d, want 2", len(cfg.Wallets))
	}
	if cfg.Wallets[0].Strategy != "momentum" {
		t.Errorf("Wallets[0].Strategy = %s, want momentum", cfg.Wallets[0].Strategy)
	}
	if cfg.Metrics.Port != 9100 {
		t.Errorf("Metrics.Port = %d, want 9100", cfg.Metrics.Port)
	}
}

func TestLoadFromBytes_Defaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
wallets:
  - id: main
    balance: 1.0
`))
	if err != nil {
		t.Fatalf("LoadFromBytes() error = %v", err)
	}

	if cfg.Venue.Mode != "sim" {
		t.Errorf("Venue.Mode = %s, want sim", cfg.Venue.Mode)
	}
	if cfg.Execution.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Execution.MaxRetries)
	}
	if cfg.Execution.MonitorIntervalSec != 10 {
		t.Errorf("MonitorIntervalSec = %d, want 10", cfg.Execution.MonitorIntervalSec)
	}
	if cfg.Risk.MaxOpenPositions != 5 {
		t.Errorf("MaxOpenPositions = %d, want 5", cfg.Risk.MaxOpenPositions)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Metrics.Port = %d, want 9090", cfg.Metrics.Port)
	}
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_PUMPBOT_KEY", "secret-key")

	cfg, err := LoadFromBytes([]byte(`
venue:
  mode: live
  api_key: ${TEST_PUMPBOT_KEY}
wallets:
  - id: main
    balance: 1.0
`))
	if err != nil {
		t.Fatalf("LoadFromBytes() error = %v", err)
	}

	if cfg.Venue.APIKey != "secret-key" {
		t.Errorf("APIKey = %s, want secret-key", cfg.Venue.APIKey)
	}
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no wallets",
			yaml: `
venue:
  mode: sim
`,
		},
		{
			name: "live without api key",
			yaml: `
venue:
  mode: live
wallets:
  - id: main
    balance: 1.0
`,
		},
		{
			name: "bad venue mode",
			yaml: `
venue:
  mode: dryrun
wallets:
  - id: main
    balance: 1.0
`,
		},
		{
			name: "duplicate wallet id",
			yaml: `
wallets:
  - id: main
    balance: 1.0
  - id: main
    balance: 2.0
`,
		},
		{
			name: "persistence without path",
			yaml: `
wallets:
  - id: main
    balance: 1.0
persistence:
  enabled: true
`,
		},
		{
			name: "telegram channel without token",
			yaml: `
wallets:
  - id: main
    balance: 1.0
alerting:
  enabled: true
  channels:
    - type: telegram
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, types.ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Persistence.Path != "/tmp/pumpbot.db" {
		t.Errorf("Persistence.Path = %s, want /tmp/pumpbot.db", cfg.Persistence.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfig_Converters(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes() error = %v", err)
	}

	exec := cfg.ToExecutionConfig()
	if exec.MaxRetries != 4 {
		t.Errorf("MaxRetries = %d, want 4", exec.MaxRetries)
	}
	if exec.BackoffUnit != 500*time.Millisecond {
		t.Errorf("BackoffUnit = %v, want 500ms", exec.BackoffUnit)
	}
	if exec.MonitorInterval != 5*time.Second {
		t.Errorf("MonitorInterval = %v, want 5s", exec.MonitorInterval)
	}
	if !exec.SlippagePct.Equal(decimal.NewFromFloat(0.8)) {
		t.Errorf("SlippagePct = %s, want 0.8", exec.SlippagePct)
	}

	rk := cfg.ToRiskConfig()
	if rk.MaxOpenPositions != 3 {
		t.Errorf("MaxOpenPositions = %d, want 3", rk.MaxOpenPositions)
	}
	if !rk.MaxPositionSize.Equal(decimal.NewFromFloat(1.5)) {
		t.Errorf("MaxPositionSize = %s, want 1.5", rk.MaxPositionSize)
	}

	wallets := cfg.ToWallets()
	if len(wallets) != 2 {
		t.Fatalf("wallets = %d, want 2", len(wallets))
	}
	if !wallets[0].MaxDailyUsage.Equal(decimal.NewFromFloat(5.0)) {
		t.Errorf("MaxDailyUsage = %s, want 5.0", wallets[0].MaxDailyUsage)
	}
}

func TestConfig_IsAlertEventEnabled(t *testing.T) {
	cfg := &Config{
		Alerting: AlertingConfig{
			Enabled: true,
			Events:  []string{"execution_failed", "stop_loss_triggered"},
		},
	}

	if !cfg.IsAlertEventEnabled("execution_failed") {
		t.Error("execution_failed should be enabled")
	}
	if cfg.IsAlertEventEnabled("position_opened") {
		t.Error("position_opened should be disabled")
	}

	cfg.Alerting.Events = nil
	if !cfg.IsAlertEventEnabled("anything") {
		t.Error("all events should be enabled when none listed")
	}

	cfg.Alerting.Enabled = false
	if cfg.IsAlertEventEnabled("anything") {
		t.Error("no events should be enabled when alerting disabled")
	}
}
