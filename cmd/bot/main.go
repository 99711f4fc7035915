// Package main is the entry point for the pump.fun trading bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"pumpbot/internal/alerting"
	"pumpbot/internal/config"
	"pumpbot/internal/execution"
	"pumpbot/internal/metrics"
	"pumpbot/internal/persistence"
	"pumpbot/internal/risk"
	"pumpbot/internal/venue"
	"pumpbot/internal/wallet"
)

// Version information (set by build flags).
var (
	Version   = "0.2.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	case "run":
		cmdRun(os.Args[2:])
	case "validate":
		cmdValidate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Pumpbot - Bonding-Curve Token Execution Engine

Usage:
  pumpbot <command> [options]

Commands:
  run        Start the trading bot (live or sim)
  validate   Validate configuration file
  version    Show version information
  help       Show this help message

Examples:
  pumpbot run --config config.yaml
  pumpbot validate --config config.yaml

Use "pumpbot <command> --help" for more information about a command.`)
}

func cmdVersion() {
	fmt.Printf("pumpbot version %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	fs.Parse(args)

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid!")
	fmt.Printf("  Venue mode: %s\n", cfg.Venue.Mode)
	fmt.Printf("  Wallets: %d\n", len(cfg.Wallets))
	fmt.Printf("  Max open positions: %d\n", cfg.Risk.MaxOpenPositions)
	fmt.Printf("  Max retries: %d\n", cfg.Execution.MaxRetries)
	fmt.Printf("  Monitor interval: %ds\n", cfg.Execution.MonitorIntervalSec)
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	fs.Parse(args)

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.SlogLevel())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("pumpbot starting",
		"version", Version,
		"mode", cfg.Venue.Mode,
		"wallets", len(cfg.Wallets),
	)

	metrics.SetBuildInfo(Version, GitCommit, BuildTime)

	// Observability server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		serverCfg := metrics.DefaultServerConfig()
		serverCfg.Port = cfg.Metrics.Port
		metricsServer = metrics.NewServer(serverCfg, logger)
	}

	// Persistence
	var repo *persistence.SQLiteRepository
	var store execution.Store
	if cfg.Persistence.Enabled {
		repo, err = persistence.NewSQLiteRepository(cfg.Persistence.Path)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.Persistence.Path, "err", err)
			os.Exit(1)
		}
		defer func() { _ = repo.Close() }()
		store = repo
	}

	// Alerting
	multi := buildAlerter(cfg, logger)
	var alerter alerting.EventAlerter
	if multi != nil {
		alerter = multi
	}

	// Core components
	wallets := wallet.NewManager(cfg.ToWallets(), logger)
	riskMgr := risk.NewManager(cfg.ToRiskConfig(), logger)

	// Re-register positions persisted by a previous run so the monitor
	// picks their exit thresholds back up.
	if repo != nil {
		restoreOpenPositions(ctx, repo, riskMgr, logger)
	}

	var submitter venue.Submitter
	if cfg.Venue.Mode == "live" {
		submitter = venue.NewClient(cfg.ToVenueClientConfig(), logger)
	} else {
		submitter = venue.NewSimulator(venue.DefaultSimConfig(), logger)
	}

	engine := execution.NewEngine(
		cfg.ToExecutionConfig(),
		submitter,
		wallets,
		riskMgr,
		alerter,
		store,
		logger,
	)

	if metricsServer != nil {
		metricsServer.RegisterHealthCheck("engine", func() metrics.Check {
			if engine.IsRunning() {
				return metrics.Check{Status: "healthy"}
			}
			return metrics.Check{Status: "unhealthy", Message: "engine not running"}
		})
		metricsServer.SetStatusProvider(func() any {
			return engine.Summary()
		})
		if err := metricsServer.Start(); err != nil {
			logger.Error("failed to start observability server", "err", err)
			os.Exit(1)
		}
	}

	if err := engine.Start(ctx); err != nil {
		logger.Error("failed to start engine", "err", err)
		os.Exit(1)
	}

	if multi != nil {
		_ = multi.AlertEvent(ctx, alerting.EventBotStarted, "Bot started",
			"version", Version,
			"mode", cfg.Venue.Mode,
		)
	}

	logger.Info("engine running", "venue", submitter.Name())

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		logger.Warn("engine stop error", "err", err)
	}

	// Persist what the risk manager still holds so a restart can pick up.
	if repo != nil {
		for _, pos := range riskMgr.OpenPositions() {
			if err := repo.SavePosition(shutdownCtx, pos); err != nil {
				logger.Warn("failed to persist position", "position_id", pos.ID, "err", err)
			}
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("observability server shutdown error", "err", err)
		}
	}

	if multi != nil {
		summary := engine.Summary()
		riskSnap := riskMgr.GetSnapshot()
		session := alerting.NewSessionSummary(
			time.Now().UTC(),
			summary.Successful, summary.Failed,
			summary.TotalVolume, summary.MeanSlippage, riskSnap.TotalRealized,
			riskSnap.OpenPositions, riskSnap.ClosedCount, summary.QueueDepth,
		)
		if err := multi.SendSessionSummary(shutdownCtx, session); err != nil {
			logger.Warn("failed to send session summary", "err", err)
		}
		_ = multi.AlertEvent(shutdownCtx, alerting.EventBotStopped, "Bot stopped",
			"completed", summary.Completed,
			"failed", summary.Failed,
			"success_rate", summary.SuccessRate,
		)
	}

	logger.Info("pumpbot shutdown complete")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
}

func buildAlerter(cfg *config.Config, logger *slog.Logger) *alerting.MultiAlerter {
	if !cfg.Alerting.Enabled {
		return nil
	}

	multi := alerting.NewMultiAlerter(logger)
	multi.SetEventFilter(cfg.IsAlertEventEnabled)
	for _, ch := range cfg.Alerting.Channels {
		switch ch.Type {
		case "telegram":
			multi.AddAlerter(alerting.NewTelegramAlerter(alerting.TelegramConfig{
				BotToken: ch.BotToken,
				ChatID:   ch.ChatID,
			}))
		case "console":
			multi.AddAlerter(alerting.NewConsoleAlerter(logger))
		}
	}
	return multi
}

// restoreOpenPositions re-registers persisted open positions with the risk
// manager so their stop-loss and take-profit thresholds are live again
// after a restart. Returns the number restored.
func restoreOpenPositions(ctx context.Context, repo persistence.Repository, riskMgr *risk.Manager, logger *slog.Logger) int {
	positions, err := repo.GetOpenPositions(ctx)
	if err != nil {
		logger.Warn("failed to read persisted positions", "err", err)
		return 0
	}

	restored := 0
	for _, pos := range positions {
		if err := riskMgr.OpenPosition(pos); err != nil {
			logger.Warn("failed to restore position", "position_id", pos.ID, "err", err)
			continue
		}
		restored++
	}
	if restored > 0 {
		logger.Info("open positions restored", "count", restored)
	}
	return restored
}
