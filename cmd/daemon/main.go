package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/config"
	"github.com/quantdesk/screener/internal/notify"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load daemon config
	daemonCfg := LoadDaemonConfig()

	logger.Info("daemon configuration loaded",
		zap.Int("scheduleHour", daemonCfg.ScheduleHour),
		zap.Int("scheduleMinute", daemonCfg.ScheduleMinute),
		zap.String("timezone", daemonCfg.Timezone),
		zap.String("configPath", daemonCfg.ConfigPath),
		zap.String("stateFile", daemonCfg.StateFile),
		zap.String("watchlist", daemonCfg.Watchlist),
		zap.String("contractType", daemonCfg.ContractType),
		zap.Bool("runOnStartup", daemonCfg.RunOnStartup),
	)

	// Load screener config
	cfg, err := config.Load(daemonCfg.ConfigPath)
	if err != nil {
		logger.Error("failed to load screener config", zap.Error(err))
		return 1
	}

	logger.Info("screener configuration loaded",
		zap.Int("workers", cfg.Scan.Workers),
		zap.Int("watchlists", len(cfg.Watchlists)),
	)

	// Load notification config
	notifyCfg := notify.LoadConfig()
	if err := notifyCfg.Validate(); err != nil {
		logger.Error("invalid notification config", zap.Error(err))
		return 1
	}
	notifier := notify.New(notifyCfg, logger)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Create scheduler and tracker
	scheduler := NewScheduler(daemonCfg.ScheduleHour, daemonCfg.ScheduleMinute, daemonCfg.Timezone)
	tracker := NewScanTracker(daemonCfg.StateFile)

	logger.Info("daemon started",
		zap.String("schedule", fmt.Sprintf("%02d:%02d %s", daemonCfg.ScheduleHour, daemonCfg.ScheduleMinute, daemonCfg.Timezone)),
	)

	// Check on startup if enabled
	if daemonCfg.RunOnStartup {
		logger.Info("checking for missed scan on startup")
		if shouldScan(scheduler, tracker, logger) {
			runScan(ctx, cfg, daemonCfg, scheduler, tracker, notifier, logger)
		}
	}

	// Main loop - check every minute
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			cancel()
			return 0

		case <-ticker.C:
			if shouldScan(scheduler, tracker, logger) {
				runScan(ctx, cfg, daemonCfg, scheduler, tracker, notifier, logger)
			}

		case <-ctx.Done():
			logger.Info("context cancelled, shutting down")
			return 0
		}
	}
}

// shouldScan checks if conditions are met for triggering a scan
func shouldScan(scheduler *Scheduler, tracker *ScanTracker, logger *zap.Logger) bool {
	today := scheduler.Today()

	// Check if already scanned today
	if tracker.AlreadyScanned(today) {
		return false
	}

	// Check if it's a market day
	if !scheduler.IsTradingDay() {
		logger.Debug("not a market day", zap.String("date", today))
		return false
	}

	// Check if it's the scheduled time
	if !scheduler.IsScheduledTime() {
		return false
	}

	logger.Info("scan conditions met",
		zap.String("date", today),
		zap.String("time", time.Now().In(scheduler.Location()).Format("15:04:05")),
	)

	return true
}

// runScan executes the scan, notifies, and updates the tracker
func runScan(ctx context.Context, cfg *config.Config, daemonCfg *DaemonConfig, scheduler *Scheduler, tracker *ScanTracker, notifier notify.Notifier, logger *zap.Logger) {
	today := scheduler.Today()

	logger.Info("starting scheduled scan", zap.String("date", today))
	start := time.Now()

	report, err := executeScan(ctx, cfg, daemonCfg, today, logger)
	if err != nil {
		logger.Error("scan failed", zap.Error(err), zap.String("date", today))
		if nerr := notifier.SendFailure(ctx, today, err); nerr != nil {
			logger.Warn("failed to send failure notification", zap.Error(nerr))
		}
		return
	}

	logger.Info("scan succeeded",
		zap.String("date", today),
		zap.Duration("duration", time.Since(start)),
	)

	if nerr := notifier.SendSuccess(ctx, report, today); nerr != nil {
		logger.Warn("failed to send success notification", zap.Error(nerr))
	}

	// Update tracker to prevent re-scan
	if err := tracker.SetLastScanDate(today); err != nil {
		logger.Error("failed to update tracker", zap.Error(err))
	}
}
