package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/broker"
	"github.com/quantdesk/screener/internal/config"
	"github.com/quantdesk/screener/internal/export"
	"github.com/quantdesk/screener/internal/scan"
	"github.com/quantdesk/screener/internal/screener"
)

// ScanTracker tracks the last successfully scanned date
type ScanTracker struct {
	stateFile string
}

// NewScanTracker creates a new tracker with the given state file path
func NewScanTracker(stateFile string) *ScanTracker {
	return &ScanTracker{stateFile: stateFile}
}

// GetLastScanDate reads the last successful scan date from state file
func (t *ScanTracker) GetLastScanDate() string {
	data, err := os.ReadFile(t.stateFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetLastScanDate writes the date to the state file
func (t *ScanTracker) SetLastScanDate(date string) error {
	// Ensure directory exists
	dir := filepath.Dir(t.stateFile)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	return os.WriteFile(t.stateFile, []byte(date+"\n"), 0600)
}

// AlreadyScanned checks if the given date was already scanned
func (t *ScanTracker) AlreadyScanned(date string) bool {
	return t.GetLastScanDate() == date
}

// executeScan runs the income scan for the configured watchlist and
// exports the report when an export directory is set.
func executeScan(ctx context.Context, cfg *config.Config, daemonCfg *DaemonConfig, date string, logger *zap.Logger) (*scan.IncomeReport, error) {
	tickers, ok := cfg.Watchlist(daemonCfg.Watchlist)
	if !ok {
		return nil, fmt.Errorf("unknown watchlist: %s", daemonCfg.Watchlist)
	}

	client := broker.NewClient(
		cfg.Broker.BaseURL,
		cfg.Broker.APIKey,
		cfg.Broker.RatePerSecond,
		time.Duration(cfg.Broker.TimeoutSec)*time.Second,
		time.Duration(cfg.Broker.RetryDelaySec)*time.Second,
		cfg.Broker.RetryCount,
		logger,
	)

	crit := screener.DefaultCriteria()
	crit.ContractType = broker.ContractType(strings.ToUpper(daemonCfg.ContractType))

	scanner := scan.NewIncomeScanner(screener.New(client, logger), cfg.Scan.Workers, logger)

	report, err := scanner.Scan(ctx, tickers, crit)
	if err != nil {
		return nil, err
	}

	logger.Info("scan complete",
		zap.String("date", date),
		zap.Int("tickers", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("contracts", len(report.Rows)),
		zap.String("duration", report.Duration),
	)

	if daemonCfg.ExportDir != "" {
		name := fmt.Sprintf("income_%s", date)
		path, err := export.NewWriter(daemonCfg.ExportDir, daemonCfg.Compress).WriteRows(name, report.Rows)
		if err != nil {
			logger.Warn("failed to export report", zap.Error(err))
		} else {
			logger.Info("report exported", zap.String("path", path))
		}
	}

	return report, nil
}
