package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/export"
	"github.com/quantdesk/screener/internal/scan"
	"github.com/quantdesk/screener/internal/signal"
)

func signalsCmd() *cobra.Command {
	var (
		watchlist string
		direction string
		exportDir string
		compress  bool
	)

	cmd := &cobra.Command{
		Use:   "signals [TICKER...]",
		Short: "Scan a watchlist for active band-touch signals",
		Long: `Scan tickers for closes at or beyond a Bollinger Band and report the
most recent signal per ticker.

Examples:
  # Find tickers whose latest signal is a buy (close at the lower band)
  screener signals --watchlist core

  # Find overbought tickers instead
  screener signals --watchlist core --direction sell`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tickers, err := resolveTickers(cfg, watchlist, args)
			if err != nil {
				return err
			}

			warnIfMarketClosed(logger)

			client := buildClient(cfg, logger)
			engine := signal.NewEngine(client, logger)
			scanner := scan.NewSignalScanner(engine, signalParams(cfg), cfg.Scan.Workers, logger)

			report, err := scanner.Scan(ctx, tickers, scan.Direction(direction))
			if err != nil {
				return err
			}

			logger.Info("scan complete",
				zap.String("direction", string(report.Direction)),
				zap.Int("tickers", report.Total),
				zap.Int("succeeded", report.Succeeded),
				zap.Int("failed", report.Failed),
				zap.Int("signals", len(report.Rows)),
				zap.String("duration", report.Duration),
			)

			if exportDir != "" {
				name := fmt.Sprintf("signals_%s_%s", report.Direction, time.Now().Format("2006-01-02_15-04-05"))
				path, err := export.NewWriter(exportDir, compress).WriteRows(name, report.Rows)
				if err != nil {
					return err
				}
				logger.Info("report exported", zap.String("path", path))
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVarP(&watchlist, "watchlist", "w", "", "scan a named watchlist from config")
	cmd.Flags().StringVarP(&direction, "direction", "d", string(scan.Buy), "signal direction: buy or sell")
	cmd.Flags().StringVar(&exportDir, "export", "", "write the report rows as JSONL under this directory")
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the exported report")

	return cmd
}
