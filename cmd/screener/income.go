package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/broker"
	"github.com/quantdesk/screener/internal/export"
	"github.com/quantdesk/screener/internal/scan"
	"github.com/quantdesk/screener/internal/screener"
)

func incomeCmd() *cobra.Command {
	var (
		watchlist    string
		contractType string
		minDays      int
		maxDays      int
		moneyness    float64
		premium      float64
		minDelta     float64
		maxDelta     float64
		exportDir    string
		compress     bool
	)

	defaults := screener.DefaultCriteria()

	cmd := &cobra.Command{
		Use:   "income [TICKER...]",
		Short: "Screen option chains for income-generating contracts",
		Long: `Screen option chains for contracts that clear the moneyness, premium
and delta gates, sorted by annualized return.

Examples:
  # Screen a watchlist for cash-secured put candidates
  screener income --watchlist core --contract-type put

  # Screen explicit tickers for covered call candidates
  screener income --contract-type call AAPL MSFT

  # Loosen the moneyness gate and export the results
  screener income --watchlist core --contract-type put --moneyness 5 --export ./reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tickers, err := resolveTickers(cfg, watchlist, args)
			if err != nil {
				return err
			}

			crit := screener.Criteria{
				MinExpirationDays: minDays,
				MaxExpirationDays: maxDays,
				MoneynessPct:      moneyness,
				PremiumPct:        premium,
				MinDelta:          minDelta,
				MaxDelta:          maxDelta,
				ContractType:      broker.ContractType(strings.ToUpper(contractType)),
			}

			warnIfMarketClosed(logger)

			client := buildClient(cfg, logger)
			scanner := scan.NewIncomeScanner(screener.New(client, logger), cfg.Scan.Workers, logger)

			report, err := scanner.Scan(ctx, tickers, crit)
			if err != nil {
				return err
			}

			logger.Info("scan complete",
				zap.Int("tickers", report.Total),
				zap.Int("succeeded", report.Succeeded),
				zap.Int("failed", report.Failed),
				zap.Int("contracts", len(report.Rows)),
				zap.String("duration", report.Duration),
			)

			if exportDir != "" {
				name := fmt.Sprintf("income_%s", time.Now().Format("2006-01-02_15-04-05"))
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

	cmd.Flags().StringVarP(&watchlist, "watchlist", "w", "", "screen a named watchlist from config")
	cmd.Flags().StringVar(&contractType, "contract-type", "", "put or call (required)")
	cmd.Flags().IntVar(&minDays, "min-days", defaults.MinExpirationDays, "minimum days to expiration")
	cmd.Flags().IntVar(&maxDays, "max-days", defaults.MaxExpirationDays, "maximum days to expiration")
	cmd.Flags().Float64Var(&moneyness, "moneyness", defaults.MoneynessPct, "minimum percent out of the money")
	cmd.Flags().Float64Var(&premium, "premium", defaults.PremiumPct, "minimum premium as percent of stock price")
	cmd.Flags().Float64Var(&minDelta, "min-delta", defaults.MinDelta, "minimum delta magnitude")
	cmd.Flags().Float64Var(&maxDelta, "max-delta", defaults.MaxDelta, "maximum delta magnitude")
	cmd.Flags().StringVar(&exportDir, "export", "", "write the report rows as JSONL under this directory")
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the exported report")

	return cmd
}
