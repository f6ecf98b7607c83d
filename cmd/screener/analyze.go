package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/signal"
)

func analyzeCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "analyze TICKER",
		Short: "Compute Bollinger Band and RSI series for one ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ticker := args[0]

			client := buildClient(cfg, logger)
			engine := signal.NewEngine(client, logger)

			analysis, err := engine.Analyze(ctx, ticker, signalParams(cfg))
			if err != nil {
				return err
			}

			logger.Info("analysis complete",
				zap.String("ticker", analysis.Ticker),
				zap.Float64("currentPrice", analysis.CurrentPrice),
				zap.Int("bars", len(analysis.Series)),
				zap.Int("buys", len(analysis.Buys)),
				zap.Int("sells", len(analysis.Sells)),
			)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			if full {
				return enc.Encode(analysis)
			}

			// Condensed view: signals only, full series omitted
			summary := struct {
				Ticker       string         `json:"ticker"`
				CurrentPrice float64        `json:"currentPrice"`
				Bars         int            `json:"bars"`
				Buys         []signal.Point `json:"buys"`
				Sells        []signal.Point `json:"sells"`
			}{
				Ticker:       analysis.Ticker,
				CurrentPrice: analysis.CurrentPrice,
				Bars:         len(analysis.Series),
				Buys:         analysis.Buys,
				Sells:        analysis.Sells,
			}
			return enc.Encode(summary)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "include the full indicator series in the output")

	return cmd
}
