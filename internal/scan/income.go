package scan

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/screener"
)

// IncomeRow is one qualifying contract, display-formatted for the
// presentation layer.
type IncomeRow struct {
	Strike     string `json:"STRIKE"`
	StockPrice string `json:"STOCK PRICE"`
	Volatility string `json:"VOLATILITY"`
	Delta      string `json:"DELTA"`
	Mark       string `json:"MARK"`
	Ticker     string `json:"TICKER"`
	Expiration string `json:"EXPIRATION"`
	Days       int    `json:"DAYS"`
	Returns    string `json:"RETURNS"`
	BreakEven  string `json:"BREAK EVEN"`
	Symbol     string `json:"SYMBOL"`
	OTM        string `json:"OTM"`
}

// IncomeReport is the merged result of one watchlist income scan.
type IncomeReport struct {
	BatchID   string      `json:"batchId"`
	Rows      []IncomeRow `json:"rows"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Duration  string      `json:"duration"`
}

// IncomeScanner fans an income screen out across a watchlist.
type IncomeScanner struct {
	screener *screener.Screener
	workers  int
	logger   *zap.Logger
}

func NewIncomeScanner(s *screener.Screener, workers int, logger *zap.Logger) *IncomeScanner {
	return &IncomeScanner{
		screener: s,
		workers:  workers,
		logger:   logger,
	}
}

// Scan screens every ticker concurrently and merges qualifying contracts
// into one table sorted by returns descending. A per-ticker failure
// contributes zero rows; it never aborts the batch. Invalid criteria
// fail the whole batch synchronously before any work starts.
func (s *IncomeScanner) Scan(ctx context.Context, tickers []string, crit screener.Criteria) (*IncomeReport, error) {
	if err := crit.Validate(); err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	start := time.Now()

	results := runPool(ctx, tickers, s.workers, func(ctx context.Context, ticker string) ([]screener.OptionContract, error) {
		return s.screener.FindIncomeContracts(ctx, ticker, crit)
	})

	report := &IncomeReport{
		BatchID: batchID,
		Total:   len(tickers),
	}

	var contracts []screener.OptionContract
	for _, r := range results {
		if r.Err != nil {
			report.Failed++
			s.logger.Warn("ticker screen failed",
				zap.String("batchId", batchID),
				zap.String("ticker", r.Ticker),
				zap.Error(r.Err),
			)
			continue
		}
		report.Succeeded++
		contracts = append(contracts, r.Value...)
	}

	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].Returns > contracts[j].Returns
	})

	for _, c := range contracts {
		report.Rows = append(report.Rows, IncomeRow{
			Strike:     FormatCurrency(c.StrikePrice),
			StockPrice: FormatCurrency(c.StockPrice),
			Volatility: strconv.FormatFloat(c.Volatility, 'f', 2, 64),
			Delta:      strconv.FormatFloat(c.Delta, 'f', 2, 64),
			Mark:       FormatCurrency(c.Mark),
			Ticker:     c.Underlying,
			Expiration: c.Expiration,
			Days:       c.DaysToExpiration,
			Returns:    FormatPercent(c.Returns),
			BreakEven:  FormatCurrency(c.Breakeven),
			Symbol:     c.Symbol,
			OTM:        FormatPercent(c.PercentageOTM),
		})
	}

	report.Duration = time.Since(start).String()

	s.logger.Info("income scan complete",
		zap.String("batchId", batchID),
		zap.Int("tickers", report.Total),
		zap.Int("failed", report.Failed),
		zap.Int("rows", len(report.Rows)),
	)

	return report, nil
}
