package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/signal"
)

// Direction selects which side of the band a scan reports.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// ErrUnknownDirection marks a direction other than buy or sell.
var ErrUnknownDirection = errors.New("direction must be buy or sell")

// SignalRow is one ticker's latest actionable signal.
type SignalRow struct {
	Ticker       string `json:"Ticker"`
	Date         string `json:"Date"`
	Price        string `json:"Price"`
	CurrentPrice string `json:"Current_Price"`
}

// SignalReport is the merged result of one watchlist signal scan. Row
// order follows completion; callers re-sort if they need an order.
type SignalReport struct {
	BatchID   string      `json:"batchId"`
	Direction Direction   `json:"direction"`
	Rows      []SignalRow `json:"rows"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Duration  string      `json:"duration"`
}

// SignalScanner fans band/RSI analysis out across a watchlist.
type SignalScanner struct {
	engine  *signal.Engine
	params  signal.Params
	workers int
	logger  *zap.Logger
}

func NewSignalScanner(engine *signal.Engine, params signal.Params, workers int, logger *zap.Logger) *SignalScanner {
	return &SignalScanner{
		engine:  engine,
		params:  params,
		workers: workers,
		logger:  logger,
	}
}

// Scan analyzes every ticker concurrently and reports only the most
// recent bar on the chosen side of the band per ticker. Tickers with no
// active signal, and tickers whose data is unavailable, contribute no
// row; absence is not an error.
func (s *SignalScanner) Scan(ctx context.Context, tickers []string, direction Direction) (*SignalReport, error) {
	if direction != Buy && direction != Sell {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, direction)
	}

	batchID := uuid.NewString()
	start := time.Now()

	results := runPool(ctx, tickers, s.workers, func(ctx context.Context, ticker string) (*signal.Analysis, error) {
		return s.engine.Analyze(ctx, ticker, s.params)
	})

	report := &SignalReport{
		BatchID:   batchID,
		Direction: direction,
		Total:     len(tickers),
	}

	for _, r := range results {
		if r.Err != nil {
			report.Failed++
			s.logger.Warn("ticker analysis failed",
				zap.String("batchId", batchID),
				zap.String("ticker", r.Ticker),
				zap.Error(r.Err),
			)
			continue
		}
		report.Succeeded++

		points := r.Value.Buys
		if direction == Sell {
			points = r.Value.Sells
		}
		if len(points) == 0 {
			// No signal currently active: nothing to report.
			continue
		}

		latest := points[len(points)-1]
		report.Rows = append(report.Rows, SignalRow{
			Ticker:       r.Ticker,
			Date:         latest.Date.Format("2006-01-02"),
			Price:        FormatCurrency(latest.Close),
			CurrentPrice: FormatCurrency(r.Value.CurrentPrice),
		})
	}

	report.Duration = time.Since(start).String()

	s.logger.Info("signal scan complete",
		zap.String("batchId", batchID),
		zap.String("direction", string(direction)),
		zap.Int("tickers", report.Total),
		zap.Int("failed", report.Failed),
		zap.Int("rows", len(report.Rows)),
	)

	return report, nil
}
