package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/broker"
)

// ErrDataUnavailable marks a ticker the collaborators returned no usable
// data for. Fatal for that ticker's unit of work; watchlist aggregators
// swallow it and continue.
var ErrDataUnavailable = errors.New("no price data available")

// Params configures one analysis run.
type Params struct {
	RSIPeriod       int
	BBPeriod        int
	BBDev           float64
	ChartPeriodDays int
	Oversold        float64
	Overbought      float64
}

// DefaultParams returns the standard band/RSI configuration.
func DefaultParams() Params {
	return Params{
		RSIPeriod:       14,
		BBPeriod:        20,
		BBDev:           2,
		ChartPeriodDays: 365,
		Oversold:        30,
		Overbought:      70,
	}
}

func (p Params) validate() error {
	if p.RSIPeriod <= 0 || p.BBPeriod <= 1 || p.BBDev <= 0 {
		return fmt.Errorf("invalid indicator parameters: rsi=%d bb=%d dev=%v", p.RSIPeriod, p.BBPeriod, p.BBDev)
	}
	if p.ChartPeriodDays < 60 || p.ChartPeriodDays > 365 {
		return fmt.Errorf("chart period must be between 60 and 365 days, got %d", p.ChartPeriodDays)
	}
	if p.Oversold < 0 || p.Overbought > 100 || p.Oversold >= p.Overbought {
		return fmt.Errorf("rsi thresholds must satisfy 0 <= oversold < overbought <= 100, got %v/%v", p.Oversold, p.Overbought)
	}
	return nil
}

// Point is one fully derived bar of the joined series.
type Point struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
	SMA   float64   `json:"sma"`
	Upper float64   `json:"upper"`
	Lower float64   `json:"lower"`
	RSI   float64   `json:"rsi"`
}

// Analysis is the result of analyzing one ticker. Oversold and
// Overbought list the bars whose RSI crossed the configured thresholds;
// they complement the band-touch Buys/Sells rather than gating them.
type Analysis struct {
	Ticker       string  `json:"ticker"`
	Series       []Point `json:"series"`
	Buys         []Point `json:"buys"`
	Sells        []Point `json:"sells"`
	Oversold     []Point `json:"oversold"`
	Overbought   []Point `json:"overbought"`
	CurrentPrice float64 `json:"currentPrice"`
}

// Engine computes Bollinger Band and RSI signal series per ticker.
type Engine struct {
	client broker.Client
	logger *zap.Logger
}

func NewEngine(client broker.Client, logger *zap.Logger) *Engine {
	return &Engine{
		client: client,
		logger: logger,
	}
}

// Analyze fetches daily bars plus the live quote for ticker, derives
// bands and RSI, and classifies buy/sell bars. There is no degraded
// output without price history: any collaborator failure is
// ErrDataUnavailable for this ticker.
func (e *Engine) Analyze(ctx context.Context, ticker string, params Params) (*Analysis, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	history, err := e.client.GetPriceHistory(ctx, broker.HistoryRequest{
		Symbol:    ticker,
		StartDate: now.AddDate(0, 0, -params.ChartPeriodDays),
		EndDate:   now,
	})
	if err != nil {
		e.logger.Debug("history fetch failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, ticker)
	}
	if len(history.Candles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, ticker)
	}

	quote, err := e.client.GetQuote(ctx, ticker)
	if err != nil {
		e.logger.Debug("quote fetch failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, ticker)
	}

	series := NewPriceSeries(history.Candles)
	series.AppendLive(quote.LastPrice, quote.QuoteTime())

	closes := series.Closes()
	bands := BollingerBands(closes, params.BBPeriod, params.BBDev)
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: %s has fewer than %d bars", ErrDataUnavailable, ticker, params.BBPeriod)
	}
	rsi := RSI(closes, params.RSIPeriod)

	analysis := &Analysis{
		Ticker:       ticker,
		CurrentPrice: quote.LastPrice,
	}

	// Bands are aligned to bar index bbPeriod-1, RSI to rsiPeriod.
	bandStart := params.BBPeriod - 1
	rsiStart := params.RSIPeriod

	for i, band := range bands {
		barIdx := bandStart + i
		point := Point{
			Date:  series.Bars[barIdx].Date,
			Close: series.Bars[barIdx].Close,
			SMA:   band.SMA,
			Upper: band.Upper,
			Lower: band.Lower,
		}
		hasRSI := barIdx >= rsiStart && barIdx-rsiStart < len(rsi)
		if hasRSI {
			point.RSI = rsi[barIdx-rsiStart]
		}
		analysis.Series = append(analysis.Series, point)

		if hasRSI {
			if point.RSI <= params.Oversold {
				analysis.Oversold = append(analysis.Oversold, point)
			} else if point.RSI >= params.Overbought {
				analysis.Overbought = append(analysis.Overbought, point)
			}
		}

		isBuy := point.Close <= point.Lower
		isSell := point.Close >= point.Upper
		// A zero-variance window collapses the bands onto the close and
		// satisfies both comparisons; such bars signal nothing.
		if isBuy && isSell {
			continue
		}
		if isBuy {
			analysis.Buys = append(analysis.Buys, point)
		} else if isSell {
			analysis.Sells = append(analysis.Sells, point)
		}
	}

	return analysis, nil
}
