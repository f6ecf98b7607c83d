package main

import (
	"fmt"
	"time"

	"github.com/scmhub/calendar"
	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/broker"
	"github.com/quantdesk/screener/internal/config"
	"github.com/quantdesk/screener/internal/signal"
)

// buildClient constructs the rate-limited broker client from config.
func buildClient(cfg *config.Config, logger *zap.Logger) *broker.HTTPClient {
	return broker.NewClient(
		cfg.Broker.BaseURL,
		cfg.Broker.APIKey,
		cfg.Broker.RatePerSecond,
		time.Duration(cfg.Broker.TimeoutSec)*time.Second,
		time.Duration(cfg.Broker.RetryDelaySec)*time.Second,
		cfg.Broker.RetryCount,
		logger,
	)
}

// resolveTickers picks the ticker set: explicit args win, otherwise the
// named watchlist from config.
func resolveTickers(cfg *config.Config, watchlist string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if watchlist == "" {
		return nil, fmt.Errorf("provide tickers as arguments or use --watchlist")
	}

	tickers, ok := cfg.Watchlist(watchlist)
	if !ok {
		return nil, fmt.Errorf("unknown watchlist: %s", watchlist)
	}
	return tickers, nil
}

// signalParams applies config overrides on top of the defaults.
func signalParams(cfg *config.Config) signal.Params {
	params := signal.DefaultParams()
	if cfg.Signal.RSIPeriod > 0 {
		params.RSIPeriod = cfg.Signal.RSIPeriod
	}
	if cfg.Signal.BBPeriod > 0 {
		params.BBPeriod = cfg.Signal.BBPeriod
	}
	if cfg.Signal.BBDev > 0 {
		params.BBDev = cfg.Signal.BBDev
	}
	if cfg.Signal.ChartPeriodDays > 0 {
		params.ChartPeriodDays = cfg.Signal.ChartPeriodDays
	}
	if cfg.Signal.Oversold > 0 {
		params.Oversold = cfg.Signal.Oversold
	}
	if cfg.Signal.Overbought > 0 {
		params.Overbought = cfg.Signal.Overbought
	}
	return params
}

// warnIfMarketClosed logs when today is a weekend or NYSE holiday,
// since quotes and chains go stale outside trading days.
func warnIfMarketClosed(logger *zap.Logger) {
	nyse := calendar.XNYS()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		logger.Warn("failed to load America/New_York timezone, using UTC", zap.Error(err))
		loc = time.UTC
	}

	now := time.Now().In(loc)
	if !nyse.IsBusinessDay(now) {
		logger.Warn("market is closed today, data may be stale",
			zap.String("date", now.Format("2006-01-02")),
		)
	}
}
