package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/broker"
)

type mockBroker struct {
	candles    []broker.Candle
	historyErr error
	quote      *broker.Quote
	quoteErr   error
}

func (m *mockBroker) GetQuote(ctx context.Context, symbol string) (*broker.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	return m.quote, nil
}

func (m *mockBroker) GetOptionChain(ctx context.Context, req broker.ChainRequest) (*broker.OptionChainResponse, error) {
	return nil, broker.ErrNoData
}

func (m *mockBroker) GetPriceHistory(ctx context.Context, req broker.HistoryRequest) (*broker.PriceHistoryResponse, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return &broker.PriceHistoryResponse{Symbol: req.Symbol, Candles: m.candles}, nil
}

// dailyCandles builds n consecutive daily bars ending yesterday.
func dailyCandles(n int, closeAt func(i int) float64) []broker.Candle {
	start := time.Now().UTC().AddDate(0, 0, -n)
	candles := make([]broker.Candle, n)
	for i := range candles {
		day := start.AddDate(0, 0, i)
		candles[i] = broker.Candle{
			Datetime: day.UnixMilli(),
			Close:    closeAt(i),
		}
	}
	return candles
}

func quoteNow(price float64) *broker.Quote {
	return &broker.Quote{LastPrice: price, QuoteTimeMSec: time.Now().UnixMilli()}
}

func TestAnalyze_ConstantSeriesHasNoSignals(t *testing.T) {
	mock := &mockBroker{
		candles: dailyCandles(60, func(i int) float64 { return 50 }),
		quote:   quoteNow(50),
	}

	engine := NewEngine(mock, zap.NewNop())
	analysis, err := engine.Analyze(context.Background(), "XYZ", DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.Series) == 0 {
		t.Fatal("expected band-bearing series")
	}
	for _, p := range analysis.Series {
		if p.Upper != 50 || p.Lower != 50 || p.SMA != 50 {
			t.Errorf("expected collapsed bands at 50, got %+v", p)
		}
	}

	// Boundary equality is neither below nor above the band.
	if len(analysis.Buys) != 0 || len(analysis.Sells) != 0 {
		t.Errorf("expected no signals on a constant series, got %d buys %d sells",
			len(analysis.Buys), len(analysis.Sells))
	}
}

func TestAnalyze_BuySignalOnDip(t *testing.T) {
	// Stable at 100, then the live quote craters far below the lower band.
	mock := &mockBroker{
		candles: dailyCandles(60, func(i int) float64 {
			if i%2 == 0 {
				return 100
			}
			return 101
		}),
		quote: quoteNow(80),
	}

	engine := NewEngine(mock, zap.NewNop())
	analysis, err := engine.Analyze(context.Background(), "XYZ", DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.Buys) == 0 {
		t.Fatal("expected a buy signal for a close below the lower band")
	}
	last := analysis.Buys[len(analysis.Buys)-1]
	if last.Close != 80 {
		t.Errorf("expected the live bar to be the buy signal, got close %v", last.Close)
	}
	if analysis.CurrentPrice != 80 {
		t.Errorf("expected current price 80, got %v", analysis.CurrentPrice)
	}

	// A 20% single-bar crash also drags the RSI under the oversold line.
	if len(analysis.Oversold) == 0 {
		t.Fatal("expected an oversold bar after the crash")
	}
	lastRSI := analysis.Oversold[len(analysis.Oversold)-1]
	if lastRSI.Close != 80 {
		t.Errorf("expected the live bar to be oversold, got close %v", lastRSI.Close)
	}
	if lastRSI.RSI >= DefaultParams().Oversold {
		t.Errorf("expected RSI below %v, got %v", DefaultParams().Oversold, lastRSI.RSI)
	}
}

func TestAnalyze_EmptyHistoryFails(t *testing.T) {
	engine := NewEngine(&mockBroker{historyErr: broker.ErrNoData}, zap.NewNop())

	_, err := engine.Analyze(context.Background(), "XYZ", DefaultParams())
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestAnalyze_QuoteFailureFails(t *testing.T) {
	mock := &mockBroker{
		candles:  dailyCandles(60, func(i int) float64 { return 50 }),
		quoteErr: errors.New("socket timeout"),
	}

	engine := NewEngine(mock, zap.NewNop())
	_, err := engine.Analyze(context.Background(), "XYZ", DefaultParams())
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestAnalyze_InvalidParams(t *testing.T) {
	engine := NewEngine(&mockBroker{}, zap.NewNop())

	params := DefaultParams()
	params.ChartPeriodDays = 10
	if _, err := engine.Analyze(context.Background(), "XYZ", params); err == nil {
		t.Error("expected error for out-of-range chart period")
	}

	params = DefaultParams()
	params.Oversold = 80
	params.Overbought = 20
	if _, err := engine.Analyze(context.Background(), "XYZ", params); err == nil {
		t.Error("expected error for inverted rsi thresholds")
	}
}

func TestAppendLive_OverwritesSameDay(t *testing.T) {
	today := time.Date(2025, 8, 29, 14, 30, 0, 0, time.UTC)

	series := &PriceSeries{Bars: []Bar{
		{Date: today.Add(-26 * time.Hour), Close: 99},
		{Date: today.Add(-2 * time.Hour), Close: 100},
	}}

	series.AppendLive(101, today)

	if len(series.Bars) != 2 {
		t.Fatalf("expected same-day live bar to overwrite, got %d bars", len(series.Bars))
	}
	last := series.Bars[len(series.Bars)-1]
	if last.Close != 101 || !last.Date.Equal(today) {
		t.Errorf("expected overwritten bar {%v 101}, got %+v", today, last)
	}
}

func TestAppendLive_AppendsNewDay(t *testing.T) {
	yesterday := time.Date(2025, 8, 28, 21, 0, 0, 0, time.UTC)
	today := time.Date(2025, 8, 29, 14, 30, 0, 0, time.UTC)

	series := &PriceSeries{Bars: []Bar{{Date: yesterday, Close: 100}}}
	series.AppendLive(102, today)

	if len(series.Bars) != 2 {
		t.Fatalf("expected appended bar, got %d bars", len(series.Bars))
	}
	if series.Bars[1].Close != 102 {
		t.Errorf("unexpected appended close: %v", series.Bars[1].Close)
	}
}
