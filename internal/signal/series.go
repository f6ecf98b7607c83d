package signal

import (
	"sort"
	"time"

	"github.com/quantdesk/screener/internal/broker"
)

// Bar is one daily close.
type Bar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is an ordered sequence of daily bars, strictly increasing
// by date.
type PriceSeries struct {
	Bars []Bar
}

// NewPriceSeries builds a series from broker candles, sorted ascending.
func NewPriceSeries(candles []broker.Candle) *PriceSeries {
	bars := make([]Bar, 0, len(candles))
	for _, c := range candles {
		bars = append(bars, Bar{Date: c.Date(), Close: c.Close})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return &PriceSeries{Bars: bars}
}

// AppendLive adds the live quote as the most recent bar, keyed by the
// quote's own timestamp. An intraday re-run on the same calendar day
// overwrites that day's bar instead of appending a duplicate.
func (s *PriceSeries) AppendLive(price float64, at time.Time) {
	if n := len(s.Bars); n > 0 && sameDay(s.Bars[n-1].Date, at) {
		s.Bars[n-1].Close = price
		s.Bars[n-1].Date = at
		return
	}
	s.Bars = append(s.Bars, Bar{Date: at, Close: price})
}

// Closes returns the close column.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
