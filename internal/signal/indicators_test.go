package signal

import (
	"math"
	"testing"
)

func constantSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestBollingerBands_ConstantSeries(t *testing.T) {
	closes := constantSeries(40, 50.0)
	bands := BollingerBands(closes, 20, 2)

	if len(bands) != 21 {
		t.Fatalf("expected 21 band values (40 bars, 19 warm-up), got %d", len(bands))
	}

	for i, b := range bands {
		if b.SMA != 50 || b.Upper != 50 || b.Lower != 50 {
			t.Errorf("band %d: expected sma=upper=lower=50, got %+v", i, b)
		}
	}
}

func TestBollingerBands_WarmupDropped(t *testing.T) {
	closes := constantSeries(19, 50.0)
	if bands := BollingerBands(closes, 20, 2); bands != nil {
		t.Errorf("expected no bands for series shorter than the window, got %d", len(bands))
	}
}

func TestBollingerBands_Envelope(t *testing.T) {
	// Alternating series has nonzero variance; bands must straddle the mean.
	closes := make([]float64, 30)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 102
		}
	}

	bands := BollingerBands(closes, 20, 2)
	for i, b := range bands {
		if !(b.Lower < b.SMA && b.SMA < b.Upper) {
			t.Errorf("band %d: expected lower < sma < upper, got %+v", i, b)
		}
	}
}

func TestRSI_Bounds(t *testing.T) {
	closes := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1,
		45.9, 46.3, 46.1, 46.6, 46.3, 46.8, 47.1, 46.5, 46.3, 46.0, 46.4}

	rsi := RSI(closes, 14)
	if len(rsi) == 0 {
		t.Fatal("expected RSI values")
	}
	for i, v := range rsi {
		if v < 0 || v > 100 || math.IsNaN(v) {
			t.Errorf("rsi[%d] = %v, outside [0, 100]", i, v)
		}
	}
}

func TestRSI_MonotonicUpSaturates(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi := RSI(closes, 14)
	if len(rsi) == 0 {
		t.Fatal("expected RSI values")
	}
	for i, v := range rsi {
		if v != 100 {
			t.Errorf("rsi[%d] = %v, expected saturation at 100 with zero losses", i, v)
		}
	}
}

func TestRSI_FlatSeriesNeutral(t *testing.T) {
	rsi := RSI(constantSeries(30, 75), 14)
	for i, v := range rsi {
		if v != 50 {
			t.Errorf("rsi[%d] = %v, expected 50 for a flat series", i, v)
		}
	}
}

func TestRSI_TooShort(t *testing.T) {
	if rsi := RSI(constantSeries(14, 10), 14); rsi != nil {
		t.Errorf("expected nil for series with no full period of deltas, got %v", rsi)
	}
}
