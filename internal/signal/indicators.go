package signal

import "math"

// Band holds the Bollinger values for one bar.
type Band struct {
	SMA   float64
	Upper float64
	Lower float64
}

// BollingerBands computes rolling mean +/- dev standard deviations over
// period bars. The returned slice is aligned to closes[period-1:]; the
// warm-up bars have no band value and are dropped, not zero-filled.
func BollingerBands(closes []float64, period int, dev float64) []Band {
	if period <= 0 || len(closes) < period {
		return nil
	}

	bands := make([]Band, 0, len(closes)-period+1)
	for i := period - 1; i < len(closes); i++ {
		window := closes[i-period+1 : i+1]

		var sum float64
		for _, v := range window {
			sum += v
		}
		mean := sum / float64(period)

		// Sample standard deviation, matching a rolling std with ddof=1.
		var sq float64
		for _, v := range window {
			d := v - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(period-1))

		bands = append(bands, Band{
			SMA:   mean,
			Upper: mean + dev*std,
			Lower: mean - dev*std,
		})
	}
	return bands
}

// RSI computes the Relative Strength Index with exponentially weighted
// average gains and losses (smoothing factor 1/period). The returned
// slice is aligned to closes[period:]; earlier bars have no defined
// value. When losses are uniformly zero the index saturates at 100
// instead of dividing by zero.
func RSI(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) <= period {
		return nil
	}

	alpha := 1.0 / float64(period)
	decay := 1.0 - alpha

	// Weighted-average form of the EMA so early values are true averages
	// of the observations seen so far rather than biased toward zero.
	var gainNum, lossNum, denom float64

	out := make([]float64, 0, len(closes)-period)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		gainNum = gain + decay*gainNum
		lossNum = loss + decay*lossNum
		denom = 1 + decay*denom

		// First defined value needs a full period of deltas.
		if i < period {
			continue
		}

		avgGain := gainNum / denom
		avgLoss := lossNum / denom

		var rsi float64
		switch {
		case avgLoss == 0 && avgGain == 0:
			rsi = 50
		case avgLoss == 0:
			rsi = 100
		default:
			rs := avgGain / avgLoss
			rsi = 100 - 100/(1+rs)
		}
		out = append(out, rsi)
	}
	return out
}
