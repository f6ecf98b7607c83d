package screener

import (
	"strings"

	"github.com/quantdesk/screener/internal/broker"
)

// OptionContract is one screened contract with its derived metrics.
// Built fresh from a chain response per request and never mutated after
// filter evaluation.
type OptionContract struct {
	Symbol           string              `json:"symbol"`
	Underlying       string              `json:"underlying"`
	Mark             float64             `json:"mark"`
	StrikePrice      float64             `json:"strikePrice"`
	ContractType     broker.ContractType `json:"contractType"`
	DaysToExpiration int                 `json:"daysToExpiration"`
	Expiration       string              `json:"expiration"`
	Delta            float64             `json:"delta"`
	Volatility       float64             `json:"volatility"`
	StockPrice       float64             `json:"stockPrice"`
	OpenInterest     int64               `json:"openInterest"`
	Volume           int64               `json:"volume"`

	// Derived
	Returns       float64 `json:"returns"`
	Breakeven     float64 `json:"breakeven"`
	PercentageOTM float64 `json:"percentageOtm"`
}

// newContract builds an OptionContract from one chain record plus request
// context. ok is false when the contract's metrics are undefined (zero
// DTE or strike equal to mark) and it must be excluded before filtering.
func newContract(ticker string, contractType broker.ContractType, stockPrice float64, expirationKey string, rec broker.ContractRecord) (OptionContract, bool) {
	c := OptionContract{
		Symbol:           rec.Symbol,
		Underlying:       ticker,
		Mark:             rec.Mark,
		StrikePrice:      rec.StrikePrice,
		ContractType:     contractType,
		DaysToExpiration: rec.DaysToExpiration,
		Expiration:       expirationDate(expirationKey),
		Delta:            rec.Delta,
		Volatility:       rec.Volatility,
		StockPrice:       stockPrice,
		OpenInterest:     rec.OpenInterest,
		Volume:           rec.TotalVolume,
	}

	// The returns approximation divides by (strike - mark) * dte. Either
	// factor being zero makes the yield undefined, not infinite.
	if c.DaysToExpiration <= 0 || c.StrikePrice == c.Mark || c.StockPrice == 0 {
		return c, false
	}

	c.Returns = 365 * c.Mark / ((c.StrikePrice - c.Mark) * float64(c.DaysToExpiration))

	if contractType == broker.Put {
		c.Breakeven = c.StrikePrice - c.Mark
	} else {
		c.Breakeven = c.StrikePrice + c.Mark
	}

	c.PercentageOTM = (c.StockPrice - c.StrikePrice) / c.StockPrice

	return c, true
}

// expirationDate strips the broker's ":DTE" suffix from an expiration
// period key ("2025-10-17:30" -> "2025-10-17").
func expirationDate(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
