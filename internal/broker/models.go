package broker

import "time"

// ContractType distinguishes puts from calls, matching the broker's
// putCall field values.
type ContractType string

const (
	Put  ContractType = "PUT"
	Call ContractType = "CALL"
)

// Valid reports whether t is one of the two broker contract types.
func (t ContractType) Valid() bool {
	return t == Put || t == Call
}

// Quote is a single-symbol quote snapshot.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Mark          float64 `json:"mark"`
	LastPrice     float64 `json:"lastPrice"`
	Delta         float64 `json:"delta"`
	Volatility    float64 `json:"volatility"`
	QuoteTimeMSec int64   `json:"quoteTimeInLong"`
}

// QuoteTime converts the broker's millisecond timestamp to a time.Time.
func (q Quote) QuoteTime() time.Time {
	return time.UnixMilli(q.QuoteTimeMSec).UTC()
}

// ContractRecord is one option contract as delivered inside the nested
// chain response. The broker may list several records per strike for
// multi-leg products; callers collapse to the first.
type ContractRecord struct {
	Symbol           string  `json:"symbol"`
	PutCall          string  `json:"putCall"`
	Mark             float64 `json:"mark"`
	Bid              float64 `json:"bid"`
	Ask              float64 `json:"ask"`
	StrikePrice      float64 `json:"strikePrice"`
	DaysToExpiration int     `json:"daysToExpiration"`
	Delta            float64 `json:"delta"`
	Volatility       float64 `json:"volatility"`
	OpenInterest     int64   `json:"openInterest"`
	TotalVolume      int64   `json:"totalVolume"`
}

// ExpDateMap is the broker's nesting: expiration period key
// ("2025-12-19:30", date plus DTE) -> strike key ("95.0") -> records.
type ExpDateMap map[string]map[string][]ContractRecord

// OptionChainResponse is the top-level chain payload.
type OptionChainResponse struct {
	Symbol          string     `json:"symbol"`
	Status          string     `json:"status"`
	UnderlyingPrice float64    `json:"underlyingPrice"`
	PutExpDateMap   ExpDateMap `json:"putExpDateMap"`
	CallExpDateMap  ExpDateMap `json:"callExpDateMap"`
}

// ExpDateMapFor returns the nested map matching the contract type.
func (r *OptionChainResponse) ExpDateMapFor(t ContractType) ExpDateMap {
	if t == Put {
		return r.PutExpDateMap
	}
	return r.CallExpDateMap
}

// ChainRequest selects an option chain slice for one underlying.
type ChainRequest struct {
	Symbol       string
	ContractType ContractType
	FromDate     time.Time
	ToDate       time.Time
	Range        string // e.g. "OTM", "ALL"
	Strategy     string // broker strategy, "SINGLE" for this service
}

// Candle is one OHLCV bar. Datetime is broker epoch milliseconds.
type Candle struct {
	Datetime int64   `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
}

// Date converts the candle timestamp to a UTC time.
func (c Candle) Date() time.Time {
	return time.UnixMilli(c.Datetime).UTC()
}

// PriceHistoryResponse is the candles payload for one symbol.
type PriceHistoryResponse struct {
	Symbol  string   `json:"symbol"`
	Empty   bool     `json:"empty"`
	Candles []Candle `json:"candles"`
}

// HistoryRequest selects daily bars for one symbol over a window.
type HistoryRequest struct {
	Symbol        string
	StartDate     time.Time
	EndDate       time.Time
	PeriodType    string // "month"
	FrequencyType string // "daily"
	Frequency     int    // 1
}
