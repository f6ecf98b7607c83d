package screener

import (
	"math"

	"github.com/quantdesk/screener/internal/broker"
)

// gateOutcome is the result of evaluating the filter predicate for one
// contract. Degenerate arithmetic excludes the contract without failing
// the request.
type gateOutcome int

const (
	gatePass gateOutcome = iota
	gateFail
	gateDegenerate
)

// evaluate applies the three independent gates. All must pass.
func evaluate(c OptionContract, crit Criteria) gateOutcome {
	if degenerate(c) {
		return gateDegenerate
	}

	if !moneynessGate(c, crit.MoneynessPct) {
		return gateFail
	}
	if !premiumGate(c, crit.PremiumPct) {
		return gateFail
	}
	if !deltaGate(c, crit.MinDelta, crit.MaxDelta) {
		return gateFail
	}
	return gatePass
}

// degenerate reports whether the contract's inputs make any gate
// comparison meaningless.
func degenerate(c OptionContract) bool {
	if c.StockPrice <= 0 {
		return true
	}
	for _, v := range []float64{c.Mark, c.StrikePrice, c.Delta, c.StockPrice} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// moneynessGate keeps puts with strikes comfortably below spot and calls
// comfortably above it.
func moneynessGate(c OptionContract, moneynessPct float64) bool {
	if c.ContractType == broker.Put {
		return c.StrikePrice <= (1-moneynessPct/100)*c.StockPrice
	}
	return c.StrikePrice >= (1+moneynessPct/100)*c.StockPrice
}

// premiumGate keeps contracts paying a minimum fraction of spot.
func premiumGate(c OptionContract, premiumPct float64) bool {
	return c.Mark > premiumPct/100*c.StockPrice
}

// deltaGate compares against positive magnitude bounds, sign-corrected
// for the broker's put-negative delta convention. A miscoded positive
// delta on a put fails here rather than matching by magnitude.
func deltaGate(c OptionContract, minDelta, maxDelta float64) bool {
	if c.ContractType == broker.Put {
		return -maxDelta < c.Delta && c.Delta < -minDelta
	}
	return minDelta < c.Delta && c.Delta < maxDelta
}
