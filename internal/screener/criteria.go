package screener

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/quantdesk/screener/internal/broker"
)

// ErrInvalidArgument marks malformed or missing filter parameters. It is
// surfaced synchronously to the caller and never retried.
var ErrInvalidArgument = errors.New("invalid argument")

// Criteria is the per-request screen configuration. Delta bounds are
// positive magnitudes regardless of contract type; the filter
// sign-corrects for the broker's put-negative convention.
type Criteria struct {
	MinExpirationDays int                 `json:"min_expiration_days"`
	MaxExpirationDays int                 `json:"max_expiration_days"`
	MoneynessPct      float64             `json:"moneyness_pct"`
	PremiumPct        float64             `json:"premium_pct"`
	MinDelta          float64             `json:"min_delta"`
	MaxDelta          float64             `json:"max_delta"`
	ContractType      broker.ContractType `json:"contract_type"`
}

// DefaultCriteria returns the screen defaults. ContractType has no
// default and must be set by the caller.
func DefaultCriteria() Criteria {
	return Criteria{
		MinExpirationDays: 15,
		MaxExpirationDays: 45,
		MoneynessPct:      2,
		PremiumPct:        1,
		MinDelta:          0.25,
		MaxDelta:          0.35,
	}
}

// CriteriaFromMap overlays caller-supplied string parameters onto the
// defaults. Unknown keys are a hard error so that a misspelled screener
// form field fails loudly instead of silently using a default.
func CriteriaFromMap(params map[string]string) (Criteria, error) {
	c := DefaultCriteria()

	for key, value := range params {
		var err error
		switch key {
		case "min_expiration_days":
			c.MinExpirationDays, err = strconv.Atoi(value)
		case "max_expiration_days":
			c.MaxExpirationDays, err = strconv.Atoi(value)
		case "moneyness_pct":
			c.MoneynessPct, err = strconv.ParseFloat(value, 64)
		case "premium_pct":
			c.PremiumPct, err = strconv.ParseFloat(value, 64)
		case "min_delta":
			c.MinDelta, err = strconv.ParseFloat(value, 64)
		case "max_delta":
			c.MaxDelta, err = strconv.ParseFloat(value, 64)
		case "contract_type":
			c.ContractType = broker.ContractType(strings.ToUpper(value))
		default:
			return Criteria{}, fmt.Errorf("%w: unknown parameter %q", ErrInvalidArgument, key)
		}
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: parameter %q: %v", ErrInvalidArgument, key, err)
		}
	}

	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Validate enforces the criteria invariants.
func (c Criteria) Validate() error {
	if !c.ContractType.Valid() {
		return fmt.Errorf("%w: contract type of either PUT or CALL is required", ErrInvalidArgument)
	}
	if c.MinExpirationDays > c.MaxExpirationDays {
		return fmt.Errorf("%w: min_expiration_days %d exceeds max_expiration_days %d",
			ErrInvalidArgument, c.MinExpirationDays, c.MaxExpirationDays)
	}
	if c.MinDelta < 0 || c.MaxDelta < 0 {
		return fmt.Errorf("%w: delta bounds must be positive magnitudes", ErrInvalidArgument)
	}
	return nil
}
