package screener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/broker"
)

// Screener screens option chains for income contracts.
type Screener struct {
	client broker.Client
	logger *zap.Logger
}

func New(client broker.Client, logger *zap.Logger) *Screener {
	return &Screener{
		client: client,
		logger: logger,
	}
}

// FindIncomeContracts fetches the option chain for ticker restricted to
// the criteria's expiration window and returns the contracts passing all
// filter gates. Contracts with degenerate arithmetic are excluded
// individually; the request only fails for invalid arguments or an
// unusable chain response.
func (s *Screener) FindIncomeContracts(ctx context.Context, ticker string, crit Criteria) ([]OptionContract, error) {
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker must be provided", ErrInvalidArgument)
	}
	if err := crit.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	chain, err := s.client.GetOptionChain(ctx, broker.ChainRequest{
		Symbol:       ticker,
		ContractType: crit.ContractType,
		FromDate:     now.AddDate(0, 0, crit.MinExpirationDays),
		ToDate:       now.AddDate(0, 0, crit.MaxExpirationDays),
	})
	if err != nil {
		if errors.Is(err, broker.ErrNotFound) || errors.Is(err, broker.ErrNoData) {
			return nil, broker.ErrNoData
		}
		// Transport or auth failures are uniformly "no data" for this unit.
		s.logger.Debug("chain fetch failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, broker.ErrNoData
	}

	stockPrice := chain.UnderlyingPrice
	expDateMap := chain.ExpDateMapFor(crit.ContractType)

	var passed []OptionContract
	var degenerates int

	// Iterate deterministically over the nested expiration -> strike maps.
	for _, expKey := range sortedKeys(expDateMap) {
		strikes := expDateMap[expKey]
		for _, strikeKey := range sortedStrikeKeys(strikes) {
			records := strikes[strikeKey]
			if len(records) == 0 {
				continue
			}
			// Broker multi-leg duplicates per strike collapse to the first record.
			contract, ok := newContract(ticker, crit.ContractType, stockPrice, expKey, records[0])
			if !ok {
				degenerates++
				continue
			}

			switch evaluate(contract, crit) {
			case gatePass:
				passed = append(passed, contract)
			case gateDegenerate:
				degenerates++
			}
		}
	}

	if degenerates > 0 {
		s.logger.Debug("excluded degenerate contracts",
			zap.String("ticker", ticker),
			zap.Int("count", degenerates),
		)
	}

	return passed, nil
}

func sortedKeys(m broker.ExpDateMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStrikeKeys(m map[string][]broker.ContractRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
