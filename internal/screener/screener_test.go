package screener

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/broker"
)

type mockBroker struct {
	chain    *broker.OptionChainResponse
	chainErr error
}

func (m *mockBroker) GetQuote(ctx context.Context, symbol string) (*broker.Quote, error) {
	return nil, broker.ErrNotFound
}

func (m *mockBroker) GetOptionChain(ctx context.Context, req broker.ChainRequest) (*broker.OptionChainResponse, error) {
	if m.chainErr != nil {
		return nil, m.chainErr
	}
	return m.chain, nil
}

func (m *mockBroker) GetPriceHistory(ctx context.Context, req broker.HistoryRequest) (*broker.PriceHistoryResponse, error) {
	return nil, broker.ErrNoData
}

func putRecord(symbol string, strike, mark, delta float64, dte int) broker.ContractRecord {
	return broker.ContractRecord{
		Symbol:           symbol,
		PutCall:          "PUT",
		Mark:             mark,
		StrikePrice:      strike,
		DaysToExpiration: dte,
		Delta:            delta,
		Volatility:       30,
	}
}

func putCriteria() Criteria {
	c := DefaultCriteria()
	c.ContractType = broker.Put
	c.MoneynessPct = 5
	c.PremiumPct = 2
	return c
}

func TestDeltaGate_SignConvention(t *testing.T) {
	crit := Criteria{MinDelta: 0.25, MaxDelta: 0.35}

	tests := []struct {
		name         string
		contractType broker.ContractType
		delta        float64
		want         bool
	}{
		{"put in-band negative", broker.Put, -0.30, true},
		{"put miscoded positive sign", broker.Put, 0.30, false},
		{"put magnitude below min", broker.Put, -0.20, false},
		{"put magnitude above max", broker.Put, -0.45, false},
		{"call in-band positive", broker.Call, 0.30, true},
		{"call negative", broker.Call, -0.30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := OptionContract{ContractType: tt.contractType, Delta: tt.delta}
			if got := deltaGate(c, crit.MinDelta, crit.MaxDelta); got != tt.want {
				t.Errorf("deltaGate(delta=%v) = %v, want %v", tt.delta, got, tt.want)
			}
		})
	}
}

func TestMoneynessGate_Direction(t *testing.T) {
	tests := []struct {
		name         string
		contractType broker.ContractType
		strike       float64
		want         bool
	}{
		{"put strike well below spot", broker.Put, 94, true},
		{"put strike too close to spot", broker.Put, 96, false},
		{"call strike well above spot", broker.Call, 106, true},
		{"call strike too close to spot", broker.Call, 104, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := OptionContract{ContractType: tt.contractType, StrikePrice: tt.strike, StockPrice: 100}
			if got := moneynessGate(c, 5); got != tt.want {
				t.Errorf("moneynessGate(strike=%v) = %v, want %v", tt.strike, got, tt.want)
			}
		})
	}
}

func TestCriteriaFromMap_UnknownParameter(t *testing.T) {
	_, err := CriteriaFromMap(map[string]string{
		"contract_type": "PUT",
		"premum_pct":    "2", // misspelled
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown key, got %v", err)
	}
}

func TestCriteriaFromMap_Defaults(t *testing.T) {
	crit, err := CriteriaFromMap(map[string]string{"contract_type": "put"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crit.ContractType != broker.Put {
		t.Errorf("expected contract type normalized to PUT, got %s", crit.ContractType)
	}
	if crit.MinExpirationDays != 15 || crit.MaxExpirationDays != 45 {
		t.Errorf("unexpected expiration defaults: %d/%d", crit.MinExpirationDays, crit.MaxExpirationDays)
	}
	if crit.MinDelta != 0.25 || crit.MaxDelta != 0.35 {
		t.Errorf("unexpected delta defaults: %v/%v", crit.MinDelta, crit.MaxDelta)
	}
}

func TestCriteria_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Criteria)
		wantErr bool
	}{
		{"missing contract type", func(c *Criteria) { c.ContractType = "" }, true},
		{"inverted expiration window", func(c *Criteria) { c.MinExpirationDays = 60 }, true},
		{"negative delta bound", func(c *Criteria) { c.MinDelta = -0.1 }, true},
		{"valid", func(c *Criteria) {}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crit := DefaultCriteria()
			crit.ContractType = broker.Call
			tt.mutate(&crit)
			err := crit.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// The canonical screen: spot 100, three put strikes 30 days out. Only 95
// survives: 90 fails the delta magnitude floor, 98 fails moneyness.
func TestFindIncomeContracts_Scenario(t *testing.T) {
	mock := &mockBroker{
		chain: &broker.OptionChainResponse{
			Symbol:          "XYZ",
			UnderlyingPrice: 100,
			PutExpDateMap: broker.ExpDateMap{
				"2025-10-17:30": {
					"90.0": {putRecord("XYZ_P90", 90, 1.50, -0.20, 30)},
					"95.0": {putRecord("XYZ_P95", 95, 2.10, -0.30, 30)},
					"98.0": {putRecord("XYZ_P98", 98, 3.00, -0.45, 30)},
				},
			},
		},
	}

	s := New(mock, zap.NewNop())
	contracts, err := s.FindIncomeContracts(context.Background(), "XYZ", putCriteria())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(contracts) != 1 {
		t.Fatalf("expected exactly 1 qualifying contract, got %d", len(contracts))
	}

	c := contracts[0]
	if c.StrikePrice != 95 {
		t.Errorf("expected strike 95, got %v", c.StrikePrice)
	}
	if c.Expiration != "2025-10-17" {
		t.Errorf("expected expiration 2025-10-17, got %s", c.Expiration)
	}
	if c.Breakeven != 95-2.10 {
		t.Errorf("unexpected breakeven: %v", c.Breakeven)
	}

	// returns = 365 * 2.10 / ((95 - 2.10) * 30)
	wantReturns := 365 * 2.10 / ((95 - 2.10) * 30)
	if diff := c.Returns - wantReturns; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("expected returns %v, got %v", wantReturns, c.Returns)
	}
}

func TestFindIncomeContracts_DegenerateExcluded(t *testing.T) {
	mock := &mockBroker{
		chain: &broker.OptionChainResponse{
			Symbol:          "XYZ",
			UnderlyingPrice: 100,
			PutExpDateMap: broker.ExpDateMap{
				"2025-10-17:0": {
					// Zero DTE: returns undefined
					"95.0": {putRecord("XYZ_P95", 95, 2.10, -0.30, 0)},
				},
				"2025-10-24:7": {
					// strike == mark: division by zero in returns
					"2.0": {putRecord("XYZ_P2", 2.0, 2.0, -0.30, 7)},
				},
			},
		},
	}

	s := New(mock, zap.NewNop())
	contracts, err := s.FindIncomeContracts(context.Background(), "XYZ", putCriteria())
	if err != nil {
		t.Fatalf("degenerate contracts must not fail the request: %v", err)
	}
	if len(contracts) != 0 {
		t.Errorf("expected 0 contracts, got %d", len(contracts))
	}
}

func TestFindIncomeContracts_MultiLegCollapse(t *testing.T) {
	mock := &mockBroker{
		chain: &broker.OptionChainResponse{
			Symbol:          "XYZ",
			UnderlyingPrice: 100,
			PutExpDateMap: broker.ExpDateMap{
				"2025-10-17:30": {
					"95.0": {
						putRecord("XYZ_P95_A", 95, 2.10, -0.30, 30),
						putRecord("XYZ_P95_B", 95, 9.99, -0.99, 30),
					},
				},
			},
		},
	}

	s := New(mock, zap.NewNop())
	contracts, err := s.FindIncomeContracts(context.Background(), "XYZ", putCriteria())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contracts) != 1 || contracts[0].Symbol != "XYZ_P95_A" {
		t.Errorf("expected only the first record per strike, got %+v", contracts)
	}
}

func TestFindIncomeContracts_ArgumentErrors(t *testing.T) {
	s := New(&mockBroker{}, zap.NewNop())

	if _, err := s.FindIncomeContracts(context.Background(), "", putCriteria()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty ticker, got %v", err)
	}

	crit := DefaultCriteria() // no contract type
	if _, err := s.FindIncomeContracts(context.Background(), "XYZ", crit); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for missing contract type, got %v", err)
	}
}

func TestFindIncomeContracts_BrokerFailureIsNoData(t *testing.T) {
	s := New(&mockBroker{chainErr: errors.New("connection reset")}, zap.NewNop())

	_, err := s.FindIncomeContracts(context.Background(), "XYZ", putCriteria())
	if !errors.Is(err, broker.ErrNoData) {
		t.Errorf("expected broker.ErrNoData, got %v", err)
	}
}
