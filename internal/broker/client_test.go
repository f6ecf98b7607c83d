package broker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string, retries int) *HTTPClient {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return NewClient(baseURL, "test-key", 10, 30*time.Second, 10*time.Millisecond, retries, logger)
}

func TestGetQuote_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify auth header
		auth := r.Header.Get("Authorization")
		if auth != "Bearer test-key" {
			t.Errorf("expected Bearer test-key, got %s", auth)
		}

		expectedPath := "/v1/marketdata/AAPL/quotes"
		if r.URL.Path != expectedPath {
			t.Errorf("expected path %s, got %s", expectedPath, r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"AAPL":{"mark":189.5,"lastPrice":189.55,"quoteTimeInLong":1714496400000}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 1)

	quote, err := client.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.LastPrice != 189.55 {
		t.Errorf("unexpected last price: %v", quote.LastPrice)
	}
	if quote.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", quote.Symbol)
	}
	if got := quote.QuoteTime(); got.Year() != 2024 {
		t.Errorf("unexpected quote time: %v", got)
	}
}

func TestGetQuote_SymbolMissingFromPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)

	_, err := client.GetQuote(context.Background(), "ZZZZ")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOptionChain_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "XYZ" {
			t.Errorf("expected symbol XYZ, got %s", q.Get("symbol"))
		}
		if q.Get("contractType") != "PUT" {
			t.Errorf("expected contractType PUT, got %s", q.Get("contractType"))
		}
		if q.Get("strategy") != "SINGLE" {
			t.Errorf("expected default strategy SINGLE, got %s", q.Get("strategy"))
		}
		if q.Get("range") != "OTM" {
			t.Errorf("expected default range OTM, got %s", q.Get("range"))
		}

		_, _ = w.Write([]byte(`{
			"symbol": "XYZ",
			"status": "SUCCESS",
			"underlyingPrice": 100.0,
			"putExpDateMap": {
				"2025-10-17:30": {
					"95.0": [{"symbol":"XYZ_101725P95","putCall":"PUT","mark":2.1,"strikePrice":95,"daysToExpiration":30,"delta":-0.30,"volatility":32.5}]
				}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 1)

	chain, err := client.GetOptionChain(context.Background(), ChainRequest{
		Symbol:       "XYZ",
		ContractType: Put,
		FromDate:     time.Now(),
		ToDate:       time.Now().AddDate(0, 0, 45),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if chain.UnderlyingPrice != 100.0 {
		t.Errorf("unexpected underlying price: %v", chain.UnderlyingPrice)
	}

	strikes := chain.ExpDateMapFor(Put)["2025-10-17:30"]
	records := strikes["95.0"]
	if len(records) != 1 || records[0].Delta != -0.30 {
		t.Errorf("unexpected chain records: %+v", records)
	}
}

func TestGetPriceHistory_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"XYZ","empty":true,"candles":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)

	_, err := client.GetPriceHistory(context.Background(), HistoryRequest{
		Symbol:    "XYZ",
		StartDate: time.Now().AddDate(0, 0, -60),
		EndDate:   time.Now(),
	})
	if err != ErrNoData {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)

	_, err := client.GetQuote(context.Background(), "NOPE")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound without retries, got %v", err)
	}
}

func TestGet_RateLimitedRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)

	_, err := client.GetQuote(context.Background(), "SPY")
	if err == nil {
		t.Error("expected error for rate limiting")
	}

	// Should have attempted 3 times (initial + 2 retries)
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestGet_AuthFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)

	_, err := client.GetQuote(context.Background(), "SPY")
	if err != ErrAuthFailed {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}
