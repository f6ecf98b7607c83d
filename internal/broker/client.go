package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const dateLayout = "2006-01-02"

// Client interface for testability
type Client interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetOptionChain(ctx context.Context, req ChainRequest) (*OptionChainResponse, error)
	GetPriceHistory(ctx context.Context, req HistoryRequest) (*PriceHistoryResponse, error)
}

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

func (c *HTTPClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/v1/marketdata/%s/quotes", c.baseURL, url.PathEscape(symbol))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	// Quotes come back keyed by symbol even for a single lookup.
	var payload map[string]Quote
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding quote response: %w", err)
	}

	quote, ok := payload[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	quote.Symbol = symbol
	return &quote, nil
}

func (c *HTTPClient) GetOptionChain(ctx context.Context, req ChainRequest) (*OptionChainResponse, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = "SINGLE"
	}
	rng := req.Range
	if rng == "" {
		rng = "OTM"
	}

	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("contractType", string(req.ContractType))
	q.Set("strategy", strategy)
	q.Set("range", rng)
	q.Set("fromDate", req.FromDate.Format(dateLayout))
	q.Set("toDate", req.ToDate.Format(dateLayout))

	endpoint := fmt.Sprintf("%s/v1/marketdata/chains?%s", c.baseURL, q.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var chain OptionChainResponse
	if err := json.Unmarshal(body, &chain); err != nil {
		return nil, fmt.Errorf("decoding chain response: %w", err)
	}

	if chain.Status == "FAILED" {
		return nil, ErrNoData
	}
	return &chain, nil
}

func (c *HTTPClient) GetPriceHistory(ctx context.Context, req HistoryRequest) (*PriceHistoryResponse, error) {
	periodType := req.PeriodType
	if periodType == "" {
		periodType = "month"
	}
	frequencyType := req.FrequencyType
	if frequencyType == "" {
		frequencyType = "daily"
	}
	frequency := req.Frequency
	if frequency == 0 {
		frequency = 1
	}

	q := url.Values{}
	q.Set("periodType", periodType)
	q.Set("frequencyType", frequencyType)
	q.Set("frequency", strconv.Itoa(frequency))
	q.Set("startDate", strconv.FormatInt(req.StartDate.UnixMilli(), 10))
	q.Set("endDate", strconv.FormatInt(req.EndDate.UnixMilli(), 10))

	endpoint := fmt.Sprintf("%s/v1/marketdata/%s/pricehistory?%s", c.baseURL, url.PathEscape(req.Symbol), q.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var history PriceHistoryResponse
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("decoding price history: %w", err)
	}

	if history.Empty {
		return nil, ErrNoData
	}
	return &history, nil
}

// get performs a rate-limited GET with retry on transient failures.
func (c *HTTPClient) get(ctx context.Context, url string) ([]byte, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	c.logger.Debug("requesting", zap.String("url", url))

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, retriable, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retriable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *HTTPClient) getOnce(ctx context.Context, url string) (body []byte, retriable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	// Read body before checking status so error messages carry the payload
	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, true, readErr
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrAuthFailed
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}

	return data, false, nil
}
