package scan

import (
	"context"
	"runtime"
	"sync"
)

// tickerResult carries one ticker's outcome across the pool boundary.
// Per-ticker failures are values here, never panics or aborts; sibling
// units keep running.
type tickerResult[T any] struct {
	Ticker string
	Value  T
	Err    error
}

// runPool fans work out over a fixed-size worker pool, one independent
// unit per ticker, and collects every result. Units share no mutable
// state. workers <= 0 defaults to the available core count.
func runPool[T any](ctx context.Context, tickers []string, workers int, work func(ctx context.Context, ticker string) (T, error)) []tickerResult[T] {
	if len(tickers) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan string, len(tickers))
	results := make(chan tickerResult[T], len(tickers))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				value, err := work(ctx, ticker)

				select {
				case <-ctx.Done():
					return
				case results <- tickerResult[T]{Ticker: ticker, Value: value, Err: err}:
				}
			}
		}()
	}

	// Send jobs
	go func() {
		for _, ticker := range tickers {
			select {
			case <-ctx.Done():
				return
			case jobs <- ticker:
			}
		}
		close(jobs)
	}()

	// Wait for workers and close results
	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]tickerResult[T], 0, len(tickers))
	for r := range results {
		collected = append(collected, r)
	}
	return collected
}
