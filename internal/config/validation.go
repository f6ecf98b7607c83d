package config

import (
	"fmt"
	"strings"
	"unicode"
)

// InvalidTicker represents a malformed ticker inside a named watchlist.
type InvalidTicker struct {
	Watchlist string
	Ticker    string
}

// ValidationErrors collects all watchlist validation errors
type ValidationErrors struct {
	EmptyWatchlists []string
	InvalidTickers  []InvalidTicker
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.EmptyWatchlists) > 0 || len(e.InvalidTickers) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("watchlist validation failed:\n")

	if len(e.EmptyWatchlists) > 0 {
		sb.WriteString("\nEmpty watchlists:\n")
		for _, name := range e.EmptyWatchlists {
			sb.WriteString(fmt.Sprintf("  - %s\n", name))
		}
	}

	if len(e.InvalidTickers) > 0 {
		sb.WriteString("\nInvalid tickers:\n")
		for _, it := range e.InvalidTickers {
			sb.WriteString(fmt.Sprintf("  - %s/%s (tickers are 1-6 uppercase letters, optionally with . or -)\n",
				it.Watchlist, it.Ticker))
		}
	}

	return sb.String()
}

// ValidateWatchlists checks that every configured watchlist is non-empty
// and holds plausible ticker symbols.
func ValidateWatchlists(watchlists map[string][]string) error {
	errs := &ValidationErrors{}

	for name, tickers := range watchlists {
		if len(tickers) == 0 {
			errs.EmptyWatchlists = append(errs.EmptyWatchlists, name)
			continue
		}
		for _, ticker := range tickers {
			if !validTicker(ticker) {
				errs.InvalidTickers = append(errs.InvalidTickers, InvalidTicker{
					Watchlist: name,
					Ticker:    ticker,
				})
			}
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validTicker(s string) bool {
	if len(s) == 0 || len(s) > 6 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) && r != '.' && r != '-' {
			return false
		}
	}
	return true
}
