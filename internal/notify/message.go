package notify

import (
	"fmt"
	"strings"

	"github.com/quantdesk/screener/internal/scan"
)

// maxRowsInMessage caps how many contracts are listed in the body.
const maxRowsInMessage = 5

// FormatSuccessMessage creates a success notification body.
func FormatSuccessMessage(report *scan.IncomeReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Tickers: %d\n", report.Total))
	sb.WriteString(fmt.Sprintf("Succeeded: %d\n", report.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed: %d\n", report.Failed))
	sb.WriteString(fmt.Sprintf("Contracts: %d\n", len(report.Rows)))
	sb.WriteString(fmt.Sprintf("Duration: %s", report.Duration))

	if len(report.Rows) > 0 {
		sb.WriteString("\n\nTop contracts:\n")
		limit := maxRowsInMessage
		if len(report.Rows) < limit {
			limit = len(report.Rows)
		}
		for i := 0; i < limit; i++ {
			row := report.Rows[i]
			sb.WriteString(fmt.Sprintf("- %s %s %s exp %s (%s)\n",
				row.Ticker, row.Strike, row.Returns, row.Expiration, row.Mark))
		}
		if len(report.Rows) > maxRowsInMessage {
			sb.WriteString(fmt.Sprintf("... and %d more contracts", len(report.Rows)-maxRowsInMessage))
		}
	}

	return sb.String()
}

// FormatFailureMessage creates a failure notification body.
func FormatFailureMessage(err error) string {
	return fmt.Sprintf("Error: %v", err)
}
