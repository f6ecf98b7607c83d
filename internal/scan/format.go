package scan

import (
	"fmt"
	"strings"
)

// FormatCurrency renders a value as dollars and cents with thousands
// separators, e.g. 1234.5 -> "$1,234.50".
func FormatCurrency(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := fmt.Sprintf("%.2f", v)
	whole, cents, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteByte('.')
	b.WriteString(cents)
	return b.String()
}

// FormatPercent renders a fraction as a percentage, e.g. 0.1234 -> "12.34%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
