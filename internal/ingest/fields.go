package ingest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"debtors/internal/tabular"
)

// dateLayouts are tried in order. ISO calendar dates come first; the rest
// cover what spreadsheet exports commonly produce.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"02.01.2006",
	"2.1.2006",
}

// ParseDate parses a calendar date in UTC.
func ParseDate(s string) (time.Time, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// money reads a monetary field. Absent or non-numeric cells are zero.
func money(row tabular.Row, field string) decimal.Decimal {
	n, ok := row.Float(field)
	if !ok {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(row.Text(field)); err == nil {
		return d
	}
	return decimal.NewFromFloat(n)
}

// number reads a plain numeric field. Absent or non-numeric cells are zero.
func number(row tabular.Row, field string) float64 {
	n, _ := row.Float(field)
	return n
}

func anyMissing(row tabular.Row, fields ...string) bool {
	for _, f := range fields {
		if !row.Has(f) {
			return true
		}
	}
	return false
}
