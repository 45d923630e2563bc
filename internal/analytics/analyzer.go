// Package analytics derives balances, overdue counts, collection times and
// risk labels from a validated dataset. Nothing is cached; every call
// aggregates the records again.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"debtors/internal/ingest"
)

// Analyzer is the mode-specific aggregation strategy for a dataset.
type Analyzer interface {
	Mode() ingest.Mode

	// Customers returns every customer sorted by outstanding balance, largest first.
	Customers() []CustomerRollup

	// Customer returns the detail view of one customer.
	Customer(key string, asOf time.Time) (*CustomerDetail, error)

	Dashboard(asOf time.Time) Dashboard

	// Balances returns customers with a positive balance, largest first.
	Balances() []Balance

	// OverdueDigest lists overdue items, most overdue first.
	OverdueDigest(asOf time.Time) []OverdueItem

	ChatData() ChatData
}

// For selects the analyzer for a dataset.
func For(ds ingest.Dataset) (Analyzer, error) {
	switch d := ds.(type) {
	case *ingest.RawDataset:
		return &rawAnalyzer{ds: d}, nil
	case *ingest.SummaryDataset:
		return &summaryAnalyzer{ds: d}, nil
	}
	return nil, fmt.Errorf("For: %w: %T", ErrUnsupportedDataset, ds)
}

func sortByOutstanding(rollups []CustomerRollup) {
	sort.SliceStable(rollups, func(i, j int) bool {
		return rollups[i].Outstanding.GreaterThan(rollups[j].Outstanding)
	})
}

func balancesOf(rollups []CustomerRollup) []Balance {
	balances := []Balance{}
	for _, r := range rollups {
		if r.Outstanding.IsPositive() {
			balances = append(balances, Balance{Key: r.Key, Name: r.Name, Outstanding: r.Outstanding})
		}
	}
	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].Outstanding.GreaterThan(balances[j].Outstanding)
	})
	return balances
}

// mean returns the weighted mean of xs, or 0 for an empty sample. weights may be nil.
func mean(xs, weights []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	if weights != nil {
		var total float64
		for _, w := range weights {
			total += w
		}
		if total <= 0 {
			return 0
		}
	}
	return stat.Mean(xs, weights)
}

// daysBetween is the signed number of days from a to b.
func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}

func ceilDays(a, b time.Time) float64 {
	return math.Ceil(math.Abs(daysBetween(a, b)))
}

func floorDays(a, b time.Time) float64 {
	return math.Floor(daysBetween(a, b))
}

func top(items []PriorityItem, n int) []PriorityItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
