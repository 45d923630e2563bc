// Package risk assigns a three-level collection risk label to a customer from
// its aggregated balances. Thresholds are fixed; High is evaluated before
// Medium because the conditions overlap.
package risk

import "github.com/shopspring/decimal"

// Level is a customer risk label.
type Level string

const (
	Low    Level = "Low"
	Medium Level = "Medium"
	High   Level = "High"
)

// Levels lists every label from least to most severe.
var Levels = []Level{Low, Medium, High}

var (
	highOutstanding   = decimal.NewFromInt(50000)
	mediumOutstanding = decimal.NewFromInt(10000)
)

const (
	highWeightedDays    = 60
	mediumWeightedDays  = 30
	summaryHighOverdues = 2
)

// ClassifyRaw labels a customer built from invoice records.
func ClassifyRaw(outstanding decimal.Decimal, overdueCount int) Level {
	if overdueCount > 0 && outstanding.GreaterThan(highOutstanding) {
		return High
	}
	if overdueCount > 0 || outstanding.GreaterThan(mediumOutstanding) {
		return Medium
	}
	return Low
}

// ClassifySummary labels a customer built from summary records.
func ClassifySummary(outstanding decimal.Decimal, overdueCount int, finalWeightedDays float64) Level {
	if finalWeightedDays > highWeightedDays || (overdueCount > summaryHighOverdues && outstanding.GreaterThan(highOutstanding)) {
		return High
	}
	if finalWeightedDays > mediumWeightedDays || overdueCount > 0 {
		return Medium
	}
	return Low
}

// Rank orders levels for sorting; higher is riskier.
func (l Level) Rank() int {
	switch l {
	case High:
		return 2
	case Medium:
		return 1
	}
	return 0
}
