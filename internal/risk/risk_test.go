package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyRaw(t *testing.T) {
	tests := []struct {
		name        string
		outstanding int64
		overdue     int
		want        Level
	}{
		{"overdue large balance", 60000, 1, High},
		{"overdue small balance", 5000, 1, Medium},
		{"no invoices", 0, 0, Low},
		{"large balance nothing overdue", 50001, 0, Medium},
		{"exactly high threshold", 50000, 1, Medium},
		{"exactly medium threshold", 10000, 0, Low},
		{"just over medium threshold", 10001, 0, Medium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRaw(decimal.NewFromInt(tt.outstanding), tt.overdue))
		})
	}
}

func TestClassifySummary(t *testing.T) {
	tests := []struct {
		name        string
		outstanding int64
		overdue     int
		weighted    float64
		want        Level
	}{
		{"weighted days alone trigger high", 1200, 1, 70, High},
		{"many overdue and large balance", 60000, 3, 10, High},
		{"two overdue large balance", 60000, 2, 10, Medium},
		{"weighted days medium", 0, 0, 45, Medium},
		{"single overdue", 100, 1, 0, Medium},
		{"clean", 100000, 0, 30, Low},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySummary(decimal.NewFromInt(tt.outstanding), tt.overdue, tt.weighted)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	for _, outstanding := range []int64{-100, 0, 9999, 10000, 10001, 49999, 50000, 50001, 1e9} {
		for overdue := 0; overdue < 5; overdue++ {
			raw := ClassifyRaw(decimal.NewFromInt(outstanding), overdue)
			assert.Contains(t, Levels, raw)
			assert.Equal(t, raw, ClassifyRaw(decimal.NewFromInt(outstanding), overdue))

			for _, days := range []float64{-1, 0, 30, 30.5, 60, 60.01, 365} {
				summary := ClassifySummary(decimal.NewFromInt(outstanding), overdue, days)
				assert.Contains(t, Levels, summary)
			}
		}
	}
}

func TestLevelRank(t *testing.T) {
	assert.Less(t, Low.Rank(), Medium.Rank())
	assert.Less(t, Medium.Rank(), High.Rank())
}
