package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"debtors/internal/ingest"
	"debtors/internal/risk"
	"debtors/pkg/models"
)

type summaryAnalyzer struct {
	ds *ingest.SummaryDataset
}

func (a *summaryAnalyzer) Mode() ingest.Mode { return ingest.ModeSummary }

func (a *summaryAnalyzer) Customers() []CustomerRollup {
	ages := a.agesByCustomer()
	invoiceCounts := make(map[string]int, len(a.ds.Customers))
	for _, inv := range a.ds.Invoices {
		invoiceCounts[inv.CustomerName]++
	}

	rollups := make([]CustomerRollup, 0, len(a.ds.Customers))
	for _, c := range a.ds.Customers {
		r := rollupSummary(c, ages[c.CustomerName])
		r.InvoiceCount = invoiceCounts[c.CustomerName]
		rollups = append(rollups, r)
	}
	sortByOutstanding(rollups)
	return rollups
}

func rollupSummary(c models.CustomerSummary, ages []models.AgeSummary) CustomerRollup {
	outstanding := decimal.Zero
	overdue := 0
	for _, age := range ages {
		outstanding = outstanding.Add(age.Outstanding)
		if age.IsOverdue() {
			overdue++
		}
	}

	return CustomerRollup{
		Key:                       c.CustomerName,
		Name:                      c.CustomerName,
		Outstanding:               outstanding,
		OverdueCount:              overdue,
		WeightedAverageCollection: c.WeightedAverageCollection,
		FinalWeightedDays:         c.FinalWeightedDays,
		Risk:                      risk.ClassifySummary(outstanding, overdue, c.FinalWeightedDays),
	}
}

func (a *summaryAnalyzer) Customer(key string, asOf time.Time) (*CustomerDetail, error) {
	var (
		customer models.CustomerSummary
		found    bool
	)
	for _, c := range a.ds.Customers {
		if c.CustomerName == key {
			customer, found = c, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("Customer: %w: %q", ErrCustomerNotFound, key)
	}

	ages := a.agesByCustomer()[key]
	var invoices []models.InvoiceSummary
	for _, inv := range a.ds.Invoices {
		if inv.CustomerName == key {
			invoices = append(invoices, inv)
		}
	}

	detail := &CustomerDetail{
		CustomerRollup:     rollupSummary(customer, ages),
		TotalOverdue:       decimal.Zero,
		AveragePaymentDays: customer.WeightedAverageCollection,
		Invoices:           make([]InvoiceLine, 0, len(ages)),
		InvoiceSummaries:   invoices,
	}
	detail.InvoiceCount = len(invoices)

	for _, age := range ages {
		line := InvoiceLine{
			InvoiceNumber: age.InvoiceNumber,
			Amount:        age.Outstanding,
			Date:          age.InvoiceDate,
			Status:        ageStatus(age),
		}
		if age.Outstanding.IsPositive() {
			days := age.AgeDays
			line.AgeDays = &days
		}
		if age.IsOverdue() {
			detail.TotalOverdue = detail.TotalOverdue.Add(age.Outstanding)
			detail.PastDueCount++
		}
		detail.Invoices = append(detail.Invoices, line)
	}

	return detail, nil
}

func ageStatus(age models.AgeSummary) string {
	switch {
	case !age.Outstanding.IsPositive():
		return "Collected"
	case age.AgeDays > 0:
		return string(models.StatusOverdue)
	}
	return "Not due"
}

func (a *summaryAnalyzer) Dashboard(asOf time.Time) Dashboard {
	d := Dashboard{
		Mode:             ingest.ModeSummary,
		AsOf:             asOf,
		CustomerCount:    len(a.ds.Customers),
		TotalOutstanding: decimal.Zero,
		TotalOverdue:     decimal.Zero,
	}

	var priority []PriorityItem
	for _, age := range a.ds.Ages {
		d.TotalOutstanding = d.TotalOutstanding.Add(age.Outstanding)
		if !age.IsOverdue() {
			continue
		}
		d.TotalOverdue = d.TotalOverdue.Add(age.Outstanding)
		d.OverdueCount++
		priority = append(priority, PriorityItem{
			CustomerKey:   age.CustomerName,
			CustomerName:  age.CustomerName,
			InvoiceNumber: age.InvoiceNumber,
			Amount:        age.Outstanding,
			Date:          age.InvoiceDate,
			Days:          age.AgeDays,
		})
	}

	volume := make(map[string]float64, len(a.ds.Customers))
	for _, inv := range a.ds.Invoices {
		volume[inv.CustomerName] += inv.NetInvoice.InexactFloat64()
	}

	collection := make([]float64, 0, len(a.ds.Customers))
	weights := make([]float64, 0, len(a.ds.Customers))
	for _, c := range a.ds.Customers {
		collection = append(collection, c.WeightedAverageCollection)
		weights = append(weights, volume[c.CustomerName])
	}
	d.AverageCollectionDays = mean(collection, nil)
	d.VolumeWeightedCollectionDays = mean(collection, weights)

	sort.SliceStable(priority, func(i, j int) bool {
		return priority[i].Days > priority[j].Days
	})
	d.HighPriority = top(priority, highPriorityLimit)
	if d.HighPriority == nil {
		d.HighPriority = []PriorityItem{}
	}

	return d
}

func (a *summaryAnalyzer) Balances() []Balance {
	return balancesOf(a.Customers())
}

func (a *summaryAnalyzer) OverdueDigest(time.Time) []OverdueItem {
	items := []OverdueItem{}
	for _, age := range a.ds.Ages {
		if !age.IsOverdue() {
			continue
		}
		items = append(items, OverdueItem{
			CustomerName:  age.CustomerName,
			CustomerEmail: "N/A",
			InvoiceNumber: age.InvoiceNumber,
			Amount:        age.Outstanding,
			DaysOverdue:   age.AgeDays,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DaysOverdue > items[j].DaysOverdue
	})
	return items
}

func (a *summaryAnalyzer) ChatData() ChatData {
	refs := make([]CustomerRef, 0, len(a.ds.Customers))
	for _, c := range a.ds.Customers {
		refs = append(refs, CustomerRef{ID: c.CustomerName, Name: c.CustomerName})
	}
	return ChatData{Customers: refs, Invoices: a.ds.Ages}
}

func (a *summaryAnalyzer) agesByCustomer() map[string][]models.AgeSummary {
	ages := make(map[string][]models.AgeSummary, len(a.ds.Customers))
	for _, age := range a.ds.Ages {
		ages[age.CustomerName] = append(ages[age.CustomerName], age)
	}
	return ages
}
