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

type rawAnalyzer struct {
	ds *ingest.RawDataset
}

func (a *rawAnalyzer) Mode() ingest.Mode { return ingest.ModeRaw }

func (a *rawAnalyzer) Customers() []CustomerRollup {
	byCustomer := make(map[string][]models.Invoice, len(a.ds.Customers))
	for _, inv := range a.ds.Invoices {
		byCustomer[inv.CustomerID] = append(byCustomer[inv.CustomerID], inv)
	}

	rollups := make([]CustomerRollup, 0, len(a.ds.Customers))
	for _, c := range a.ds.Customers {
		rollups = append(rollups, rollupRaw(c, byCustomer[c.ID]))
	}
	sortByOutstanding(rollups)
	return rollups
}

func rollupRaw(c models.Customer, invoices []models.Invoice) CustomerRollup {
	outstanding := decimal.Zero
	overdue := 0
	for _, inv := range invoices {
		if inv.IsOpen() {
			outstanding = outstanding.Add(inv.NetValue)
		}
		if inv.IsOverdue() {
			overdue++
		}
	}

	return CustomerRollup{
		Key:           c.ID,
		Name:          c.Name,
		ContactPerson: c.ContactPerson,
		Email:         c.Email,
		Outstanding:   outstanding,
		OverdueCount:  overdue,
		InvoiceCount:  len(invoices),
		Risk:          risk.ClassifyRaw(outstanding, overdue),
	}
}

func (a *rawAnalyzer) Customer(key string, asOf time.Time) (*CustomerDetail, error) {
	var (
		customer models.Customer
		found    bool
	)
	for _, c := range a.ds.Customers {
		if c.ID == key {
			customer, found = c, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("Customer: %w: %q", ErrCustomerNotFound, key)
	}

	var invoices []models.Invoice
	invoiceIDs := make(map[string]struct{})
	for _, inv := range a.ds.Invoices {
		if inv.CustomerID == key {
			invoices = append(invoices, inv)
			invoiceIDs[inv.ID] = struct{}{}
		}
	}

	var payments []models.Payment
	for _, p := range a.ds.Payments {
		if _, ok := invoiceIDs[p.InvoiceID]; ok {
			payments = append(payments, p)
		}
	}

	detail := &CustomerDetail{
		CustomerRollup:     rollupRaw(customer, invoices),
		TotalOverdue:       decimal.Zero,
		AveragePaymentDays: averagePaymentDays(invoices, payments),
		Invoices:           make([]InvoiceLine, 0, len(invoices)),
		Payments:           payments,
	}

	for _, inv := range invoices {
		line := InvoiceLine{
			InvoiceNumber: inv.InvoiceNumber,
			Amount:        inv.NetValue,
			Date:          inv.DueDate,
			Status:        string(inv.Status),
		}
		if inv.IsOpen() {
			age := floorDays(inv.DueDate, asOf)
			line.AgeDays = &age
			if inv.DueDate.Before(asOf) {
				detail.PastDueCount++
			}
		}
		if inv.IsOverdue() {
			detail.TotalOverdue = detail.TotalOverdue.Add(inv.NetValue)
		}
		detail.Invoices = append(detail.Invoices, line)
	}

	return detail, nil
}

func (a *rawAnalyzer) Dashboard(asOf time.Time) Dashboard {
	d := Dashboard{
		Mode:             ingest.ModeRaw,
		AsOf:             asOf,
		CustomerCount:    len(a.ds.Customers),
		TotalOutstanding: decimal.Zero,
		TotalOverdue:     decimal.Zero,
	}

	names := a.names()
	var (
		terms    []float64
		priority []PriorityItem
	)
	for _, inv := range a.ds.Invoices {
		switch inv.Status {
		case models.StatusPaid:
			terms = append(terms, ceilDays(inv.IssueDate, inv.DueDate))
		case models.StatusOverdue:
			d.TotalOverdue = d.TotalOverdue.Add(inv.NetValue)
			d.OverdueCount++
			priority = append(priority, PriorityItem{
				CustomerKey:   inv.CustomerID,
				CustomerName:  names[inv.CustomerID],
				InvoiceNumber: inv.InvoiceNumber,
				Amount:        inv.NetValue,
				Date:          inv.DueDate,
				Days:          floorDays(inv.DueDate, asOf),
			})
		}
		if inv.IsOpen() {
			d.TotalOutstanding = d.TotalOutstanding.Add(inv.NetValue)
		}
	}

	d.AverageCollectionDays = mean(terms, nil)
	d.AveragePaymentDays = averagePaymentDays(a.ds.Invoices, a.ds.Payments)

	sort.SliceStable(priority, func(i, j int) bool {
		return priority[i].Date.After(priority[j].Date)
	})
	d.HighPriority = top(priority, highPriorityLimit)
	if d.HighPriority == nil {
		d.HighPriority = []PriorityItem{}
	}

	return d
}

func (a *rawAnalyzer) Balances() []Balance {
	return balancesOf(a.Customers())
}

func (a *rawAnalyzer) OverdueDigest(asOf time.Time) []OverdueItem {
	customers := make(map[string]models.Customer, len(a.ds.Customers))
	for _, c := range a.ds.Customers {
		customers[c.ID] = c
	}

	items := []OverdueItem{}
	for _, inv := range a.ds.Invoices {
		if !inv.IsOverdue() || !inv.DueDate.Before(asOf) {
			continue
		}
		item := OverdueItem{
			CustomerName:  "Unknown",
			CustomerEmail: "N/A",
			InvoiceNumber: inv.InvoiceNumber,
			Amount:        inv.NetValue,
			DaysOverdue:   floorDays(inv.DueDate, asOf),
		}
		if c, ok := customers[inv.CustomerID]; ok {
			item.CustomerName = c.Name
			if c.Email != "" {
				item.CustomerEmail = c.Email
			}
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DaysOverdue > items[j].DaysOverdue
	})
	return items
}

type chatInvoice struct {
	ID            string               `json:"id"`
	CustomerID    string               `json:"customerId"`
	InvoiceNumber string               `json:"invoiceNumber"`
	Value         decimal.Decimal      `json:"value"`
	Deductions    decimal.Decimal      `json:"deductions"`
	NetValue      decimal.Decimal      `json:"netValue"`
	IssueDate     string               `json:"issueDate"`
	DueDate       string               `json:"dueDate"`
	Status        models.InvoiceStatus `json:"status"`
}

func (a *rawAnalyzer) ChatData() ChatData {
	refs := make([]CustomerRef, 0, len(a.ds.Customers))
	for _, c := range a.ds.Customers {
		refs = append(refs, CustomerRef{ID: c.ID, Name: c.Name})
	}

	invoices := make([]chatInvoice, 0, len(a.ds.Invoices))
	for _, inv := range a.ds.Invoices {
		invoices = append(invoices, chatInvoice{
			ID:            inv.ID,
			CustomerID:    inv.CustomerID,
			InvoiceNumber: inv.InvoiceNumber,
			Value:         inv.Value,
			Deductions:    inv.Deductions,
			NetValue:      inv.NetValue,
			IssueDate:     inv.IssueDate.Format("2006-01-02"),
			DueDate:       inv.DueDate.Format("2006-01-02"),
			Status:        inv.Status,
		})
	}

	return ChatData{Customers: refs, Invoices: invoices}
}

func (a *rawAnalyzer) names() map[string]string {
	names := make(map[string]string, len(a.ds.Customers))
	for _, c := range a.ds.Customers {
		names[c.ID] = c.Name
	}
	return names
}

// averagePaymentDays is the mean of ceil(|payment - issue|) in days over paid
// invoices that have a recorded payment. The first payment recorded for an
// invoice is the one used.
func averagePaymentDays(invoices []models.Invoice, payments []models.Payment) float64 {
	firstPayment := make(map[string]time.Time, len(payments))
	for _, p := range payments {
		if _, seen := firstPayment[p.InvoiceID]; !seen {
			firstPayment[p.InvoiceID] = p.PaymentDate
		}
	}

	var days []float64
	for _, inv := range invoices {
		if inv.Status != models.StatusPaid {
			continue
		}
		if paid, ok := firstPayment[inv.ID]; ok {
			days = append(days, ceilDays(inv.IssueDate, paid))
		}
	}
	return mean(days, nil)
}
