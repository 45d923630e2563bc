package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerSummary is one row of a pre-aggregated customer summary. The customer
// name is the primary key.
type CustomerSummary struct {
	CustomerName              string  `json:"customerName"`
	WeightedAverageCollection float64 `json:"weightedAverageCollection"`
	WeightedBcDueDays         float64 `json:"weightedBcDueDays"`
	FinalWeightedDays         float64 `json:"finalWeightedDays"`
}

// InvoiceKey identifies an invoice in summary mode.
type InvoiceKey struct {
	CustomerName  string `json:"customerName"`
	InvoiceNumber string `json:"invoiceNumber"`
}

func (k InvoiceKey) String() string {
	return k.CustomerName + " / " + k.InvoiceNumber
}

// InvoiceSummary holds collection figures for one invoice of a summarized customer.
type InvoiceSummary struct {
	CustomerName          string          `json:"customerName"`
	InvoiceNumber         string          `json:"invoiceNumber"`
	InvoiceValue          decimal.Decimal `json:"invoiceValue"`
	Deductions            decimal.Decimal `json:"deductions"`
	NetInvoice            decimal.Decimal `json:"netInvoice"`
	IPValue               decimal.Decimal `json:"ipValue"`
	BcDue                 decimal.Decimal `json:"bcDue"`
	WAverageReceiptDays   float64         `json:"wAverageReceiptDays"`
	PercentOfCollection   float64         `json:"percentOfCollection"`
	AverageReceiptDays100 float64         `json:"averageReceiptDays100"`
	BcAgeDays             float64         `json:"bcAgeDays"`
	BcPercent             float64         `json:"bcPercent"`
}

func (s InvoiceSummary) Key() InvoiceKey {
	return InvoiceKey{CustomerName: s.CustomerName, InvoiceNumber: s.InvoiceNumber}
}

// AgeSummary is an aging line. Positive AgeDays means overdue; InvoiceDate is
// zero when the source left it blank.
type AgeSummary struct {
	CustomerName  string          `json:"customerName"`
	InvoiceNumber string          `json:"invoiceNumber"`
	InvoiceDate   time.Time       `json:"invoiceDate"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	AgeDays       float64         `json:"ageDays"`
}

func (a AgeSummary) Key() InvoiceKey {
	return InvoiceKey{CustomerName: a.CustomerName, InvoiceNumber: a.InvoiceNumber}
}

// IsOverdue reports whether the item is past due and still has money owed.
func (a AgeSummary) IsOverdue() bool {
	return a.AgeDays > 0 && a.Outstanding.IsPositive()
}
