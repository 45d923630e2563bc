package analytics

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"debtors/internal/ingest"
	"debtors/internal/risk"
	"debtors/pkg/models"
)

var (
	// ErrCustomerNotFound is returned when a customer key is not in the dataset.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrUnsupportedDataset is returned for a nil dataset.
	ErrUnsupportedDataset = errors.New("unsupported dataset")
)

// highPriorityLimit caps the dashboard's high-priority list.
const highPriorityLimit = 5

// CustomerRollup is a customer with its derived balances and risk label.
type CustomerRollup struct {
	// Key is the customer id in raw mode and the customer name in summary mode.
	Key           string `json:"key"`
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Email         string `json:"email,omitempty"`

	Outstanding  decimal.Decimal `json:"outstanding"`
	OverdueCount int             `json:"overdueCount"`
	InvoiceCount int             `json:"invoiceCount"`

	// Summary mode only.
	WeightedAverageCollection float64 `json:"weightedAverageCollection,omitempty"`
	FinalWeightedDays         float64 `json:"finalWeightedDays,omitempty"`

	Risk risk.Level `json:"risk"`
}

// PriorityItem is an overdue invoice or aging line on the dashboard.
type PriorityItem struct {
	CustomerKey   string          `json:"customerKey"`
	CustomerName  string          `json:"customerName"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Amount        decimal.Decimal `json:"amount"`

	// Date is the due date in raw mode and the invoice date in summary mode.
	Date time.Time `json:"date"`

	// Days is days past due in raw mode and age days in summary mode.
	Days float64 `json:"days"`
}

// Dashboard holds the global figures.
type Dashboard struct {
	Mode          ingest.Mode `json:"mode"`
	AsOf          time.Time   `json:"asOf"`
	CustomerCount int         `json:"customerCount"`

	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	TotalOverdue     decimal.Decimal `json:"totalOverdue"`
	OverdueCount     int             `json:"overdueCount"`

	// AverageCollectionDays is the headline figure: the mean payment term of
	// paid invoices in raw mode, the mean of per-customer weighted averages in
	// summary mode.
	AverageCollectionDays float64 `json:"averageCollectionDays"`

	// AveragePaymentDays is the mean of issue date to recorded payment over
	// paid invoices (raw mode).
	AveragePaymentDays float64 `json:"averagePaymentDays,omitempty"`

	// VolumeWeightedCollectionDays weights each customer's collection days by
	// its net invoiced volume (summary mode).
	VolumeWeightedCollectionDays float64 `json:"volumeWeightedCollectionDays,omitempty"`

	HighPriority []PriorityItem `json:"highPriority"`
}

// Balance is one bar of the outstanding-balance chart.
type Balance struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// InvoiceLine is an invoice as shown on the customer detail view.
type InvoiceLine struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Status        string          `json:"status"`

	// AgeDays is nil for settled lines.
	AgeDays *float64 `json:"ageDays,omitempty"`
}

// CustomerDetail is one customer with its invoices.
type CustomerDetail struct {
	CustomerRollup

	TotalOverdue decimal.Decimal `json:"totalOverdue"`

	// PastDueCount counts open invoices whose due date is before the as-of date.
	PastDueCount int `json:"pastDueCount"`

	AveragePaymentDays float64 `json:"averagePaymentDays"`

	Invoices []InvoiceLine `json:"invoices"`

	Payments         []models.Payment        `json:"payments,omitempty"`
	InvoiceSummaries []models.InvoiceSummary `json:"invoiceSummaries,omitempty"`
}

// OverdueItem is one entry of the weekly collections digest.
type OverdueItem struct {
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Amount        decimal.Decimal `json:"amount"`
	DaysOverdue   float64         `json:"daysOverdue"`
}

// CustomerRef is the minimal customer identity handed to the chat assistant.
type CustomerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChatData is the dataset snapshot the chat assistant answers from.
type ChatData struct {
	Customers []CustomerRef `json:"customers"`
	Invoices  interface{}   `json:"invoices"`
}
