package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the collection state of a raw-mode invoice.
type InvoiceStatus string

const (
	StatusPaid    InvoiceStatus = "Paid"
	StatusOverdue InvoiceStatus = "Overdue"
	StatusPending InvoiceStatus = "Pending"
)

// InvoiceStatuses lists the recognized status labels in display order.
var InvoiceStatuses = []InvoiceStatus{StatusPaid, StatusOverdue, StatusPending}

// Valid reports whether s is one of the recognized labels. Matching is case-sensitive.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusOverdue, StatusPending:
		return true
	}
	return false
}

type Invoice struct {
	// Core identifiers
	ID            string `json:"id"`
	CustomerID    string `json:"customerId"`
	InvoiceNumber string `json:"invoiceNumber"`

	// Amounts
	Value      decimal.Decimal `json:"value"`
	Deductions decimal.Decimal `json:"deductions"`
	NetValue   decimal.Decimal `json:"netValue"` // Value - Deductions, never read from input

	// Dates
	IssueDate time.Time `json:"issueDate"`
	DueDate   time.Time `json:"dueDate"`

	Status InvoiceStatus `json:"status"`
}

// NewInvoice builds an invoice with its net value derived from value and deductions.
func NewInvoice(id, customerID, number string, value, deductions decimal.Decimal, issue, due time.Time, status InvoiceStatus) Invoice {
	return Invoice{
		ID:            id,
		CustomerID:    customerID,
		InvoiceNumber: number,
		Value:         value,
		Deductions:    deductions,
		NetValue:      value.Sub(deductions),
		IssueDate:     issue,
		DueDate:       due,
		Status:        status,
	}
}

// IsOpen reports whether the invoice still contributes to the outstanding balance.
func (i Invoice) IsOpen() bool {
	return i.Status != StatusPaid
}

// IsOverdue reports whether the invoice carries the Overdue status.
func (i Invoice) IsOverdue() bool {
	return i.Status == StatusOverdue
}
