package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a debtor loaded from the customers file.
type Customer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
}

// Payment is a receipt recorded against an invoice.
type Payment struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoiceId"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"paymentDate"`
}
