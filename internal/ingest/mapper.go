package ingest

import (
	"debtors/internal/tabular"
	"debtors/pkg/models"
)

var (
	customerRequired = []string{"id", "name"}
	invoiceRequired  = []string{"id", "customerId", "invoiceNumber", "issueDate", "dueDate"}
	paymentRequired  = []string{"id", "invoiceId", "paymentDate"}
)

// MapRaw validates the three raw-mode files in order and converts them to
// domain records. It stops at the first offending row; within a row the checks
// run required fields, duplicate key, reference, status, then dates.
func MapRaw(customerRows, invoiceRows, paymentRows []tabular.Row) (*RawDataset, error) {
	customers, err := mapCustomers(customerRows)
	if err != nil {
		return nil, err
	}

	customerIDs := NewIndex(customers, func(c models.Customer) string { return c.ID })
	invoices, err := mapInvoices(invoiceRows, customerIDs)
	if err != nil {
		return nil, err
	}

	invoiceIDs := NewIndex(invoices, func(i models.Invoice) string { return i.ID })
	payments, err := mapPayments(paymentRows, invoiceIDs)
	if err != nil {
		return nil, err
	}

	return &RawDataset{Customers: customers, Invoices: invoices, Payments: payments}, nil
}

func mapCustomers(rows []tabular.Row) ([]models.Customer, error) {
	customers := make([]models.Customer, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if anyMissing(row, customerRequired...) {
			return nil, missingFields(RoleCustomers, row, customerRequired...)
		}

		id := row.Text("id")
		if _, dup := seen[id]; dup {
			return nil, duplicateKey(RoleCustomers, row, "id", id)
		}
		seen[id] = struct{}{}

		customers = append(customers, models.Customer{
			ID:            id,
			Name:          row.Text("name"),
			ContactPerson: row.Text("contactPerson"),
			Email:         row.Text("email"),
		})
	}

	return customers, nil
}

func mapInvoices(rows []tabular.Row, customerIDs Index[string]) ([]models.Invoice, error) {
	invoices := make([]models.Invoice, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if anyMissing(row, invoiceRequired...) {
			return nil, missingFields(RoleInvoices, row, invoiceRequired...)
		}

		id := row.Text("id")
		if _, dup := seen[id]; dup {
			return nil, duplicateKey(RoleInvoices, row, "id", id)
		}
		seen[id] = struct{}{}

		customerID := row.Text("customerId")
		if !customerIDs.Has(customerID) {
			return nil, unknownReference(RoleInvoices, row, "customerId", customerID, RoleCustomers)
		}

		status := models.InvoiceStatus(row.Exact("status"))
		if !status.Valid() {
			return nil, invalidStatus(row, row.Exact("status"))
		}

		issue, ok := ParseDate(row.Text("issueDate"))
		if !ok {
			return nil, invalidDate(RoleInvoices, row, "issueDate", row.Text("issueDate"))
		}
		due, ok := ParseDate(row.Text("dueDate"))
		if !ok {
			return nil, invalidDate(RoleInvoices, row, "dueDate", row.Text("dueDate"))
		}

		invoices = append(invoices, models.NewInvoice(
			id,
			customerID,
			row.Text("invoiceNumber"),
			money(row, "value"),
			money(row, "deductions"),
			issue,
			due,
			status,
		))
	}

	return invoices, nil
}

func mapPayments(rows []tabular.Row, invoiceIDs Index[string]) ([]models.Payment, error) {
	payments := make([]models.Payment, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if anyMissing(row, paymentRequired...) {
			return nil, missingFields(RolePayments, row, paymentRequired...)
		}

		id := row.Text("id")
		if _, dup := seen[id]; dup {
			return nil, duplicateKey(RolePayments, row, "id", id)
		}
		seen[id] = struct{}{}

		invoiceID := row.Text("invoiceId")
		if !invoiceIDs.Has(invoiceID) {
			return nil, unknownReference(RolePayments, row, "invoiceId", invoiceID, RoleInvoices)
		}

		paid, ok := ParseDate(row.Text("paymentDate"))
		if !ok {
			return nil, invalidDate(RolePayments, row, "paymentDate", row.Text("paymentDate"))
		}

		payments = append(payments, models.Payment{
			ID:          id,
			InvoiceID:   invoiceID,
			Amount:      money(row, "amount"),
			PaymentDate: paid,
		})
	}

	return payments, nil
}
