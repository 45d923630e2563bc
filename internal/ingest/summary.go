package ingest

import (
	"debtors/internal/tabular"
	"debtors/pkg/models"
)

var keyRequired = []string{"customerName", "invoiceNumber"}

// MapSummary validates the summary-mode files along the chain
// age -> invoice -> customer, keyed by customer name and invoice number.
func MapSummary(customerRows, invoiceRows, ageRows []tabular.Row) (*SummaryDataset, error) {
	customers, err := mapCustomerSummaries(customerRows)
	if err != nil {
		return nil, err
	}

	names := NewIndex(customers, func(c models.CustomerSummary) string { return c.CustomerName })
	invoices, err := mapInvoiceSummaries(invoiceRows, names)
	if err != nil {
		return nil, err
	}

	keys := NewIndex(invoices, models.InvoiceSummary.Key)
	ages, err := mapAgeSummaries(ageRows, keys)
	if err != nil {
		return nil, err
	}

	return &SummaryDataset{Customers: customers, Invoices: invoices, Ages: ages}, nil
}

func mapCustomerSummaries(rows []tabular.Row) ([]models.CustomerSummary, error) {
	customers := make([]models.CustomerSummary, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if anyMissing(row, "customerName") {
			return nil, missingFields(RoleCustomerSummary, row, "customerName")
		}

		name := row.Text("customerName")
		if _, dup := seen[name]; dup {
			return nil, duplicateKey(RoleCustomerSummary, row, "customerName", name)
		}
		seen[name] = struct{}{}

		customers = append(customers, models.CustomerSummary{
			CustomerName:              name,
			WeightedAverageCollection: number(row, "weightedAverageCollection"),
			WeightedBcDueDays:         number(row, "weightedBcDueDays"),
			FinalWeightedDays:         number(row, "finalWeightedDays"),
		})
	}

	return customers, nil
}

func mapInvoiceSummaries(rows []tabular.Row, names Index[string]) ([]models.InvoiceSummary, error) {
	invoices := make([]models.InvoiceSummary, 0, len(rows))
	seen := make(map[models.InvoiceKey]struct{}, len(rows))

	for _, row := range rows {
		if anyMissing(row, keyRequired...) {
			return nil, missingFields(RoleInvoiceSummary, row, keyRequired...)
		}

		inv := models.InvoiceSummary{
			CustomerName:          row.Text("customerName"),
			InvoiceNumber:         row.Text("invoiceNumber"),
			InvoiceValue:          money(row, "invoiceValue"),
			Deductions:            money(row, "deductions"),
			NetInvoice:            money(row, "netInvoice"),
			IPValue:               money(row, "ipValue"),
			BcDue:                 money(row, "bcDue"),
			WAverageReceiptDays:   number(row, "wAverageReceiptDays"),
			PercentOfCollection:   number(row, "percentOfCollection"),
			AverageReceiptDays100: number(row, "averageReceiptDays100"),
			BcAgeDays:             number(row, "bcAgeDays"),
			BcPercent:             number(row, "bcPercent"),
		}

		if _, dup := seen[inv.Key()]; dup {
			return nil, duplicateKey(RoleInvoiceSummary, row, "invoice", inv.Key().String())
		}
		seen[inv.Key()] = struct{}{}

		if !names.Has(inv.CustomerName) {
			return nil, unknownReference(RoleInvoiceSummary, row, "customerName", inv.CustomerName, RoleCustomerSummary)
		}

		invoices = append(invoices, inv)
	}

	return invoices, nil
}

func mapAgeSummaries(rows []tabular.Row, keys Index[models.InvoiceKey]) ([]models.AgeSummary, error) {
	ages := make([]models.AgeSummary, 0, len(rows))

	for _, row := range rows {
		if anyMissing(row, keyRequired...) {
			return nil, missingFields(RoleAgeSummary, row, keyRequired...)
		}

		age := models.AgeSummary{
			CustomerName:  row.Text("customerName"),
			InvoiceNumber: row.Text("invoiceNumber"),
			Outstanding:   money(row, "outstanding"),
			AgeDays:       number(row, "ageDays"),
		}

		if !keys.Has(age.Key()) {
			return nil, unknownReference(RoleAgeSummary, row, "invoice", age.Key().String(), RoleInvoiceSummary)
		}

		// Blank invoice dates are allowed and stay zero.
		if raw := row.Text("invoiceDate"); raw != "" {
			date, ok := ParseDate(raw)
			if !ok {
				return nil, invalidDate(RoleAgeSummary, row, "invoiceDate", raw)
			}
			age.InvoiceDate = date
		}

		ages = append(ages, age)
	}

	return ages, nil
}
