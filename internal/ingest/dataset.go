package ingest

import (
	"debtors/pkg/models"
)

// Dataset is the validated output of one ingestion pass. It is either a
// *RawDataset or a *SummaryDataset; no other implementations exist.
type Dataset interface {
	Mode() Mode

	// Counts returns the number of records per file role.
	Counts() map[Role]int

	dataset()
}

// RawDataset holds customers, invoices and payments.
type RawDataset struct {
	Customers []models.Customer `json:"customers"`
	Invoices  []models.Invoice  `json:"invoices"`
	Payments  []models.Payment  `json:"payments"`
}

func (*RawDataset) Mode() Mode { return ModeRaw }

func (d *RawDataset) Counts() map[Role]int {
	return map[Role]int{
		RoleCustomers: len(d.Customers),
		RoleInvoices:  len(d.Invoices),
		RolePayments:  len(d.Payments),
	}
}

func (*RawDataset) dataset() {}

// SummaryDataset holds pre-aggregated customer, invoice and aging records.
type SummaryDataset struct {
	Customers []models.CustomerSummary `json:"customers"`
	Invoices  []models.InvoiceSummary  `json:"invoices"`
	Ages      []models.AgeSummary      `json:"ages"`
}

func (*SummaryDataset) Mode() Mode { return ModeSummary }

func (d *SummaryDataset) Counts() map[Role]int {
	return map[Role]int{
		RoleCustomerSummary: len(d.Customers),
		RoleInvoiceSummary:  len(d.Invoices),
		RoleAgeSummary:      len(d.Ages),
	}
}

func (*SummaryDataset) dataset() {}
