package ingest

import (
	"fmt"
	"strings"
)

// Mode selects which of the two ingestion schemas a batch uses.
type Mode string

const (
	ModeRaw     Mode = "raw"
	ModeSummary Mode = "summary"
)

// ParseMode accepts "raw" or "summary" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRaw:
		return ModeRaw, nil
	case ModeSummary:
		return ModeSummary, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Roles returns the three file roles of the mode in validation order.
func (m Mode) Roles() []Role {
	if m == ModeSummary {
		return []Role{RoleCustomerSummary, RoleInvoiceSummary, RoleAgeSummary}
	}
	return []Role{RoleCustomers, RoleInvoices, RolePayments}
}

// Role identifies one of the uploaded files.
type Role string

const (
	RoleCustomers       Role = "customers"
	RoleInvoices        Role = "invoices"
	RolePayments        Role = "payments"
	RoleCustomerSummary Role = "customer-summary"
	RoleInvoiceSummary  Role = "invoice-summary"
	RoleAgeSummary      Role = "age-summary"
)

type roleInfo struct {
	label   string
	file    string
	mode    Mode
	headers []string
}

var roles = map[Role]roleInfo{
	RoleCustomers: {
		label:   "Customer",
		file:    "customers",
		mode:    ModeRaw,
		headers: []string{"id", "name", "contactPerson", "email"},
	},
	RoleInvoices: {
		label:   "Invoice",
		file:    "invoices",
		mode:    ModeRaw,
		headers: []string{"id", "customerId", "invoiceNumber", "value", "deductions", "issueDate", "dueDate", "status"},
	},
	RolePayments: {
		label:   "Payment",
		file:    "payments",
		mode:    ModeRaw,
		headers: []string{"id", "invoiceId", "amount", "paymentDate"},
	},
	RoleCustomerSummary: {
		label:   "Customer summary",
		file:    "customer summary",
		mode:    ModeSummary,
		headers: []string{"Customer", "W.average collection", "W.bc due days", "Final wighted Days"},
	},
	RoleInvoiceSummary: {
		label: "Invoice summary",
		file:  "invoice summary",
		mode:  ModeSummary,
		headers: []string{
			"Customer", "Invoice Number", "Invoice_Value", "Deductions", "Net_invoice", "Ip_Value", "Bc_due",
			"W.average receipt days for receipt collection", "% of collection", "average receipt days for 100%",
			"bc age days", "Bc %",
		},
	},
	RoleAgeSummary: {
		label:   "Age summary",
		file:    "age summary",
		mode:    ModeSummary,
		headers: []string{"Customer", "invoce number", "invoice date", "outstanding", "age days"},
	},
}

// ParseRole accepts a role name, tolerating underscores for hyphens.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if _, ok := roles[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Label is the prefix used in row-level messages, e.g. "Invoice" in "Invoice row 4".
func (r Role) Label() string {
	return roles[r].label
}

// FileLabel names the file in referential messages, e.g. "customers file".
func (r Role) FileLabel() string {
	return roles[r].file + " file"
}

// Mode returns the ingestion mode the role belongs to.
func (r Role) Mode() Mode {
	return roles[r].mode
}

// Headers returns the template header row for the role.
func (r Role) Headers() []string {
	return append([]string(nil), roles[r].headers...)
}

// TemplateFileName is the download name of the role's template.
func (r Role) TemplateFileName() string {
	return strings.ReplaceAll(string(r), "-", "_") + "_template.csv"
}

// AllRoles lists every role, raw first.
func AllRoles() []Role {
	return append(ModeRaw.Roles(), ModeSummary.Roles()...)
}
