package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debtors/internal/tabular"
	"debtors/pkg/models"
)

const (
	customersCSV = "id,name,contactPerson,email\n" +
		"C1,Acme Ltd,Jane Doe,jane@acme.test\n" +
		"C2,Globex,John Roe,john@globex.test\n" +
		"C3,Initech,,\n"

	invoicesCSV = "id,customerId,invoiceNumber,value,deductions,issueDate,dueDate,status\n" +
		"I1,C1,INV-001,62000.50,2000.25,2024-01-01,2024-01-31,Overdue\n" +
		"I2,C2,INV-002,5000,,2024-02-01,2024-03-02,Overdue\n" +
		"I3,C1,INV-003,1000,abc,2024-01-10,2024-01-20,Paid\n"

	paymentsCSV = "id,invoiceId,amount,paymentDate\n" +
		"P1,I3,1000,2024-01-25\n"
)

func parseRows(t *testing.T, name, content string) []tabular.Row {
	t.Helper()
	rows, err := tabular.Parse(name, strings.NewReader(content))
	require.NoError(t, err)
	return rows
}

func mapRawCSV(t *testing.T, customers, invoices, payments string) (*RawDataset, error) {
	t.Helper()
	return MapRaw(
		parseRows(t, "customers.csv", customers),
		parseRows(t, "invoices.csv", invoices),
		parseRows(t, "payments.csv", payments),
	)
}

func TestMapRaw(t *testing.T) {
	ds, err := mapRawCSV(t, customersCSV, invoicesCSV, paymentsCSV)
	require.NoError(t, err)

	require.Len(t, ds.Customers, 3)
	require.Len(t, ds.Invoices, 3)
	require.Len(t, ds.Payments, 1)

	assert.Equal(t, models.Customer{ID: "C1", Name: "Acme Ltd", ContactPerson: "Jane Doe", Email: "jane@acme.test"}, ds.Customers[0])

	inv := ds.Invoices[0]
	assert.Equal(t, "C1", inv.CustomerID)
	assert.Equal(t, models.StatusOverdue, inv.Status)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), inv.DueDate)
	assert.True(t, inv.NetValue.Equal(decimal.RequireFromString("60000.25")))

	// Non-numeric and blank deductions fall back to zero.
	assert.True(t, ds.Invoices[1].Deductions.IsZero())
	assert.True(t, ds.Invoices[2].Deductions.IsZero())

	assert.Equal(t, "I3", ds.Payments[0].InvoiceID)
	assert.True(t, ds.Payments[0].Amount.Equal(decimal.NewFromInt(1000)))
}

func TestMapRawNetValueInvariant(t *testing.T) {
	ds, err := mapRawCSV(t, customersCSV, invoicesCSV, paymentsCSV)
	require.NoError(t, err)

	for _, inv := range ds.Invoices {
		assert.True(t, inv.NetValue.Equal(inv.Value.Sub(inv.Deductions)), inv.ID)
	}
}

func TestMapRawValidation(t *testing.T) {
	tests := []struct {
		name      string
		customers string
		invoices  string
		payments  string
		target    error
		message   string
	}{
		{
			name:      "customer missing name",
			customers: "id,name\nC1,Acme\nC2,\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\n",
			payments:  "id,invoiceId,paymentDate\n",
			target:    ErrMissingField,
			message:   "Customer row 3: Missing required 'id' or 'name'.",
		},
		{
			name:      "duplicate customer",
			customers: "id,name\nC1,Acme\nC1,Other\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\n",
			payments:  "id,invoiceId,paymentDate\n",
			target:    ErrDuplicateKey,
			message:   `Customer row 3: Duplicate id "C1".`,
		},
		{
			name:      "invoice missing due date",
			customers: "id,name\nC1,Acme\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\nI1,C1,INV-1,2024-01-01,,Paid\n",
			payments:  "id,invoiceId,paymentDate\n",
			target:    ErrMissingField,
			message:   "Invoice row 2: Missing required fields (id, customerId, invoiceNumber, issueDate, dueDate).",
		},
		{
			name:      "invoice references unknown customer",
			customers: "id,name\nC1,Acme\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\nI1,C1,INV-1,2024-01-01,2024-02-01,Paid\nI2,C9,INV-2,2024-01-01,2024-02-01,Paid\n",
			payments:  "id,invoiceId,paymentDate\n",
			target:    ErrUnknownReference,
			message:   `Invoice row 3: customerId "C9" does not exist in customers file.`,
		},
		{
			name:      "status is case sensitive",
			customers: "id,name\nC1,Acme\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\nI1,C1,INV-1,2024-01-01,2024-02-01,paid\n",
			payments:  "id,invoiceId,paymentDate\n",
			target:    ErrInvalidStatus,
			message:   `Invoice row 2: Invalid status "paid". Must be 'Paid', 'Overdue', or 'Pending'.`,
		},
		{
			name:      "status must match without surrounding spaces",
			customers: "id,name\nC1,Acme\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\nI1,C1,INV-1,2024-01-01,2024-02-01, Paid \n",
			payments:  "id,invoiceId,paymentDate\n",
			target:    ErrInvalidStatus,
			message:   `Invoice row 2: Invalid status " Paid ". Must be 'Paid', 'Overdue', or 'Pending'.`,
		},
		{
			name:      "reference checked before status",
			customers: "id,name\nC1,Acme\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\nI1,C2,INV-1,2024-01-01,2024-02-01,Bogus\n",
			payments:  "id,invoiceId,paymentDate\n",
			target:    ErrUnknownReference,
		},
		{
			name:      "malformed date",
			customers: "id,name\nC1,Acme\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\nI1,C1,INV-1,2024-13-45,2024-02-01,Paid\n",
			payments:  "id,invoiceId,paymentDate\n",
			target:    ErrInvalidDate,
			message:   `Invoice row 2: Invalid issueDate "2024-13-45". Expected YYYY-MM-DD.`,
		},
		{
			name:      "payment missing date",
			customers: "id,name\nC1,Acme\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\nI1,C1,INV-1,2024-01-01,2024-02-01,Paid\n",
			payments:  "id,invoiceId,paymentDate\nP1,I1,\n",
			target:    ErrMissingField,
			message:   "Payment row 2: Missing required fields (id, invoiceId, paymentDate).",
		},
		{
			name:      "payment references unknown invoice",
			customers: "id,name\nC1,Acme\n",
			invoices:  "id,customerId,invoiceNumber,issueDate,dueDate,status\nI1,C1,INV-1,2024-01-01,2024-02-01,Paid\n",
			payments:  "id,invoiceId,amount,paymentDate\nP1,I1,10,2024-02-01\nP2,I7,10,2024-02-01\n",
			target:    ErrUnknownReference,
			message:   `Payment row 3: invoiceId "I7" does not exist in invoices file.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := mapRawCSV(t, tt.customers, tt.invoices, tt.payments)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.ErrorIs(t, err, tt.target)
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
				assert.Equal(t, []string{tt.message}, Messages(err))
			}
		})
	}
}

func TestMapRawRowNumberIgnoresBlankLines(t *testing.T) {
	customers := "id,name\n\nC1,Acme\n\n\nC2,\n"

	_, err := mapRawCSV(t, customers, "id,customerId,invoiceNumber,issueDate,dueDate,status\n", "id,invoiceId,paymentDate\n")
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 3, validationErr.Row)
	assert.Equal(t, RoleCustomers, validationErr.Role)
}

func TestMapRawRowNumberProperty(t *testing.T) {
	for failAt := 0; failAt < 6; failAt++ {
		var b strings.Builder
		b.WriteString("id,name\n")
		for i := 0; i < 6; i++ {
			if i == failAt {
				b.WriteString(",Missing\n")
				continue
			}
			b.WriteString("C" + string(rune('a'+i)) + ",Name\n")
		}

		_, err := mapRawCSV(t, b.String(), "id,customerId,invoiceNumber,issueDate,dueDate,status\n", "id,invoiceId,paymentDate\n")

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, failAt+2, validationErr.Row)
	}
}

func TestMapSummary(t *testing.T) {
	customers := "Customer,W.average collection,W.bc due days,Final wighted Days\n" +
		"Acme,40,10,70\n" +
		"Globex,20,5,12\n"
	invoices := "Customer,Invoice Number,Invoice_Value,Deductions,Net_invoice,Ip_Value,Bc_due,% of collection\n" +
		"Acme,INV-1,1500,300,1200,0,1200,0\n" +
		"Globex,INV-9,800,0,800,800,0,100\n"
	ages := "Customer,invoce number,invoice date,outstanding,age days\n" +
		"Acme,INV-1,2024-01-05,1200,45\n" +
		"Globex,INV-9,,0,-3\n"

	ds, err := MapSummary(
		parseRows(t, "customer_summary.csv", customers),
		parseRows(t, "invoice_summary.csv", invoices),
		parseRows(t, "age_summary.csv", ages),
	)
	require.NoError(t, err)

	require.Len(t, ds.Customers, 2)
	assert.Equal(t, 70.0, ds.Customers[0].FinalWeightedDays)
	assert.Equal(t, 40.0, ds.Customers[0].WeightedAverageCollection)

	require.Len(t, ds.Invoices, 2)
	assert.True(t, ds.Invoices[0].NetInvoice.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, 100.0, ds.Invoices[1].PercentOfCollection)

	require.Len(t, ds.Ages, 2)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), ds.Ages[0].InvoiceDate)
	assert.True(t, ds.Ages[1].InvoiceDate.IsZero())
	assert.Equal(t, -3.0, ds.Ages[1].AgeDays)
}

func TestMapSummaryValidation(t *testing.T) {
	customers := "Customer,Final wighted Days\nAcme,70\n"
	invoices := "Customer,Invoice Number\nAcme,INV-1\n"

	tests := []struct {
		name      string
		customers string
		invoices  string
		ages      string
		target    error
		message   string
	}{
		{
			name:      "customer summary missing name",
			customers: "Customer,Final wighted Days\n,70\n",
			invoices:  invoices,
			ages:      "Customer,invoce number\n",
			target:    ErrMissingField,
			message:   "Customer summary row 2: Missing required 'customerName'.",
		},
		{
			name:      "invoice summary unknown customer",
			customers: customers,
			invoices:  "Customer,Invoice Number\nAcme,INV-1\nGlobex,INV-2\n",
			ages:      "Customer,invoce number\n",
			target:    ErrUnknownReference,
			message:   `Invoice summary row 3: customerName "Globex" does not exist in customer summary file.`,
		},
		{
			name:      "age summary unknown invoice",
			customers: customers,
			invoices:  invoices,
			ages:      "Customer,invoce number,outstanding,age days\nAcme,INV-2,100,4\n",
			target:    ErrUnknownReference,
			message:   `Age summary row 2: invoice "Acme / INV-2" does not exist in invoice summary file.`,
		},
		{
			name:      "age summary missing invoice number",
			customers: customers,
			invoices:  invoices,
			ages:      "Customer,invoce number,outstanding\nAcme,,100\n",
			target:    ErrMissingField,
			message:   "Age summary row 2: Missing required 'customerName' or 'invoiceNumber'.",
		},
		{
			name:      "duplicate invoice summary",
			customers: customers,
			invoices:  "Customer,Invoice Number\nAcme,INV-1\nAcme,INV-1\n",
			ages:      "Customer,invoce number\n",
			target:    ErrDuplicateKey,
		},
		{
			name:      "malformed invoice date",
			customers: customers,
			invoices:  invoices,
			ages:      "Customer,invoce number,invoice date\nAcme,INV-1,someday\n",
			target:    ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := MapSummary(
				parseRows(t, "customer_summary.csv", tt.customers),
				parseRows(t, "invoice_summary.csv", tt.invoices),
				parseRows(t, "age_summary.csv", tt.ages),
			)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.ErrorIs(t, err, tt.target)
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{" 2024/03/05 ", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-05T10:00:00Z", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), true},
		{"03/05/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"05.03.2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"5.3.2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"",time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"2024-02-30", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIndex(t *testing.T) {
	customers := []models.Customer{{ID: "C1"}, {ID: "C2"}, {ID: "C1"}}
	ix := NewIndex(customers, func(c models.Customer) string { return c.ID })

	assert.True(t, ix.Has("C1"))
	assert.True(t, ix.Has("C2"))
	assert.False(t, ix.Has("C3"))
	assert.Equal(t, 2, ix.Len())
}
