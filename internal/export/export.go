// Package export renders the customer risk table as CSV or as a printable PDF
// report.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"debtors/internal/analytics"
	"debtors/internal/risk"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatPDF   Format = "pdf"
	FormatSheet Format = "sheet"
)

// ParseFormat accepts csv, pdf or sheet.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatPDF, FormatSheet:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (expected csv, pdf or sheet)", s)
}

var csvHeader = []string{
	"customerId", "name", "contactPerson", "email", "outstanding",
	"overdueInvoices", "invoices", "weightedAverageCollection", "finalWeightedDays", "risk",
}

// CustomersCSV writes one line per customer after a header line.
func CustomersCSV(w io.Writer, rollups []analytics.CustomerRollup) error {
	const op = "CustomersCSV"

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range rollups {
		record := []string{
			r.Key,
			r.Name,
			r.ContactPerson,
			r.Email,
			r.Outstanding.StringFixed(2),
			strconv.Itoa(r.OverdueCount),
			strconv.Itoa(r.InvoiceCount),
			strconv.FormatFloat(r.WeightedAverageCollection, 'f', -1, 64),
			strconv.FormatFloat(r.FinalWeightedDays, 'f', -1, 64),
			string(r.Risk),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CustomersPDF writes an A4 report: dashboard figures followed by the
// customer table with the risk column shaded by level.
func CustomersPDF(w io.Writer, title string, rollups []analytics.CustomerRollup, dash analytics.Dashboard) error {
	const op = "CustomersPDF"

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("As of %s (%s data)", dash.AsOf.Format("2006-01-02"), dash.Mode), "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", time.Now().Format("02-Jan-2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Dashboard
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(63, 7, fmt.Sprintf("Customers: %d", dash.CustomerCount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 7, fmt.Sprintf("Outstanding: %s", dash.TotalOutstanding.StringFixed(2)), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 7, fmt.Sprintf("Overdue: %s", dash.TotalOverdue.StringFixed(2)), "1", 1, "C", false, 0, "")
	pdf.CellFormat(63, 7, fmt.Sprintf("Overdue invoices: %d", dash.OverdueCount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(127, 7, fmt.Sprintf("Average collection: %.1f days", dash.AverageCollectionDays), "1", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Customer table
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, "Customers by outstanding balance", "1", 1, "L", true, 0, "")

	widths := []float64{30, 60, 35, 22, 20, 23}
	headers := []string{"Customer ID", "Name", "Outstanding", "Overdue", "Invoices", "Risk"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, h := range headers {
		ln := 0
		if i == len(headers)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, h, "1", ln, "C", true, 0, "")
	}

	pdf.SetFont("Arial", "", 9)
	for _, r := range rollups {
		pdf.CellFormat(widths[0], 6, tr(truncate(r.Key, 16)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(truncate(r.Name, 32)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, r.Outstanding.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, strconv.Itoa(r.OverdueCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, strconv.Itoa(r.InvoiceCount), "1", 0, "C", false, 0, "")
		red, green, blue := riskColor(r.Risk)
		pdf.SetFillColor(red, green, blue)
		pdf.CellFormat(widths[5], 6, string(r.Risk), "1", 1, "C", true, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func riskColor(level risk.Level) (int, int, int) {
	switch level {
	case risk.High:
		return 255, 200, 200
	case risk.Medium:
		return 255, 235, 180
	}
	return 200, 255, 200
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
