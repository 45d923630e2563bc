package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"debtors/internal/analytics"
	"debtors/internal/export"
	"debtors/internal/logger"
	"debtors/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the customer risk table as CSV, PDF or to a Google Sheet",
	Long: `Load a batch and export every customer with balance, overdue count and
risk label.

Formats:
  csv    one line per customer (default)
  pdf    printable report with the dashboard figures
  sheet  replaces the contents of a worksheet (GOOGLE_SHEET_URL, or --sheet-url)`,
	Example: `  debtors export --customers c.csv --invoices i.csv --payments p.csv --out risk.csv
  debtors export --format pdf --out risk.pdf --customers c.csv --invoices i.csv --payments p.csv
  debtors export --format sheet --worksheet Risk --sheet-url https://docs.google.com/spreadsheets/d/<id>/edit`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addSourceFlags(exportCmd)

	exportCmd.Flags().String("format", "csv", "Export format: csv, pdf or sheet")
	exportCmd.Flags().String("out", "", "Output file for csv/pdf (default: stdout)")
	exportCmd.Flags().String("title", "Debtor Risk Report", "PDF report title")
	exportCmd.Flags().String("worksheet", "", "Target worksheet for --format sheet (default: GOOGLE_SHEET_WORKSHEET)")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	asOf, err := asOfFlag(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := loadStore(ctx, cmd)
	if err != nil {
		return err
	}
	an, err := store.Analyzer()
	if err != nil {
		return err
	}
	rollups := an.Customers()

	if format == export.FormatSheet {
		return exportToSheet(ctx, cmd, rollups)
	}

	var w io.Writer = os.Stdout
	out, _ := cmd.Flags().GetString("out")
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case export.FormatPDF:
		title, _ := cmd.Flags().GetString("title")
		err = export.CustomersPDF(w, title, rollups, an.Dashboard(asOf))
	default:
		err = export.CustomersCSV(w, rollups)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("format", string(format)).
		Int("customers", len(rollups)).
		Str("out", out).
		Msg("Export completed")
	return nil
}

func exportToSheet(ctx context.Context, cmd *cobra.Command, rollups []analytics.CustomerRollup) error {
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	if cfg, err := currentConfig(); err == nil {
		if sheetURL == "" {
			sheetURL = cfg.GoogleSheetURL
		}
		if worksheet == "" {
			worksheet = cfg.GoogleSheetWorksheet
		}
	}
	if sheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable or --sheet-url is required")
	}
	if worksheet == "" {
		worksheet = "Risk"
	}

	svc, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
	}
	return svc.WriteCustomers(ctx, rollups, worksheet)
}
