package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"debtors/internal/analytics"
	"debtors/internal/logger"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Validate a batch of files and print the dashboard",
	Long: `Validate the three files of one ingestion mode and print the dashboard
figures: customer count, outstanding and overdue totals, average collection
days and the high-priority list.

The batch is rejected on the first problem; the message names the file and
row, counting the header as row 1.

Google Sheets access uses:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Raw mode from CSV files
  debtors ingest --customers customers.csv --invoices invoices.csv --payments payments.csv

  # Summary mode from XLSX exports
  debtors ingest --mode summary --customer-summary cs.xlsx --invoice-summary is.xlsx --age-summary age.xlsx

  # Raw mode from worksheets named customers, invoices and payments
  debtors ingest --sheet-url https://docs.google.com/spreadsheets/d/<id>/edit

  # Pin today's date
  debtors ingest --customers c.csv --invoices i.csv --payments p.csv --as-of 2024-06-01`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	addSourceFlags(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ingest-cmd")

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

	dash := an.Dashboard(asOf)
	log.Info().
		Str("mode", string(dash.Mode)).
		Int("customers", dash.CustomerCount).
		Msg("Dataset validated")

	printDashboard(dash)
	return nil
}

func printDashboard(d analytics.Dashboard) {
	fmt.Printf("Dashboard (%s mode, as of %s)\n\n", d.Mode, d.AsOf.Format("2006-01-02"))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Customers:\t%d\n", d.CustomerCount)
	fmt.Fprintf(w, "Total outstanding:\t%s\n", d.TotalOutstanding.StringFixed(2))
	fmt.Fprintf(w, "Total overdue:\t%s (%d)\n", d.TotalOverdue.StringFixed(2), d.OverdueCount)
	fmt.Fprintf(w, "Average collection days:\t%s\n", formatDays(d.AverageCollectionDays))
	if d.AveragePaymentDays > 0 {
		fmt.Fprintf(w, "Average payment days:\t%s\n", formatDays(d.AveragePaymentDays))
	}
	if d.VolumeWeightedCollectionDays > 0 {
		fmt.Fprintf(w, "Volume-weighted collection days:\t%s\n", formatDays(d.VolumeWeightedCollectionDays))
	}
	w.Flush()

	if len(d.HighPriority) == 0 {
		return
	}

	fmt.Println("\nHigh priority")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CUSTOMER\tINVOICE\tAMOUNT\tDATE\tDAYS")
	for _, p := range d.HighPriority {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.CustomerName,
			p.InvoiceNumber,
			p.Amount.StringFixed(2),
			formatDate(p.Date),
			formatDays(p.Days),
		)
	}
	w.Flush()
}
