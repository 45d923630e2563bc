package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"debtors/internal/analytics"
)

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "List customers by outstanding balance with their risk label",
	Long: `Load a batch and list every customer, largest outstanding balance first,
with overdue count and risk label. With --customer, print the detail view of
one customer: totals and each invoice with its age.`,
	Example: `  # Risk table
  debtors customers --customers c.csv --invoices i.csv --payments p.csv

  # One customer in summary mode (customers are keyed by name)
  debtors customers --mode summary --customer-summary cs.csv --invoice-summary is.csv --age-summary age.csv --customer "Acme Ltd"`,
	RunE: runCustomers,
}

func init() {
	rootCmd.AddCommand(customersCmd)
	addSourceFlags(customersCmd)
	customersCmd.Flags().String("customer", "", "Show the detail view of this customer (id in raw mode, name in summary mode)")
}

func runCustomers(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("customer")
	asOf, err := asOfFlag(cmd)
	if err != nil {
		return err
	}

	store, err := loadStore(context.Background(), cmd)
	if err != nil {
		return err
	}
	an, err := store.Analyzer()
	if err != nil {
		return err
	}

	if key == "" {
		printCustomers(an.Customers())
		return nil
	}

	detail, err := an.Customer(key, asOf)
	if err != nil {
		return fmt.Errorf("customer %q: %w", key, err)
	}
	printCustomerDetail(detail)
	return nil
}

func printCustomers(rollups []analytics.CustomerRollup) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tOUTSTANDING\tOVERDUE\tINVOICES\tRISK")
	for _, r := range rollups {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.Key, r.Name, r.Outstanding.StringFixed(2), r.OverdueCount, r.InvoiceCount, r.Risk)
	}
	w.Flush()
}

func printCustomerDetail(d *analytics.CustomerDetail) {
	fmt.Printf("%s (%s)\n", d.Name, d.Key)
	if d.ContactPerson != "" || d.Email != "" {
		fmt.Printf("Contact: %s <%s>\n", d.ContactPerson, d.Email)
	}
	fmt.Printf("Risk: %s\n\n", d.Risk)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Outstanding:\t%s\n", d.Outstanding.StringFixed(2))
	fmt.Fprintf(w, "Overdue:\t%s (%d past due)\n", d.TotalOverdue.StringFixed(2), d.PastDueCount)
	fmt.Fprintf(w, "Invoices:\t%d\n", d.InvoiceCount)
	fmt.Fprintf(w, "Average payment days:\t%s\n", formatDays(d.AveragePaymentDays))
	w.Flush()

	if len(d.Invoices) == 0 {
		return
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INVOICE\tAMOUNT\tDATE\tSTATUS\tAGE")
	for _, inv := range d.Invoices {
		age := "-"
		if inv.AgeDays != nil {
			age = formatDays(*inv.AgeDays)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			inv.InvoiceNumber, inv.Amount.StringFixed(2), formatDate(inv.Date), inv.Status, age)
	}
	w.Flush()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
