package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"debtors/internal/assistant"
	"debtors/internal/logger"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate AI collection reports",
	Long: `Generate collection reports with the AI assistant.

Required environment variables:
  LLM_API_KEY (or OPENAI_API_KEY) - API key of the text generation service

Optional:
  LLM_MODEL    - Model name (default: gpt-4o-mini)
  LLM_BASE_URL - OpenAI-compatible endpoint`,
}

var weeklyFocusCmd = &cobra.Command{
	Use:   "weekly-focus",
	Short: "Prioritized weekly collections report from overdue invoices",
	Example: `  debtors report weekly-focus --customers c.csv --invoices i.csv --payments p.csv
  debtors report weekly-focus --mode summary --customer-summary cs.csv --invoice-summary is.csv --age-summary age.csv`,
	RunE: runWeeklyFocus,
}

var creditCmd = &cobra.Command{
	Use:   "credit",
	Short: "Credit risk suggestion for one customer",
	Example: `  debtors report credit --customer C1 --customers c.csv --invoices i.csv --payments p.csv`,
	RunE: runCredit,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(weeklyFocusCmd, creditCmd)

	addSourceFlags(weeklyFocusCmd)
	addSourceFlags(creditCmd)
	creditCmd.Flags().String("customer", "", "Customer id (raw mode) or name (summary mode)")
	_ = creditCmd.MarkFlagRequired("customer")
}

func runWeeklyFocus(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

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

	digest := an.OverdueDigest(asOf)
	log.Info().Int("overdue_items", len(digest)).Msg("Generating weekly focus report")

	return printReply(store.Assistant().WeeklyFocus(ctx, digest))
}

func runCredit(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("customer")
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

	detail, err := an.Customer(key, asOf)
	if err != nil {
		return fmt.Errorf("customer %q: %w", key, err)
	}

	reply := store.Assistant().CreditSuggestion(ctx, detail)
	if err := printReply(reply); err != nil {
		return err
	}
	if reply.Risk != "" {
		fmt.Printf("\nSuggested label: %s Risk (rule-based: %s Risk)\n", reply.Risk, detail.Risk)
	}
	return nil
}

// printReply prints the assistant text and turns a failed reply into an exit error.
func printReply(reply assistant.Reply) error {
	fmt.Println(reply.Text)
	if reply.Failed {
		return fmt.Errorf("assistant request failed")
	}
	return nil
}
