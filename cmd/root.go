package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"debtors/internal/config"
	"debtors/internal/logger"
)

var version = "1.0.0"

// appConfig is set by main before Execute; commands fall back to defaults.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "debtors",
	Short: "Debtors - receivables ingestion, risk scoring and collections reporting",
	Long: `Debtors validates customer, invoice and payment exports, derives
outstanding balances, overdue counts, collection times and a risk label per
customer, and drafts collection reports with an AI assistant.

Two ingestion modes are supported:
  raw      customers, invoices and payments files
  summary  customer summary, invoice summary and age summary files

Files may be CSV or XLSX, or worksheets of a Google Spreadsheet.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetConfig hands the loaded configuration to the commands.
func SetConfig(cfg *config.Config) {
	appConfig = cfg
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// currentConfig returns the configuration set by main, loading it on first
// use when main could not.
func currentConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	appConfig = cfg
	return cfg, nil
}
