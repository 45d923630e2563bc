package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"debtors/internal/ingest"
	"debtors/internal/logger"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write header-only CSV templates for the input files",
	Long: `Write the expected header row of an input file as a CSV template.

Roles:
  raw:     customers, invoices, payments
  summary: customer-summary, invoice-summary, age-summary`,
	Example: `  # Print the invoices template
  debtors template --role invoices

  # Write to a file
  debtors template --role age-summary --out age.csv

  # Write every template into a directory
  debtors template --all --dir templates/`,
	RunE: runTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().String("role", "", "File role of the template")
	templateCmd.Flags().String("out", "", "Output file (default: stdout)")
	templateCmd.Flags().Bool("all", false, "Write every template")
	templateCmd.Flags().String("dir", ".", "Output directory for --all")
}

func runTemplate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("template")

	all, _ := cmd.Flags().GetBool("all")
	if all {
		dir, _ := cmd.Flags().GetString("dir")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		for _, role := range ingest.AllRoles() {
			path := filepath.Join(dir, role.TemplateFileName())
			if err := os.WriteFile(path, ingest.Template(role), 0o644); err != nil {
				return fmt.Errorf("failed to write template: %w", err)
			}
			log.Info().Str("role", string(role)).Str("path", path).Msg("Template written")
		}
		return nil
	}

	roleStr, _ := cmd.Flags().GetString("role")
	if roleStr == "" {
		return fmt.Errorf("--role or --all is required")
	}
	role, err := ingest.ParseRole(roleStr)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		_, err := os.Stdout.Write(ingest.Template(role))
		return err
	}
	if err := os.WriteFile(out, ingest.Template(role), 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	log.Info().Str("role", string(role)).Str("path", out).Msg("Template written")
	return nil
}
