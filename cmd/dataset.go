package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"debtors/internal/assistant"
	"debtors/internal/ingest"
	"debtors/internal/session"
	"debtors/internal/sheets"
)

// errIngestionFailed is returned after the row-level messages were printed.
var errIngestionFailed = errors.New("ingestion failed")

// addSourceFlags registers the flags that select the three input files.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", string(ingest.ModeRaw), "Ingestion mode: raw or summary")
	for _, role := range ingest.AllRoles() {
		cmd.Flags().String(string(role), "", fmt.Sprintf("Path to the %s (CSV or XLSX)", role.FileLabel()))
	}
	cmd.Flags().String("sheet-url", "", "Read the three files as worksheets of this Google Spreadsheet (defaults to GOOGLE_SHEET_URL when no file is given)")
	cmd.Flags().String("as-of", "", "Date treated as today (format: YYYY-MM-DD, default: today)")
}

// hasSourceFlags reports whether any input was given on the command line.
func hasSourceFlags(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("sheet-url") {
		return true
	}
	for _, role := range ingest.AllRoles() {
		if cmd.Flags().Changed(string(role)) {
			return true
		}
	}
	return false
}

func asOfFlag(cmd *cobra.Command) (time.Time, error) {
	asOfStr, _ := cmd.Flags().GetString("as-of")
	if asOfStr == "" {
		return time.Now(), nil
	}
	asOf, err := time.Parse("2006-01-02", asOfStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as-of date format. Use YYYY-MM-DD: %w", err)
	}
	return asOf, nil
}

// buildSources resolves the flags into ingestion sources: worksheets when a
// spreadsheet is named, files otherwise.
func buildSources(ctx context.Context, cmd *cobra.Command, mode ingest.Mode) (ingest.Sources, error) {
	files := make(map[ingest.Role]string, 3)
	for _, role := range mode.Roles() {
		path, _ := cmd.Flags().GetString(string(role))
		if path != "" {
			files[role] = path
		}
	}

	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	if sheetURL == "" && len(files) == 0 {
		if cfg, err := currentConfig(); err == nil {
			sheetURL = cfg.GoogleSheetURL
		}
	}

	if sheetURL != "" {
		svc, err := sheets.NewSheetsService(ctx, sheetURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		// File flags name worksheets when reading from a spreadsheet.
		return svc.Sources(mode, files), nil
	}

	sources := make(ingest.Sources, 3)
	for role, path := range files {
		sources[role] = ingest.FileSource{Path: path}
	}
	return sources, nil
}

// newStore creates a session with the configured API key.
func newStore() *session.Store {
	cfg, err := currentConfig()
	if err != nil {
		return session.NewStore(nil, "")
	}
	return session.NewStore(session.GeneratorFactory(assistant.OpenAIFactory(cfg.GetOpenAIConfig())), cfg.APIKey())
}

// loadStore ingests the inputs named by the flags into a fresh session.
// Validation messages are printed to stderr.
func loadStore(ctx context.Context, cmd *cobra.Command) (*session.Store, error) {
	modeStr, _ := cmd.Flags().GetString("mode")
	mode, err := ingest.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}

	sources, err := buildSources(ctx, cmd, mode)
	if err != nil {
		return nil, err
	}

	store := newStore()
	if _, err := store.Ingest(ctx, mode, sources); err != nil {
		for _, msg := range ingest.Messages(err) {
			fmt.Fprintln(os.Stderr, msg)
		}
		return nil, fmt.Errorf("%w: %v", errIngestionFailed, err)
	}
	return store, nil
}

func formatDays(d float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", d), "0"), ".")
}
