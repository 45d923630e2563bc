package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"debtors/internal/logger"
	"debtors/internal/server"
	"debtors/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for the web dashboard",
	Long: `Start the HTTP API. Files are uploaded with POST /api/upload; data is held
in memory for the lifetime of the process. Source flags, when given, preload
a batch at startup.

Configuration:
  SERVER_PORT          - Listen port (default: 8080)
  CORS_ALLOWED_ORIGINS - Comma-separated allowed origins
  MAX_UPLOAD_MB        - Upload size limit (default: 10)
  LLM_API_KEY          - Optional; can also be set per session with POST /api/session/key`,
	Example: `  # Start on the configured port
  debtors serve

  # Preload a batch and listen on port 9000
  debtors serve --port 9000 --customers c.csv --invoices i.csv --payments p.csv`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addSourceFlags(serveCmd)
	serveCmd.Flags().Int("port", 0, "Listen port (default: SERVER_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := currentConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.ServerPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *session.Store
	if hasSourceFlags(cmd) {
		store, err = loadStore(ctx, cmd)
		if err != nil {
			return err
		}
		log.Info().Str("mode", string(store.Info().Mode)).Msg("Preloaded dataset")
	} else {
		store = newStore()
	}

	srv := server.New(store, server.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes(),
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	log.Info().
		Int("port", port).
		Str("session_id", store.ID()).
		Bool("assistant_configured", store.Info().Keyed).
		Msg("Starting server")

	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
}
