// Package server exposes the loaded dataset, its derived views and the
// assistant over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"debtors/internal/logger"
	"debtors/internal/session"
)

// Options configures the HTTP surface.
type Options struct {
	// MaxUploadBytes bounds the multipart body of an upload.
	MaxUploadBytes int64

	CorsAllowedOrigins []string

	// Now pins "today" when no asOf query parameter is given. Defaults to time.Now.
	Now func() time.Time
}

// Server serves one in-memory session.
type Server struct {
	store *session.Store
	opts  Options
	log   zerolog.Logger
}

// New creates a server over store.
func New(store *session.Store, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		store: store,
		opts:  opts,
		log:   logger.WithComponent("server"),
	}
}

// Handler builds the routed handler with middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(routeLabel)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", s.sessionInfo).Methods(http.MethodGet)
	api.HandleFunc("/session/key", s.setAPIKey).Methods(http.MethodPost)
	api.HandleFunc("/upload", s.upload).Methods(http.MethodPost)
	api.HandleFunc("/templates/{role}", s.template).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.dashboard).Methods(http.MethodGet)
	api.HandleFunc("/balances", s.balances).Methods(http.MethodGet)
	api.HandleFunc("/customers", s.customers).Methods(http.MethodGet)
	api.HandleFunc("/customers/{key}", s.customer).Methods(http.MethodGet)
	api.HandleFunc("/customers/{key}/credit-suggestion", s.creditSuggestion).Methods(http.MethodPost)
	api.HandleFunc("/reports/weekly-focus", s.weeklyFocus).Methods(http.MethodPost)
	api.HandleFunc("/chat", s.chat).Methods(http.MethodPost)
	api.HandleFunc("/export", s.export).Methods(http.MethodGet)

	return requestLogging(metricsMiddleware(panicRecovery(newCORS(s.opts.CorsAllowedOrigins)(r))))
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	const op = "ListenAndServe"

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown: %w", op, err)
	}
	return nil
}
