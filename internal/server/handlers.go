package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"debtors/internal/analytics"
	"debtors/internal/export"
	"debtors/internal/ingest"
	"debtors/internal/logger"
	"debtors/internal/session"
	"debtors/pkg/services"
)

const uploadHint = "Upload the three files with POST /api/upload first."

type uploadResponse struct {
	Session   session.Info        `json:"session"`
	Dashboard analytics.Dashboard `json:"dashboard"`
}

type apiKeyRequest struct {
	APIKey string `json:"apiKey"`
}

type chatRequest struct {
	History []services.ChatMessage `json:"history"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) sessionInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Info())
}

func (s *Server) setAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.store.SetAPIKey(req.APIKey); err != nil {
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Msg("API key rejected")
		writeError(w, http.StatusBadRequest, "The API key could not be used.")
		return
	}

	writeJSON(w, http.StatusOK, s.store.Info())
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	modeParam := r.URL.Query().Get("mode")
	if modeParam == "" {
		modeParam = string(ingest.ModeRaw)
	}
	mode, err := ingest.ParseMode(modeParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	release, ok := s.acquire(w, session.ControlUpload)
	if !ok {
		return
	}
	defer release()

	if r.ContentLength > s.opts.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", s.opts.MaxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "Expected a multipart form with one file per role")
		return
	}
	defer r.MultipartForm.RemoveAll()

	sources := make(ingest.Sources, 3)
	for field, headers := range r.MultipartForm.File {
		role, err := ingest.ParseRole(field)
		if err != nil || role.Mode() != mode || len(headers) == 0 {
			log.Debug().Str("field", field).Msg("Ignoring upload field")
			continue
		}

		f, err := headers[0].Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not read %s", role.FileLabel()))
			return
		}
		src, err := ingest.NewReaderSource(headers[0].Filename, f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not read %s", role.FileLabel()))
			return
		}
		sources[role] = src
	}

	if _, err := s.store.Ingest(r.Context(), mode, sources); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: ingest.Messages(err)})
		return
	}

	an, err := s.store.Analyzer()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	asOf, err := s.asOf(r)
	if err != nil {
		asOf = s.opts.Now()
	}
	writeJSON(w, http.StatusOK, uploadResponse{Session: s.store.Info(), Dashboard: an.Dashboard(asOf)})
}

func (s *Server) template(w http.ResponseWriter, r *http.Request) {
	role, err := ingest.ParseRole(mux.Vars(r)["role"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", role.TemplateFileName()))
	_, _ = w.Write(ingest.Template(role))
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	an, ok := s.analyzer(w)
	if !ok {
		return
	}
	asOf, ok := s.requireAsOf(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, an.Dashboard(asOf))
}

func (s *Server) balances(w http.ResponseWriter, r *http.Request) {
	an, ok := s.analyzer(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, an.Balances())
}

func (s *Server) customers(w http.ResponseWriter, r *http.Request) {
	an, ok := s.analyzer(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, an.Customers())
}

func (s *Server) customer(w http.ResponseWriter, r *http.Request) {
	an, ok := s.analyzer(w)
	if !ok {
		return
	}
	asOf, ok := s.requireAsOf(w, r)
	if !ok {
		return
	}

	detail, ok := s.customerDetail(w, an, mux.Vars(r)["key"], asOf)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) creditSuggestion(w http.ResponseWriter, r *http.Request) {
	an, ok := s.analyzer(w)
	if !ok {
		return
	}
	asOf, ok := s.requireAsOf(w, r)
	if !ok {
		return
	}
	detail, ok := s.customerDetail(w, an, mux.Vars(r)["key"], asOf)
	if !ok {
		return
	}

	release, ok := s.acquire(w, session.ControlCreditSuggestion)
	if !ok {
		return
	}
	defer release()

	writeJSON(w, http.StatusOK, s.store.Assistant().CreditSuggestion(r.Context(), detail))
}

func (s *Server) weeklyFocus(w http.ResponseWriter, r *http.Request) {
	an, ok := s.analyzer(w)
	if !ok {
		return
	}
	asOf, ok := s.requireAsOf(w, r)
	if !ok {
		return
	}

	release, ok := s.acquire(w, session.ControlWeeklyFocus)
	if !ok {
		return
	}
	defer release()

	writeJSON(w, http.StatusOK, s.store.Assistant().WeeklyFocus(r.Context(), an.OverdueDigest(asOf)))
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	an, ok := s.analyzer(w)
	if !ok {
		return
	}
	asOf, ok := s.requireAsOf(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	n := len(req.History)
	if n == 0 || req.History[n-1].Role != services.RoleUser || strings.TrimSpace(req.History[n-1].Text) == "" {
		writeError(w, http.StatusBadRequest, "The last history entry must be a user question")
		return
	}

	release, ok := s.acquire(w, session.ControlChat)
	if !ok {
		return
	}
	defer release()

	writeJSON(w, http.StatusOK, s.store.Assistant().Chat(r.Context(), req.History, an.ChatData(), asOf))
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	an, ok := s.analyzer(w)
	if !ok {
		return
	}
	asOf, ok := s.requireAsOf(w, r)
	if !ok {
		return
	}

	format := export.FormatCSV
	if f := r.URL.Query().Get("format"); f != "" {
		parsed, err := export.ParseFormat(f)
		if err != nil || parsed == export.FormatSheet {
			writeError(w, http.StatusBadRequest, "format must be csv or pdf")
			return
		}
		format = parsed
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case export.FormatPDF:
		contentType = "application/pdf"
		err = export.CustomersPDF(&buf, "Debtor Risk Report", an.Customers(), an.Dashboard(asOf))
	default:
		contentType = "text/csv; charset=utf-8"
		err = export.CustomersCSV(&buf, an.Customers())
	}
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Export failed")
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "customers."+string(format)))
	_, _ = w.Write(buf.Bytes())
}

// analyzer writes 409 when nothing has been uploaded yet.
func (s *Server) analyzer(w http.ResponseWriter) (analytics.Analyzer, bool) {
	an, err := s.store.Analyzer()
	if err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Hint: uploadHint})
		return nil, false
	}
	return an, true
}

func (s *Server) customerDetail(w http.ResponseWriter, an analytics.Analyzer, key string, asOf time.Time) (*analytics.CustomerDetail, bool) {
	detail, err := an.Customer(key, asOf)
	if errors.Is(err, analytics.ErrCustomerNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Customer %q not found", key))
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return detail, true
}

func (s *Server) acquire(w http.ResponseWriter, control session.Control) (func(), bool) {
	release, err := s.store.Acquire(control)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return nil, false
	}
	return release, true
}

// asOf reads the optional asOf=YYYY-MM-DD query parameter.
func (s *Server) asOf(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("asOf")
	if v == "" {
		return s.opts.Now(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid asOf %q, expected YYYY-MM-DD", v)
	}
	return t, nil
}

func (s *Server) requireAsOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	t, err := s.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return t, true
}
