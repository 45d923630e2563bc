// Package session holds the state of one user session: the currently loaded
// dataset, its analyzer and the assistant bound to the session's API key.
// Data lives in memory only.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"debtors/internal/analytics"
	"debtors/internal/assistant"
	"debtors/internal/ingest"
	"debtors/internal/logger"
	"debtors/pkg/services"
)

var (
	// ErrNoData is returned when a view is requested before any successful upload.
	ErrNoData = errors.New("no data loaded, upload files first")

	// ErrBusy is returned when a control already has a request in flight.
	ErrBusy = errors.New("a request for this action is already in progress")
)

// Control names an action guarded against concurrent submission.
type Control string

const (
	ControlUpload           Control = "upload"
	ControlWeeklyFocus      Control = "weekly-focus"
	ControlCreditSuggestion Control = "credit-suggestion"
	ControlChat             Control = "chat"
)

// GeneratorFactory builds a text generator for an API key.
type GeneratorFactory func(apiKey string) (services.TextGenerator, error)

// Info describes the loaded dataset.
type Info struct {
	ID       string              `json:"id"`
	Mode     ingest.Mode         `json:"mode,omitempty"`
	LoadedAt time.Time           `json:"loadedAt,omitempty"`
	Counts   map[ingest.Role]int `json:"counts,omitempty"`
	Keyed    bool                `json:"assistantConfigured"`
}

// Store is safe for concurrent use.
type Store struct {
	id      string
	loader  *ingest.Loader
	factory GeneratorFactory

	mu        sync.RWMutex
	dataset   ingest.Dataset
	analyzer  analytics.Analyzer
	loadedAt  time.Time
	assistant *assistant.Service

	inflightMu sync.Mutex
	inflight   map[Control]bool

	log zerolog.Logger
}

// NewStore creates an empty session. factory may be nil when no generator can
// ever be built; apiKey may be empty and set later with SetAPIKey.
func NewStore(factory GeneratorFactory, apiKey string) *Store {
	s := &Store{
		id:        uuid.NewString(),
		loader:    ingest.NewLoader(),
		factory:   factory,
		assistant: assistant.NewService(nil),
		inflight:  make(map[Control]bool),
	}
	s.log = logger.WithComponent("session").With().Str("session_id", s.id).Logger()

	if apiKey != "" {
		if err := s.SetAPIKey(apiKey); err != nil {
			s.log.Warn().Err(err).Msg("Configured API key could not be used")
		}
	}
	return s
}

// ID returns the session identifier.
func (s *Store) ID() string {
	return s.id
}

// Ingest loads a new batch. The previous dataset stays in place unless the
// whole batch succeeds.
func (s *Store) Ingest(ctx context.Context, mode ingest.Mode, sources ingest.Sources) (ingest.Dataset, error) {
	const op = "Ingest"

	ds, err := s.loader.Load(ctx, mode, sources)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	an, err := analytics.For(ds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.dataset = ds
	s.analyzer = an
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.log.Info().
		Str("mode", string(mode)).
		Msg("Dataset replaced")

	return ds, nil
}

// Analyzer returns the analyzer of the loaded dataset.
func (s *Store) Analyzer() (analytics.Analyzer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.analyzer == nil {
		return nil, ErrNoData
	}
	return s.analyzer, nil
}

// Dataset returns the loaded dataset.
func (s *Store) Dataset() (ingest.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dataset == nil {
		return nil, ErrNoData
	}
	return s.dataset, nil
}

// Info summarizes the session.
func (s *Store) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{ID: s.id, Keyed: s.assistant.Configured()}
	if s.dataset != nil {
		info.Mode = s.dataset.Mode()
		info.LoadedAt = s.loadedAt
		info.Counts = s.dataset.Counts()
	}
	return info
}

// Assistant returns the assistant bound to the current API key.
func (s *Store) Assistant() *assistant.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assistant
}

// SetAPIKey rebuilds the assistant for key. An empty key detaches the
// generator. On failure the previous assistant is kept.
func (s *Store) SetAPIKey(key string) error {
	const op = "SetAPIKey"

	key = strings.TrimSpace(key)
	var gen services.TextGenerator
	if key != "" {
		if s.factory == nil {
			return fmt.Errorf("%s: %w", op, assistant.ErrNotInitialized)
		}
		g, err := s.factory(key)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		gen = g
	}

	svc := assistant.NewService(gen)
	s.mu.Lock()
	s.assistant = svc
	s.mu.Unlock()

	s.log.Info().
		Bool("configured", gen != nil).
		Msg("Assistant credentials updated")
	return nil
}

// Acquire marks control as in flight. The returned release must be called
// when the request completes; a second Acquire before that fails with ErrBusy.
func (s *Store) Acquire(control Control) (release func(), err error) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	if s.inflight[control] {
		return nil, fmt.Errorf("%s: %w", control, ErrBusy)
	}
	s.inflight[control] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.inflightMu.Lock()
			delete(s.inflight, control)
			s.inflightMu.Unlock()
		})
	}, nil
}
