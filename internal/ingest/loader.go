// Package ingest validates parsed rows into domain records. A batch is three
// files of one mode; any failure rejects the whole batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"debtors/internal/logger"
	"debtors/internal/metrics"
	"debtors/internal/tabular"
)

// Loader runs an ingestion pass: parse the three sources concurrently, then
// validate and map them in file order.
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a loader.
func NewLoader() *Loader {
	return &Loader{log: logger.WithComponent("ingest")}
}

// Load returns a fresh dataset or the first error encountered. Parse errors
// from any source win over validation, and among concurrent parses the first
// failure is the one reported.
func (l *Loader) Load(ctx context.Context, mode Mode, sources Sources) (Dataset, error) {
	const op = "Load"
	start := time.Now()

	roles := mode.Roles()
	for _, role := range roles {
		if sources[role] == nil {
			l.fail(mode)
			return nil, fmt.Errorf("%s: %w", op, &SourceError{Role: role})
		}
	}

	l.log.Info().
		Str("mode", string(mode)).
		Msg("Starting ingestion")

	parsed := make([][]tabular.Row, len(roles))
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		i, role, src := i, role, sources[role]
		g.Go(func() error {
			rows, err := src.Rows(gctx)
			if err != nil {
				return asParseError(src.Name(), err)
			}
			l.log.Debug().
				Str("role", string(role)).
				Str("source", src.Name()).
				Int("rows", len(rows)).
				Msg("Parsed source")
			parsed[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.log.Warn().Err(err).Str("mode", string(mode)).Msg("Parsing failed")
		l.fail(mode)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		ds  Dataset
		err error
	)
	switch mode {
	case ModeSummary:
		ds, err = MapSummary(parsed[0], parsed[1], parsed[2])
	default:
		ds, err = MapRaw(parsed[0], parsed[1], parsed[2])
	}
	if err != nil {
		l.log.Warn().Err(err).Str("mode", string(mode)).Msg("Validation failed")
		l.fail(mode)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts := ds.Counts()
	for role, n := range counts {
		metrics.IngestedRecords.WithLabelValues(string(role)).Set(float64(n))
	}
	metrics.IngestionsTotal.WithLabelValues(string(mode), "success").Inc()

	l.log.Info().
		Str("mode", string(mode)).
		Int(string(roles[0]), counts[roles[0]]).
		Int(string(roles[1]), counts[roles[1]]).
		Int(string(roles[2]), counts[roles[2]]).
		Dur("duration", time.Since(start)).
		Msg("Ingestion completed")

	return ds, nil
}

func (l *Loader) fail(mode Mode) {
	metrics.IngestionsTotal.WithLabelValues(string(mode), "failure").Inc()
}

// asParseError scopes a source failure to its file unless it already is.
func asParseError(name string, err error) error {
	var parseErr *tabular.ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &tabular.ParseError{File: name, Err: err}
}
