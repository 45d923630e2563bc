package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"debtors/internal/tabular"
)

// Source yields the parsed rows of one file role.
type Source interface {
	// Name identifies the source in error messages, usually a file name.
	Name() string
	Rows(ctx context.Context) ([]tabular.Row, error)
}

// Sources maps each role of a mode to where its rows come from.
type Sources map[Role]Source

// FileSource reads a CSV or XLSX file from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Rows(ctx context.Context) ([]tabular.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tabular.ParseFile(s.Path)
}

// ReaderSource parses content already in memory, such as an HTTP upload.
// FileName drives format detection.
type ReaderSource struct {
	FileName string
	Content  []byte
}

// NewReaderSource drains r into memory.
func NewReaderSource(fileName string, r io.Reader) (ReaderSource, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return ReaderSource{}, fmt.Errorf("read %s: %w", fileName, err)
	}
	return ReaderSource{FileName: fileName, Content: content}, nil
}

func (s ReaderSource) Name() string { return s.FileName }

func (s ReaderSource) Rows(ctx context.Context) ([]tabular.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tabular.Parse(s.FileName, bytes.NewReader(s.Content))
}

// SourceError reports a role with no source attached.
type SourceError struct {
	Role Role
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("Missing %s. Please provide all three files.", e.Role.FileLabel())
}

func (e *SourceError) Unwrap() error {
	return ErrMissingSource
}
