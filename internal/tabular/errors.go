package tabular

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("file is empty or has no header row")

	// ErrUnsupportedFormat is returned for spreadsheet formats that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFieldCount is returned when a data row has a different number of cells than the header.
	ErrFieldCount = errors.New("wrong number of fields")
)

// ParseError reports malformed tabular content in a named source.
type ParseError struct {
	// File is the source name as shown to the user.
	File string

	// Line is the 1-based source line, or 0 when the failure is not line specific.
	Line int

	Err error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Error in %s: line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("Error in %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newParseError(file string, line int, err error) *ParseError {
	return &ParseError{File: file, Line: line, Err: err}
}
