package ingest

import (
	"errors"
	"fmt"
	"strings"

	"debtors/internal/tabular"
)

var (
	ErrMissingField     = errors.New("missing required field")
	ErrUnknownReference = errors.New("unknown reference")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrInvalidDate      = errors.New("invalid date")

	// ErrMissingSource is returned when one of the three files was not supplied.
	ErrMissingSource = errors.New("missing source file")

	ErrUnknownMode = errors.New("unknown ingestion mode")
	ErrUnknownRole = errors.New("unknown file role")
)

// ValidationError describes the first row of a batch that could not be mapped
// to a domain record.
type ValidationError struct {
	Role Role

	// Row is the spreadsheet row number: 0-based index among non-empty rows plus 2.
	Row int

	Field string
	Value string

	// Err is one of the package sentinels.
	Err error

	message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s row %d: %s", e.Role.Label(), e.Row, e.message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func missingFields(role Role, row tabular.Row, fields ...string) *ValidationError {
	var msg string
	if len(fields) <= 2 {
		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = "'" + f + "'"
		}
		msg = fmt.Sprintf("Missing required %s.", strings.Join(quoted, " or "))
	} else {
		msg = fmt.Sprintf("Missing required fields (%s).", strings.Join(fields, ", "))
	}
	return &ValidationError{
		Role:    role,
		Row:     row.Number(),
		Field:   strings.Join(fields, ","),
		Err:     ErrMissingField,
		message: msg,
	}
}

func unknownReference(role Role, row tabular.Row, field, value string, parent Role) *ValidationError {
	return &ValidationError{
		Role:    role,
		Row:     row.Number(),
		Field:   field,
		Value:   value,
		Err:     ErrUnknownReference,
		message: fmt.Sprintf("%s %q does not exist in %s.", field, value, parent.FileLabel()),
	}
}

func duplicateKey(role Role, row tabular.Row, field, value string) *ValidationError {
	return &ValidationError{
		Role:    role,
		Row:     row.Number(),
		Field:   field,
		Value:   value,
		Err:     ErrDuplicateKey,
		message: fmt.Sprintf("Duplicate %s %q.", field, value),
	}
}

func invalidStatus(row tabular.Row, value string) *ValidationError {
	return &ValidationError{
		Role:    RoleInvoices,
		Row:     row.Number(),
		Field:   "status",
		Value:   value,
		Err:     ErrInvalidStatus,
		message: fmt.Sprintf("Invalid status %q. Must be 'Paid', 'Overdue', or 'Pending'.", value),
	}
}

func invalidDate(role Role, row tabular.Row, field, value string) *ValidationError {
	return &ValidationError{
		Role:    role,
		Row:     row.Number(),
		Field:   field,
		Value:   value,
		Err:     ErrInvalidDate,
		message: fmt.Sprintf("Invalid %s %q. Expected YYYY-MM-DD.", field, value),
	}
}

// Messages flattens an ingestion failure into the list of lines shown to the
// user. Only the first failure of a batch is ever reported.
func Messages(err error) []string {
	if err == nil {
		return nil
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return []string{validationErr.Error()}
	}

	var parseErr *tabular.ParseError
	if errors.As(err, &parseErr) {
		return []string{parseErr.Error()}
	}

	var sourceErr *SourceError
	if errors.As(err, &sourceErr) {
		return []string{sourceErr.Error()}
	}

	return []string{err.Error()}
}
