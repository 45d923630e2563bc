package tabular

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind is the coerced type of a cell.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindBool
)

// Cell is a single untrusted value. The trimmed source text is always kept so
// identifiers such as "007" survive numeric coercion.
type Cell struct {
	Raw  string
	Kind Kind

	// Source is the cell exactly as read, surrounding whitespace included.
	Source string

	num  float64
	flag bool
}

func coerce(raw string) Cell {
	text := strings.TrimSpace(raw)
	cell := Cell{Raw: text, Kind: KindText, Source: raw}
	if text == "" {
		return cell
	}

	switch strings.ToLower(text) {
	case "true":
		cell.Kind, cell.flag = KindBool, true
		return cell
	case "false":
		cell.Kind = KindBool
		return cell
	}

	if n, err := strconv.ParseFloat(text, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		cell.Kind, cell.num = KindNumber, n
	}
	return cell
}

// Row is one non-empty data line keyed by normalized header names. It is the
// only shape parsed data takes before domain mapping.
type Row struct {
	// Index is the 0-based position among non-empty data rows.
	Index int

	// Line is the source line (CSV) or sheet row (spreadsheets) the row came from.
	Line int

	cells map[string]Cell
}

// Number returns the user-facing row number: header plus 1-based indexing.
func (r Row) Number() int {
	return r.Index + 2
}

// Text returns the trimmed text of a field, or "" when absent.
func (r Row) Text(field string) string {
	return r.cells[field].Raw
}

// Exact returns a field as read, without trimming. Enumerated values that must
// match exactly are checked against it.
func (r Row) Exact(field string) string {
	return r.cells[field].Source
}

// Has reports whether a field is present and non-blank.
func (r Row) Has(field string) bool {
	return r.cells[field].Raw != ""
}

// Float returns the numeric value of a field and whether it was numeric.
func (r Row) Float(field string) (float64, bool) {
	c, ok := r.cells[field]
	if !ok || c.Kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// Bool returns the boolean value of a field and whether it was boolean.
func (r Row) Bool(field string) (bool, bool) {
	c, ok := r.cells[field]
	if !ok || c.Kind != KindBool {
		return false, false
	}
	return c.flag, true
}

// Cell returns the raw cell for a field.
func (r Row) Cell(field string) (Cell, bool) {
	c, ok := r.cells[field]
	return c, ok
}

// Keys returns the field names of the row in sorted order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r.cells))
	for k := range r.cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewRow builds a row from field values. It is mainly useful in tests and for
// sources that already deliver keyed records.
func NewRow(index int, values map[string]string) Row {
	cells := make(map[string]Cell, len(values))
	for k, v := range values {
		cells[NormalizeHeader(k)] = coerce(v)
	}
	return Row{Index: index, Line: index + 2, cells: cells}
}
