// Package tabular turns uploaded spreadsheets into ordered, loosely typed rows
// keyed by normalized header names.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"debtors/internal/logger"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFile opens path and parses it according to its extension.
func ParseFile(path string) ([]Row, error) {
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, newParseError(name, 0, err)
	}
	defer f.Close()

	return Parse(name, f)
}

// Parse reads a CSV or XLSX document. name is used for format detection and in
// error messages.
func Parse(name string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return parseWorkbook(name, r)
	case ".xls", ".ods", ".numbers":
		return nil, newParseError(name, 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name)))
	default:
		return parseCSV(name, r)
	}
}

// FromValues builds rows from an already-read grid whose first row is the
// header, such as a Google Sheets value range.
func FromValues(name string, values [][]interface{}) ([]Row, error) {
	records := make([][]string, len(values))
	lines := make([]int, len(values))
	for i, row := range values {
		record := make([]string, len(row))
		for j := range row {
			record[j] = getString(row, j)
		}
		records[i] = record
		lines[i] = i + 1
	}
	return buildRows(name, records, lines, false)
}

func parseCSV(name string, r io.Reader) ([]Row, error) {
	log := logger.WithComponent("tabular")

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newParseError(name, 0, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		log.Debug().Str("file", name).Msg("Input is not valid UTF-8, decoding as Windows-1252")
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1

	var (
		records [][]string
		lines   []int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, newParseError(name, csvErr.Line, csvErr.Err)
			}
			return nil, newParseError(name, 0, err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}

	return buildRows(name, records, lines, true)
}

func parseWorkbook(name string, r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, newParseError(name, 0, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, newParseError(name, 0, ErrEmptyFile)
	}

	// Raw values keep amounts numeric regardless of display format.
	grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, newParseError(name, 0, fmt.Errorf("sheet %q: %w", sheet, err))
	}
	formatDateCells(f, sheet, grid)

	lines := make([]int, len(grid))
	for i := range grid {
		lines[i] = i + 1
	}
	return buildRows(name, grid, lines, false)
}

// formatDateCells rewrites date-styled serial numbers in grid as ISO dates.
func formatDateCells(f *excelize.File, sheet string, grid [][]string) {
	dateStyles := make(map[int]bool)
	for r, record := range grid {
		for c, value := range record {
			serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil || styleID == 0 {
				continue
			}
			isDate, seen := dateStyles[styleID]
			if !seen {
				isDate = isDateStyle(f, styleID)
				dateStyles[styleID] = isDate
			}
			if !isDate {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				continue
			}
			record[c] = t.Format("2006-01-02")
		}
	}
}

var numFmtLiteral = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// isDateStyle reports whether the style formats numbers as calendar dates:
// built-in formats 14-22 and 45-47, or a custom format with day or year
// tokens.
func isDateStyle(f *excelize.File, styleID int) bool {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		code := strings.ToLower(numFmtLiteral.ReplaceAllString(*style.CustomNumFmt, ""))
		return strings.ContainsAny(code, "yd")
	}
	return (style.NumFmt >= 14 && style.NumFmt <= 22) || (style.NumFmt >= 45 && style.NumFmt <= 47)
}

// buildRows turns header plus records into rows. With strict set, data rows
// must have exactly as many cells as the header; otherwise short rows are
// padded and surplus cells dropped, which is how spreadsheet exports behave.
func buildRows(name string, records [][]string, lines []int, strict bool) ([]Row, error) {
	headerAt := -1
	for i, record := range records {
		if !isBlank(record) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, newParseError(name, 0, ErrEmptyFile)
	}

	header := make([]string, len(records[headerAt]))
	for i, label := range records[headerAt] {
		header[i] = NormalizeHeader(label)
	}

	var rows []Row
	for i := headerAt + 1; i < len(records); i++ {
		record := records[i]
		if isBlank(record) {
			continue
		}
		if strict && len(record) != len(header) {
			return nil, newParseError(name, lines[i], fmt.Errorf("%w: expected %d, got %d", ErrFieldCount, len(header), len(record)))
		}

		cells := make(map[string]Cell, len(header))
		for j, field := range header {
			if field == "" {
				continue
			}
			var raw string
			if j < len(record) {
				raw = record[j]
			}
			cells[field] = coerce(raw)
		}

		rows = append(rows, Row{Index: len(rows), Line: lines[i], cells: cells})
	}

	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// getString safely extracts a string value from a row slice. Numbers are
// written out in full so large identifiers never turn into exponents.
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	switch v := row[index].(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
