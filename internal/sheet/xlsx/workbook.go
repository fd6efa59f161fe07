// Package xlsx implements sheet.Workbook over Office Open XML spreadsheets
// using excelize.
package xlsx

import (
	"breederbook/internal/sheet"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var _ sheet.Workbook = (*Workbook)(nil)

// Workbook is a forward-only sheet cursor over an xlsx document. Sheet
// contents are loaded lazily the first time a cell on them is read.
type Workbook struct {
	file   *excelize.File
	names  []string
	cur    int
	raw    [][]string
	format [][]string
	loaded int
	err    error
}

// Open reads an xlsx document from r.
func Open(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	return &Workbook{file: f, names: f.GetSheetList(), loaded: -1}, nil
}

// Close releases resources held by the underlying document.
func (w *Workbook) Close() error { return w.file.Close() }

// Err returns the first error encountered while loading sheet contents.
// Cells on a sheet that failed to load read as empty.
func (w *Workbook) Err() error { return w.err }

// SheetCount implements sheet.Workbook.
func (w *Workbook) SheetCount() int { return len(w.names) }

// SheetName implements sheet.Workbook.
func (w *Workbook) SheetName() string {
	if w.cur >= len(w.names) {
		return ""
	}
	return w.names[w.cur]
}

// NextSheet implements sheet.Workbook.
func (w *Workbook) NextSheet() bool {
	if w.cur+1 >= len(w.names) {
		return false
	}
	w.cur++
	return true
}

func (w *Workbook) load() {
	if w.loaded == w.cur {
		return
	}
	w.loaded = w.cur
	w.raw, w.format = nil, nil
	if w.cur >= len(w.names) {
		return
	}
	name := w.names[w.cur]
	raw, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		if w.err == nil {
			w.err = fmt.Errorf("read sheet %q: %w", name, err)
		}
		return
	}
	formatted, err := w.file.GetRows(name)
	if err != nil {
		if w.err == nil {
			w.err = fmt.Errorf("read sheet %q: %w", name, err)
		}
		return
	}
	w.raw, w.format = raw, formatted
}

// Cell implements sheet.Workbook. Numeric cells whose displayed value is not
// itself a number are treated as date serials. A time of day with no date
// part keeps its displayed text, for example "14:30".
func (w *Workbook) Cell(row, col int) sheet.Cell {
	w.load()
	raw := lookup(w.raw, row, col)
	if strings.TrimSpace(raw) == "" {
		return sheet.Empty()
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return sheet.Text(raw)
	}
	shown := strings.TrimSpace(lookup(w.format, row, col))
	if _, perr := strconv.ParseFloat(strings.ReplaceAll(shown, ",", ""), 64); perr != nil && looksLikeDate(shown) {
		if num >= 0 && num < 1 && strings.Contains(shown, ":") {
			return sheet.Text(shown)
		}
		if t, derr := excelize.ExcelDateToTime(num, false); derr == nil {
			return sheet.Date(t)
		}
	}
	return sheet.Number(num)
}

func looksLikeDate(s string) bool {
	return strings.ContainsAny(s, "/-.:") || strings.ContainsAny(strings.ToLower(s), "abcdefghijklmnopqrstuvwxyz")
}

func lookup(rows [][]string, row, col int) string {
	if row < 0 || col < 0 || row >= len(rows) || col >= len(rows[row]) {
		return ""
	}
	return rows[row][col]
}
