// Package sheet defines the cell-reading primitive the importer consumes: a
// workbook positioned on one sheet at a time that yields typed cell values
// by zero-based row and column index.
package sheet

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Workbook is a forward-only cursor over the sheets of a spreadsheet
// document. A freshly opened workbook is positioned on its first sheet.
type Workbook interface {
	// SheetCount reports the number of sheets in the document.
	SheetCount() int
	// SheetName returns the name of the current sheet.
	SheetName() string
	// NextSheet advances to the following sheet, returning false when
	// there are no more sheets.
	NextSheet() bool
	// Cell returns the value at row, col on the current sheet. Cells
	// outside the used range are empty.
	Cell(row, col int) Cell
}

// Kind discriminates the type of a cell value.
type Kind int

// Supported cell kinds.
const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindDate
)

// Cell is a typed spreadsheet value.
type Cell struct {
	kind Kind
	text string
	num  float64
	date time.Time
}

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// Text returns a text cell. Whitespace-only text is treated as empty.
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{kind: KindText, text: s}
}

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{kind: KindNumber, num: f} }

// Date returns a date cell.
func Date(t time.Time) Cell { return Cell{kind: KindDate, date: t} }

// Kind reports the cell's value kind.
func (c Cell) Kind() Kind { return c.kind }

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.kind == KindEmpty }

// String renders the cell as trimmed text. Numbers are rendered without a
// trailing fraction when integral; dates use ISO format.
func (c Cell) String() string {
	switch c.kind {
	case KindText:
		return strings.TrimSpace(c.text)
	case KindNumber:
		if c.num == math.Trunc(c.num) && math.Abs(c.num) < 1e15 {
			return strconv.FormatInt(int64(c.num), 10)
		}
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindDate:
		return c.date.Format("2006-01-02")
	}
	return ""
}

// Float returns the numeric value of the cell. Text cells holding a number
// are parsed; anything else reports false.
func (c Cell) Float() (float64, bool) {
	switch c.kind {
	case KindNumber:
		return c.num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.text), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Int returns the value rounded to the nearest integer.
func (c Cell) Int() (int, bool) {
	f, ok := c.Float()
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

var textDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02/01/06",
}

// Time returns the cell as a date. Text cells are parsed with day-first
// layouts, matching the locale legacy spreadsheets were kept in.
func (c Cell) Time() (time.Time, bool) {
	switch c.kind {
	case KindDate:
		return c.date, true
	case KindText:
		s := strings.TrimSpace(c.text)
		for _, layout := range textDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
