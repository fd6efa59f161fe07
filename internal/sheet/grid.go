package sheet

// Grid is an in-memory Workbook. It is used by tests and by callers that
// already hold tabular data.
type Grid struct {
	names  []string
	sheets [][][]Cell
	cur    int
}

// NewGrid returns an empty grid workbook.
func NewGrid() *Grid { return &Grid{} }

// AddSheet appends a sheet and returns its index.
func (g *Grid) AddSheet(name string) int {
	g.names = append(g.names, name)
	g.sheets = append(g.sheets, nil)
	return len(g.sheets) - 1
}

// Set stores a value on sheet idx, growing the sheet as needed.
func (g *Grid) Set(idx, row, col int, c Cell) {
	rows := g.sheets[idx]
	for len(rows) <= row {
		rows = append(rows, nil)
	}
	cells := rows[row]
	for len(cells) <= col {
		cells = append(cells, Cell{})
	}
	cells[col] = c
	rows[row] = cells
	g.sheets[idx] = rows
}

// SetRow stores cells starting at column zero.
func (g *Grid) SetRow(idx, row int, cells ...Cell) {
	for col, c := range cells {
		g.Set(idx, row, col, c)
	}
}

// Rewind positions the cursor back on the first sheet.
func (g *Grid) Rewind() { g.cur = 0 }

// SheetCount implements Workbook.
func (g *Grid) SheetCount() int { return len(g.sheets) }

// SheetName implements Workbook.
func (g *Grid) SheetName() string {
	if g.cur >= len(g.names) {
		return ""
	}
	return g.names[g.cur]
}

// NextSheet implements Workbook.
func (g *Grid) NextSheet() bool {
	if g.cur+1 >= len(g.sheets) {
		return false
	}
	g.cur++
	return true
}

// Cell implements Workbook.
func (g *Grid) Cell(row, col int) Cell {
	if g.cur >= len(g.sheets) || row < 0 || col < 0 {
		return Cell{}
	}
	rows := g.sheets[g.cur]
	if row >= len(rows) || col >= len(rows[row]) {
		return Cell{}
	}
	return rows[row][col]
}
