package importer

import (
	"breederbook/internal/sheet"
	"time"
)

// workbookBuilder lays rows out the way the legacy workbook does.
type workbookBuilder struct {
	grid    *sheet.Grid
	animals int
	litters int
	family  int
}

const (
	sheetAnimals = 1
	sheetLitters = 2
	sheetFamily  = 3
)

func newWorkbook() *workbookBuilder {
	g := sheet.NewGrid()
	for _, name := range []string{"Cover", "Rats", "Litters", FamilySheetName, "Stats", "Lists", "Notes"} {
		g.AddSheet(name)
	}
	g.Set(sheetAnimals, 0, 0, sheet.Text("Rat summary"))
	g.Set(sheetLitters, 0, 0, sheet.Text("Litter summary"))
	return &workbookBuilder{grid: g}
}

func (b *workbookBuilder) animal(cells map[int]sheet.Cell) *workbookBuilder {
	row := animalLayout.header + b.animals
	for col, c := range cells {
		b.grid.Set(sheetAnimals, row, col, c)
	}
	b.animals++
	return b
}

func (b *workbookBuilder) litter(cells map[int]sheet.Cell) *workbookBuilder {
	row := litterLayout.header + b.litters*litterLayout.stride
	for col, c := range cells {
		b.grid.Set(sheetLitters, row, col, c)
	}
	// second physical row of a litter carries continuation text
	b.grid.Set(sheetLitters, row+1, colLitterID, sheet.Text("continued"))
	b.litters++
	return b
}

func (b *workbookBuilder) familyRow(litter, name, pet string, ancestors ...string) *workbookBuilder {
	row := familyLayout.header + b.family
	b.grid.Set(sheetFamily, row, 0, sheet.Text(litter))
	b.grid.Set(sheetFamily, row, 1, sheet.Text(name))
	b.grid.Set(sheetFamily, row, 2, sheet.Text(pet))
	for i, a := range ancestors {
		b.grid.Set(sheetFamily, row, 3+i, sheet.Text(a))
	}
	b.family++
	return b
}

func (b *workbookBuilder) build() *sheet.Grid {
	b.grid.Rewind()
	return b.grid
}

func rat(litter, name, sex string) map[int]sheet.Cell {
	return map[int]sheet.Cell{
		colAnimalLitter:  sheet.Text(litter),
		colAnimalName:    sheet.Text(name),
		colAnimalVariety: sheet.Text("Fancy"),
		colAnimalSex:     sheet.Text(sex),
	}
}

func with(cells map[int]sheet.Cell, col int, c sheet.Cell) map[int]sheet.Cell {
	cells[col] = c
	return cells
}

func litterRow(id string, total int) map[int]sheet.Cell {
	return map[int]sheet.Cell{
		colLitterID:                    sheet.Text(id),
		colLitterTotalWithStillborn:    sheet.Number(float64(total)),
		colLitterTotalWithoutStillborn: sheet.Number(float64(total)),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
