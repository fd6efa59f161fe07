// Package importer turns a legacy breeder workbook into animals, owners and
// litters. The work runs as four strictly sequential stages: Extract reads
// raw rows, Check reports data quality problems for a human to review, Map
// builds creation records, and an Ingestor writes them through the
// repositories in dependency order.
package importer

import (
	"breederbook/internal/sheet"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ExpectedSheets is the number of sheets in a well-formed workbook.
const ExpectedSheets = 7

// FamilySheetName names the optional extended pedigree sheet.
const FamilySheetName = "Family Tree Data"

// ErrSheetCount is returned by Extract when the workbook does not have the
// expected number of sheets.
var ErrSheetCount = errors.New("unexpected sheet count")

// ErrMissingSheet is returned when the workbook cursor cannot advance to a
// sheet it reported having.
var ErrMissingSheet = errors.New("sheet not reachable")

type sectionLayout struct {
	header  int
	columns int
	stride  int
	limit   int
}

var (
	animalLayout = sectionLayout{header: 5, columns: 23, stride: 1, limit: 5000}
	litterLayout = sectionLayout{header: 6, columns: 18, stride: 2, limit: 2000}
	familyLayout = sectionLayout{header: 5, columns: 3 + AncestorSlots, stride: 1, limit: 5000}
)

// Animal sheet columns.
const (
	colAnimalLitter = iota
	colAnimalName
	colAnimalPetName
	colAnimalVariety
	colAnimalSex
	colAnimalEar
	colAnimalEye
	colAnimalCoat
	colAnimalMarking
	colAnimalShading
	colAnimalColour
	colAnimalTailKink
	colAnimalOwner
	colAnimalOwnerContact
	colAnimalBirth
	colAnimalDeath
	colAnimalMother
	colAnimalFather
	colAnimalGenetics
	colAnimalMatings
	colAnimalLitterDetails
	colAnimalLife
	colAnimalAge
)

// Litter sheet columns.
const (
	colLitterID = iota
	colLitterMating
	colLitterBirth
	colLitterTime
	colLitterMales
	colLitterFemales
	colLitterUnknownSex
	colLitterTotalWithStillborn
	colLitterStillborn
	colLitterTotalWithoutStillborn
	colLitterDiedBeforeWeaning
	colLitterDiedAfterWeaning
	colLitterStillAlive
	colLitterAvgAge
	colLitterMinAge
	colLitterMaxAge
	colLitterGestation
	colLitterNotes
)

// rowReader exposes the cells of one physical row.
type rowReader struct {
	wb    sheet.Workbook
	row   int
	width int
}

func (r rowReader) cell(col int) sheet.Cell {
	if col >= r.width {
		return sheet.Empty()
	}
	return r.wb.Cell(r.row, col)
}

func (r rowReader) text(col int) string { return r.cell(col).String() }

func (r rowReader) date(col int) *time.Time {
	t, ok := r.cell(col).Time()
	if !ok {
		return nil
	}
	return &t
}

func (r rowReader) count(col int) *int {
	n, ok := r.cell(col).Int()
	if !ok {
		return nil
	}
	return &n
}

func (r rowReader) decimal(col int) *float64 {
	f, ok := r.cell(col).Float()
	if !ok {
		return nil
	}
	return &f
}

// Extract reads the animal, litter and family tree sections of wb. A wrong
// sheet count is the only fatal condition; unrecognized codes decode to
// their Unknown variants and are left for Check to report.
func Extract(wb sheet.Workbook) (RawData, error) {
	if n := wb.SheetCount(); n != ExpectedSheets {
		return RawData{}, fmt.Errorf("%w: want %d, got %d", ErrSheetCount, ExpectedSheets, n)
	}
	var raw RawData
	if !wb.NextSheet() {
		return RawData{}, fmt.Errorf("%w: animal summary", ErrMissingSheet)
	}
	raw.Animals = readSection(wb, animalLayout, decodeAnimal, AnimalRow.IsSentinel)
	if !wb.NextSheet() {
		return RawData{}, fmt.Errorf("%w: litter summary", ErrMissingSheet)
	}
	raw.Litters = readSection(wb, litterLayout, decodeLitter, LitterRow.IsSentinel)
	for wb.NextSheet() {
		if strings.EqualFold(strings.TrimSpace(wb.SheetName()), FamilySheetName) {
			raw.Family = readSection(wb, familyLayout, decodeFamily, ExtendedFamilyRow.IsSentinel)
			break
		}
	}
	return raw, nil
}

// readSection decodes rows below the header until the first sentinel row or
// the section's row limit.
func readSection[T any](wb sheet.Workbook, layout sectionLayout, decode func(rowReader) T, sentinel func(T) bool) []T {
	var out []T
	for i := 0; i < layout.limit; i++ {
		row := decode(rowReader{wb: wb, row: layout.header + i*layout.stride, width: layout.columns})
		if sentinel(row) {
			break
		}
		out = append(out, row)
	}
	return out
}

func decodeAnimal(r rowReader) AnimalRow {
	return AnimalRow{
		Row:           r.row,
		LitterID:      r.text(colAnimalLitter),
		Name:          r.text(colAnimalName),
		PetName:       r.text(colAnimalPetName),
		Variety:       r.text(colAnimalVariety),
		Sex:           ParseSex(r.text(colAnimalSex)),
		Ear:           ParseEar(r.text(colAnimalEar)),
		Eye:           ParseEye(r.text(colAnimalEye)),
		Coat:          ParseCoat(r.text(colAnimalCoat)),
		Marking:       ParseMarking(r.text(colAnimalMarking)),
		Shading:       ParseShading(r.text(colAnimalShading)),
		Colour:        ParseColour(r.text(colAnimalColour)),
		TailKink:      ParseFlag(r.text(colAnimalTailKink)),
		Owner:         r.text(colAnimalOwner),
		OwnerContact:  r.text(colAnimalOwnerContact),
		BirthDate:     r.date(colAnimalBirth),
		DeathDate:     r.date(colAnimalDeath),
		Mother:        r.text(colAnimalMother),
		Father:        r.text(colAnimalFather),
		Genetics:      r.text(colAnimalGenetics),
		MatingCount:   r.count(colAnimalMatings),
		LitterDetails: r.text(colAnimalLitterDetails),
		Life:          ParseLife(r.text(colAnimalLife)),
		Age:           r.text(colAnimalAge),
	}
}

func decodeLitter(r rowReader) LitterRow {
	return LitterRow{
		Row:                   r.row,
		ID:                    r.text(colLitterID),
		MatingDate:            r.date(colLitterMating),
		BirthDate:             r.date(colLitterBirth),
		TimeOfBirth:           r.text(colLitterTime),
		Males:                 r.count(colLitterMales),
		Females:               r.count(colLitterFemales),
		UnknownSex:            r.count(colLitterUnknownSex),
		TotalWithStillborn:    r.count(colLitterTotalWithStillborn),
		Stillborn:             r.count(colLitterStillborn),
		TotalWithoutStillborn: r.count(colLitterTotalWithoutStillborn),
		DiedBeforeWeaning:     r.count(colLitterDiedBeforeWeaning),
		DiedAfterWeaning:      r.count(colLitterDiedAfterWeaning),
		StillAlive:            r.count(colLitterStillAlive),
		AverageAgeMonths:      r.decimal(colLitterAvgAge),
		MinAgeMonths:          r.decimal(colLitterMinAge),
		MaxAgeMonths:          r.decimal(colLitterMaxAge),
		GestationDays:         r.count(colLitterGestation),
		Notes:                 r.text(colLitterNotes),
	}
}

func decodeFamily(r rowReader) ExtendedFamilyRow {
	row := ExtendedFamilyRow{
		Row:      r.row,
		LitterID: r.text(0),
		Name:     r.text(1),
		PetName:  r.text(2),
	}
	for i := range row.Ancestors {
		row.Ancestors[i] = r.text(3 + i)
	}
	return row
}
