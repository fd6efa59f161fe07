package importer

import (
	"breederbook/pkg/domain"
	"strings"
	"time"
)

// AnimalRow is one row of the animal summary sheet.
type AnimalRow struct {
	Row           int // physical row on the sheet, zero based
	LitterID      string
	Name          string
	PetName       string
	Variety       string
	Sex           domain.Sex
	Ear           Ear
	Eye           Eye
	Coat          Coat
	Marking       Marking
	Shading       Shading
	Colour        Colour
	TailKink      Flag
	Owner         string
	OwnerContact  string
	BirthDate     *time.Time
	DeathDate     *time.Time
	Mother        string
	Father        string
	Genetics      string
	MatingCount   *int
	LitterDetails string
	Life          Life
	Age           string
}

// IsSentinel reports whether the row marks the end of the animal section:
// litter id, both names and variety are all absent.
func (r AnimalRow) IsSentinel() bool {
	return r.LitterID == "" && r.Name == "" && r.PetName == "" && r.Variety == ""
}

// DisplayName is the formal name, falling back to the pet name.
func (r AnimalRow) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.PetName
}

// HasName reports whether the row carries either name.
func (r AnimalRow) HasName() bool { return r.Name != "" || r.PetName != "" }

// Answers reports whether name matches either of the row's names,
// case-insensitively and otherwise exactly.
func (r AnimalRow) Answers(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return strings.EqualFold(r.Name, name) || strings.EqualFold(r.PetName, name)
}

// LitterRow is one logical row of the litter summary sheet.
type LitterRow struct {
	Row                   int
	ID                    string
	MatingDate            *time.Time
	BirthDate             *time.Time
	TimeOfBirth           string
	Males                 *int
	Females               *int
	UnknownSex            *int
	TotalWithStillborn    *int
	Stillborn             *int
	TotalWithoutStillborn *int
	DiedBeforeWeaning     *int
	DiedAfterWeaning      *int
	StillAlive            *int
	AverageAgeMonths      *float64
	MinAgeMonths          *float64
	MaxAgeMonths          *float64
	GestationDays         *int
	Notes                 string
}

// IsSentinel reports whether the row marks the end of the litter section.
func (r LitterRow) IsSentinel() bool { return r.ID == "" }

// AncestorSlots is the number of named ancestors recorded per family tree
// row: five generations of dams and sires.
const AncestorSlots = 2 + 4 + 8 + 16 + 32

// ExtendedFamilyRow is one row of the "Family Tree Data" sheet.
type ExtendedFamilyRow struct {
	Row       int
	LitterID  string
	Name      string
	PetName   string
	Ancestors [AncestorSlots]string
}

// IsSentinel reports whether the row's identifying fields are all absent.
func (r ExtendedFamilyRow) IsSentinel() bool {
	return r.LitterID == "" && r.Name == "" && r.PetName == ""
}

// ancestorSlotName names ancestor slot i, for example "dam's sire" for
// slot 3. Slots run generation by generation, dams before sires.
func ancestorSlotName(i int) string {
	if i < 0 || i >= AncestorSlots {
		return ""
	}
	gen, start := 1, 0
	for i >= start+(1<<gen) {
		start += 1 << gen
		gen++
	}
	pos := i - start
	parts := make([]string, gen)
	for k := gen - 1; k >= 0; k-- {
		if pos&1 == 0 {
			parts[k] = "dam"
		} else {
			parts[k] = "sire"
		}
		pos >>= 1
	}
	return strings.Join(parts, "'s ")
}

// RawData is everything the extractor reads from one workbook.
type RawData struct {
	Animals []AnimalRow
	Litters []LitterRow
	Family  []ExtendedFamilyRow
}
