package importer

import (
	"breederbook/internal/sheet"
	"breederbook/pkg/domain"
	"errors"
	"testing"
)

func TestExtractRejectsWrongSheetCount(t *testing.T) {
	g := sheet.NewGrid()
	for i := 0; i < 6; i++ {
		g.AddSheet("s")
	}
	raw, err := Extract(g)
	if !errors.Is(err, ErrSheetCount) {
		t.Fatalf("expected sheet count error, got %v", err)
	}
	if len(raw.Animals) != 0 || len(raw.Litters) != 0 {
		t.Fatalf("expected nothing extracted, got %+v", raw)
	}
}

func TestExtractStopsAtSentinel(t *testing.T) {
	b := newWorkbook().
		animal(rat("L1", "Alice", "F")).
		animal(map[int]sheet.Cell{colAnimalPetName: sheet.Text("Bun")}).
		animal(map[int]sheet.Cell{}).
		animal(rat("L1", "Hidden", "M"))
	b.litter(litterRow("L1", 2)).litter(map[int]sheet.Cell{colLitterTime: sheet.Text("night")}).litter(litterRow("L2", 1))

	raw, err := Extract(b.build())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(raw.Animals) != 2 {
		t.Fatalf("expected 2 animals before sentinel, got %d", len(raw.Animals))
	}
	if raw.Animals[1].PetName != "Bun" || raw.Animals[1].Name != "" {
		t.Fatalf("unexpected pet-name-only row %+v", raw.Animals[1])
	}
	if len(raw.Litters) != 1 || raw.Litters[0].ID != "L1" {
		t.Fatalf("expected one litter before sentinel, got %+v", raw.Litters)
	}
	if raw.Litters[0].TotalWithStillborn == nil || *raw.Litters[0].TotalWithStillborn != 2 {
		t.Fatalf("expected declared total 2, got %+v", raw.Litters[0])
	}
}

func TestExtractHonoursRowLimit(t *testing.T) {
	g := sheet.NewGrid()
	g.AddSheet("only")
	for i := 0; i < 10; i++ {
		g.Set(0, 1+i, 0, sheet.Text("L"))
	}
	rows := readSection(g, sectionLayout{header: 1, columns: 1, stride: 1, limit: 4}, func(r rowReader) LitterRow {
		return LitterRow{ID: r.text(0)}
	}, LitterRow.IsSentinel)
	if len(rows) != 4 {
		t.Fatalf("expected row limit of 4, got %d", len(rows))
	}
}

func TestExtractDecodesCodesLeniently(t *testing.T) {
	cells := rat("L1", "Alice", " f ")
	cells[colAnimalEar] = sheet.Text("D")
	cells[colAnimalEye] = sheet.Text("zz")
	cells[colAnimalCoat] = sheet.Text("SA")
	cells[colAnimalMarking] = sheet.Text("bz")
	cells[colAnimalTailKink] = sheet.Text("y")
	cells[colAnimalLife] = sheet.Text("D")
	cells[colAnimalBirth] = sheet.Date(day(2022, 3, 4))
	cells[colAnimalDeath] = sheet.Text("05/06/2023")
	cells[colAnimalMatings] = sheet.Number(2)
	b := newWorkbook().animal(cells)
	b.animal(with(rat("L1", "Bob", "X"), colAnimalColour, sheet.Text("BL")))

	raw, err := Extract(b.build())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	a := raw.Animals[0]
	if a.Sex != domain.SexFemale || a.Ear != EarDumbo || a.Eye != EyeUnknown || a.Coat != CoatSatin || a.Marking != MarkingBlazed {
		t.Fatalf("unexpected decoded traits %+v", a)
	}
	if a.TailKink != FlagYes || a.Life != LifeDead {
		t.Fatalf("unexpected flags %+v", a)
	}
	if a.BirthDate == nil || !a.BirthDate.Equal(day(2022, 3, 4)) {
		t.Fatalf("unexpected birth date %v", a.BirthDate)
	}
	if a.DeathDate == nil || !a.DeathDate.Equal(day(2023, 6, 5)) {
		t.Fatalf("expected day-first death date, got %v", a.DeathDate)
	}
	if a.MatingCount == nil || *a.MatingCount != 2 {
		t.Fatalf("unexpected mating count %v", a.MatingCount)
	}
	if raw.Animals[1].Sex != domain.SexUnknown || raw.Animals[1].Colour != ColourUnknown {
		t.Fatalf("expected unknown fallbacks, got %+v", raw.Animals[1])
	}
}

func TestExtractReadsFamilyTreeSheet(t *testing.T) {
	b := newWorkbook().animal(rat("L1", "Alice", "F"))
	b.familyRow("L1", "Alice", "", "Mum", "Dad", "Granny")
	b.familyRow("", "", "Pip")

	raw, err := Extract(b.build())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(raw.Family) != 2 {
		t.Fatalf("expected 2 family rows, got %d", len(raw.Family))
	}
	if raw.Family[0].Ancestors[0] != "Mum" || raw.Family[0].Ancestors[2] != "Granny" {
		t.Fatalf("unexpected ancestors %v", raw.Family[0].Ancestors[:3])
	}
}

func TestAncestorSlotNames(t *testing.T) {
	cases := map[int]string{
		0:  "dam",
		1:  "sire",
		2:  "dam's dam",
		3:  "dam's sire",
		4:  "sire's dam",
		5:  "sire's sire",
		6:  "dam's dam's dam",
		61: "sire's sire's sire's sire's sire",
		62: "",
	}
	for slot, want := range cases {
		if got := ancestorSlotName(slot); got != want {
			t.Fatalf("slot %d: want %q got %q", slot, want, got)
		}
	}
}

func TestSentinelPredicates(t *testing.T) {
	if !(AnimalRow{}).IsSentinel() || (AnimalRow{Variety: "Fancy"}).IsSentinel() {
		t.Fatalf("animal sentinel predicate wrong")
	}
	if !(LitterRow{TimeOfBirth: "am"}).IsSentinel() || (LitterRow{ID: "L1"}).IsSentinel() {
		t.Fatalf("litter sentinel predicate wrong")
	}
	if !(ExtendedFamilyRow{}).IsSentinel() || (ExtendedFamilyRow{PetName: "x"}).IsSentinel() {
		t.Fatalf("family sentinel predicate wrong")
	}
}
