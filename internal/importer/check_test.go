package importer

import (
	"breederbook/internal/sheet"
	"reflect"
	"strings"
	"testing"
	"time"
)

func extract(t *testing.T, b *workbookBuilder) RawData {
	t.Helper()
	raw, err := Extract(b.build())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return raw
}

func countContaining(warnings []string, substr string) int {
	n := 0
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			n++
		}
	}
	return n
}

func TestCheckCleanPair(t *testing.T) {
	raw := extract(t, newWorkbook().animal(rat("L1", "Alice", "F")).litter(litterRow("L1", 1)))
	rep := Check(raw)
	if len(rep.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", rep.Warnings)
	}
	want := Counts{Litters: 1, Animals: 1}
	if rep.Counts != want {
		t.Fatalf("expected %+v, got %+v", want, rep.Counts)
	}
}

func TestCheckOrphanLitterReference(t *testing.T) {
	raw := extract(t, newWorkbook().
		animal(rat("L1", "Alice", "F")).
		animal(rat("L9", "Stray", "M")).
		litter(litterRow("L1", 1)))
	rep := Check(raw)
	if got := countContaining(rep.Warnings, "no litter with that ID"); got != 1 {
		t.Fatalf("expected one orphan warning, got %d in %v", got, rep.Warnings)
	}
	if rep.Counts.InferredLitters != 1 || rep.Counts.Litters != 2 {
		t.Fatalf("unexpected litter counts %+v", rep.Counts)
	}
}

func TestCheckUnresolvedParent(t *testing.T) {
	raw := extract(t, newWorkbook().
		animal(with(rat("L1", "Alice", "F"), colAnimalMother, sheet.Text("Unknown Rat"))).
		animal(with(rat("L1", "Bob", "M"), colAnimalFather, sheet.Text("alice"))).
		litter(litterRow("L1", 2)))
	rep := Check(raw)
	if got := countContaining(rep.Warnings, "matches no animal"); got != 1 {
		t.Fatalf("expected one unresolved parent warning, got %v", rep.Warnings)
	}
	if rep.Counts.InferredAnimals != 1 || rep.Counts.Animals != 3 {
		t.Fatalf("unexpected animal counts %+v", rep.Counts)
	}
}

func TestCheckParentResolvedThroughFamilyTree(t *testing.T) {
	b := newWorkbook().
		animal(with(rat("L1", "Alice", "F"), colAnimalMother, sheet.Text("Granny"))).
		litter(litterRow("L1", 1))
	b.familyRow("L1", "Alice", "", "Granny")
	rep := Check(extract(t, b))
	if countContaining(rep.Warnings, "matches no animal") != 0 {
		t.Fatalf("expected family tree name to resolve parent, got %v", rep.Warnings)
	}
	if rep.Counts.Animals != 2 {
		t.Fatalf("expected family rows counted, got %+v", rep.Counts)
	}
}

func TestCheckSharedDeathDate(t *testing.T) {
	b := newWorkbook()
	for _, name := range []string{"A", "B", "C"} {
		b.animal(with(rat("L1", name, "F"), colAnimalDeath, sheet.Date(day(2020, 1, 1))))
	}
	b.litter(litterRow("L1", 3))
	rep := Check(extract(t, b))
	if len(rep.Warnings) != 1 {
		t.Fatalf("expected a single warning, got %v", rep.Warnings)
	}
	w := rep.Warnings[0]
	if !strings.Contains(w, "shared by 3 rats") || !strings.Contains(w, "2020-01-01") {
		t.Fatalf("expected multiple-rats variant, got %q", w)
	}
}

func TestCheckSingleDeathDateMayBeWrong(t *testing.T) {
	raw := RawData{Animals: []AnimalRow{{Name: "A", DeathDate: ptr(day(2021, 5, 5))}, {Name: "B"}}}
	rep := Check(raw)
	if countContaining(rep.Warnings, "may be wrong") != 1 {
		t.Fatalf("expected single-rat variant, got %v", rep.Warnings)
	}
	tied := RawData{Animals: []AnimalRow{{Name: "A", DeathDate: ptr(day(2021, 5, 5))}, {Name: "B", DeathDate: ptr(day(2021, 6, 6))}}}
	if countContaining(Check(tied).Warnings, "date of death") != 0 {
		t.Fatalf("expected no warning without a single most common date")
	}
}

func TestCheckLitterSizes(t *testing.T) {
	raw := extract(t, newWorkbook().
		animal(rat("L1", "A", "F")).
		animal(rat("L1", "B", "M")).
		litter(litterRow("L1", 5)).
		litter(litterRow("L2", 3)))
	rep := Check(raw)
	if countContaining(rep.Warnings, `litter "L1" declares 5 pups`) != 1 {
		t.Fatalf("expected size mismatch for L1, got %v", rep.Warnings)
	}
	if countContaining(rep.Warnings, `litter "L2" is on the litter sheet but no animals`) != 1 {
		t.Fatalf("expected empty litter warning for L2, got %v", rep.Warnings)
	}
	if countContaining(rep.Warnings, "reference 1 distinct litters but the litter sheet lists 2") != 1 {
		t.Fatalf("expected litter count mismatch, got %v", rep.Warnings)
	}
}

func TestCheckDeclaredTotalWithoutStillbornAccepted(t *testing.T) {
	cells := litterRow("L1", 3)
	cells[colLitterTotalWithoutStillborn] = sheet.Number(1)
	raw := extract(t, newWorkbook().animal(rat("L1", "A", "F")).litter(cells))
	if w := Check(raw).Warnings; len(w) != 0 {
		t.Fatalf("expected total without stillborn to satisfy the check, got %v", w)
	}
}

func TestCheckNamesAndFamilyRows(t *testing.T) {
	b := newWorkbook().
		animal(map[int]sheet.Cell{colAnimalVariety: sheet.Text("Fancy")}).
		animal(map[int]sheet.Cell{colAnimalPetName: sheet.Text("Bun")})
	b.familyRow("L1", "", "Pip").familyRow("L1", "", "")
	rep := Check(extract(t, b))

	for _, want := range []string{
		"found 2 rows of extended family data",
		`only the pet name "Pip"`,
		"has no name and cannot be matched",
		"1 animals have no name (rows 6)",
		`animal on row 7 has only the pet name "Bun"`,
	} {
		if countContaining(rep.Warnings, want) != 1 {
			t.Fatalf("expected warning containing %q, got %v", want, rep.Warnings)
		}
	}
}

func TestCheckCountsExternalOwners(t *testing.T) {
	raw := extract(t, newWorkbook().
		animal(with(rat("", "A", "F"), colAnimalOwner, sheet.Text("Jo Smith"))).
		animal(with(rat("", "B", "F"), colAnimalOwner, sheet.Text("JO SMITH"))).
		animal(with(rat("", "C", "F"), colAnimalOwner, sheet.Text("Me"))).
		animal(with(rat("", "D", "F"), colAnimalOwner, sheet.Text("Kim"))))
	if got := (Checker{SelfOwner: "me"}).Check(raw).Counts.Owners; got != 2 {
		t.Fatalf("expected 2 external owners, got %d", got)
	}
}

func TestCheckIsPure(t *testing.T) {
	b := newWorkbook().
		animal(with(rat("L9", "A", "F"), colAnimalMother, sheet.Text("Ghost"))).
		animal(with(rat("L1", "B", "F"), colAnimalDeath, sheet.Date(time.Date(2019, 2, 2, 0, 0, 0, 0, time.UTC)))).
		litter(litterRow("L1", 4))
	raw := extract(t, b)
	first := Check(raw)
	second := Check(raw)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical reports:\n%+v\n%+v", first, second)
	}
	if raw.Animals[0].Mother != "Ghost" {
		t.Fatalf("input mutated")
	}
}

func TestCheckFlagsParentsInsideTheirOwnLitter(t *testing.T) {
	bella := with(rat("L1", "Bella", "F"), colAnimalMother, sheet.Text("Bella"))
	bella[colAnimalFather] = sheet.Text("Pip")
	kit := with(rat("L2", "Kit", "M"), colAnimalMother, sheet.Text("Hazel"))
	kit[colAnimalFather] = sheet.Text("Hazel")
	raw := extract(t, newWorkbook().
		animal(bella).
		animal(rat("L1", "Pip", "M")).
		animal(rat("", "Hazel", "F")).
		animal(kit).
		litter(litterRow("L1", 2)).
		litter(litterRow("L2", 1)))
	rep := Check(raw)
	if got := countContaining(rep.Warnings, "belongs to the litter"); got != 2 {
		t.Fatalf("expected mother and father warnings for L1, got %v", rep.Warnings)
	}
	if got := countContaining(rep.Warnings, "as both mother and father"); got != 1 {
		t.Fatalf("expected one shared parent warning for L2, got %v", rep.Warnings)
	}
	if countContaining(rep.Warnings, "matches no animal") != 0 {
		t.Fatalf("resolvable names must not count as inferred, got %v", rep.Warnings)
	}
}

func TestCheckDuplicateLitterRows(t *testing.T) {
	raw := extract(t, newWorkbook().
		animal(rat("L1", "Alice", "F")).
		animal(rat("L2", "Bob", "M")).
		litter(litterRow("L1", 1)).
		litter(litterRow("L2", 1)).
		litter(litterRow("L1", 1)))
	rep := Check(raw)
	if got := countContaining(rep.Warnings, `litter "L1" appears 2 times`); got != 1 {
		t.Fatalf("expected one duplicate warning, got %v", rep.Warnings)
	}
	set := Map(raw, MapOptions{})
	if rep.Counts.Litters != 2 || rep.Counts.Litters != len(set.Litters) {
		t.Fatalf("checker counted %d litters, mapper built %d", rep.Counts.Litters, len(set.Litters))
	}
}
