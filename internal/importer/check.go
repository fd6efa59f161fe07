package importer

import (
	"fmt"
	"sort"
	"strings"
)

// Counts summarizes how many entities an import will effectively create,
// including the ones only implied by dangling references.
type Counts struct {
	Litters         int `json:"litters"`
	Animals         int `json:"animals"`
	Owners          int `json:"owners"`
	InferredLitters int `json:"inferred_litters"`
	InferredAnimals int `json:"inferred_animals"`
}

// Report is the advisory outcome of a consistency check.
type Report struct {
	Warnings []string `json:"warnings"`
	Counts   Counts   `json:"counts"`
}

// Checker inspects raw rows for problems a human should review before
// importing. SelfOwner excludes the importing breeder from the owner count.
type Checker struct {
	SelfOwner string
}

// Check runs a Checker with no self owner configured.
func Check(raw RawData) Report { return Checker{}.Check(raw) }

// Check never mutates raw and never fails. Identical input yields identical
// warnings in identical order.
func (c Checker) Check(raw RawData) Report {
	var rep Report
	warn := func(format string, args ...any) {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf(format, args...))
	}

	checkDeathDates(raw, warn)
	checkFamily(raw, warn)

	summary := make(map[string]LitterRow, len(raw.Litters))
	var duplicated []string
	repeats := make(map[string]int)
	for _, l := range raw.Litters {
		if _, ok := summary[l.ID]; !ok {
			summary[l.ID] = l
			continue
		}
		if repeats[l.ID] == 0 {
			duplicated = append(duplicated, l.ID)
		}
		repeats[l.ID]++
	}
	for _, id := range duplicated {
		warn("litter %q appears %d times on the litter sheet; only the first row will be used", id, repeats[id]+1)
	}
	checkLitterCounts(raw, warn)
	checkLitterSizes(raw, warn)
	checkNames(raw, warn)

	inferredLitters := make(map[string]struct{})
	for _, a := range raw.Animals {
		if a.LitterID == "" {
			continue
		}
		if _, ok := summary[a.LitterID]; ok {
			continue
		}
		warn("%s references litter %q but there is no litter with that ID; one will be created for it", describeAnimal(a), a.LitterID)
		inferredLitters[a.LitterID] = struct{}{}
	}

	known := knownNames(raw)
	inferredAnimals := make(map[string]struct{})
	for _, a := range raw.Animals {
		for _, ref := range []struct{ role, name string }{{"mother", a.Mother}, {"father", a.Father}} {
			key := normalizeName(ref.name)
			if key == "" {
				continue
			}
			if _, ok := known[key]; ok {
				continue
			}
			warn("%s has %s %q, which matches no animal in the workbook", describeAnimal(a), ref.role, ref.name)
			inferredAnimals[key] = struct{}{}
		}
	}

	checkLitterParents(raw, warn)

	owners := make(map[string]struct{})
	for _, a := range raw.Animals {
		if isExternalOwner(a.Owner, c.SelfOwner) {
			owners[normalizeName(a.Owner)] = struct{}{}
		}
	}

	rep.Counts = Counts{
		InferredLitters: len(inferredLitters),
		InferredAnimals: len(inferredAnimals),
		Litters:         len(summary) + len(inferredLitters),
		Animals:         len(raw.Animals) + len(inferredAnimals) + len(raw.Family),
		Owners:          len(owners),
	}
	return rep
}

func checkDeathDates(raw RawData, warn func(string, ...any)) {
	byDate := make(map[string]int)
	for _, a := range raw.Animals {
		if a.DeathDate != nil {
			byDate[a.DeathDate.Format("2006-01-02")]++
		}
	}
	if len(byDate) == 0 {
		return
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	best, tie := dates[0], false
	for _, d := range dates[1:] {
		switch {
		case byDate[d] > byDate[best]:
			best, tie = d, false
		case byDate[d] == byDate[best]:
			tie = true
		}
	}
	if tie {
		return
	}
	if n := byDate[best]; n == 1 {
		warn("date of death %s is set for 1 rat and may be wrong", best)
	} else {
		warn("date of death %s is shared by %d rats and looks like a spreadsheet default; these rats will be imported without that date", best, n)
	}
}

func checkFamily(raw RawData, warn func(string, ...any)) {
	if len(raw.Family) == 0 {
		return
	}
	warn("found %d rows of extended family data; only immediate relationships (dam, sire and offspring) will be imported", len(raw.Family))
	for _, f := range raw.Family {
		switch {
		case f.Name == "" && f.PetName == "":
			warn("family tree row %d has no name and cannot be matched to an animal", f.Row+1)
		case f.Name == "":
			warn("family tree row %d has only the pet name %q, which will be used as its name", f.Row+1, f.PetName)
		}
	}
}

func checkLitterCounts(raw RawData, warn func(string, ...any)) {
	ids := make(map[string]struct{})
	for _, a := range raw.Animals {
		if a.LitterID != "" {
			ids[a.LitterID] = struct{}{}
		}
	}
	if len(ids) != len(raw.Litters) {
		warn("animals reference %d distinct litters but the litter sheet lists %d", len(ids), len(raw.Litters))
	}
}

func checkLitterSizes(raw RawData, warn func(string, ...any)) {
	members := make(map[string]int)
	for _, a := range raw.Animals {
		if a.LitterID != "" {
			members[a.LitterID]++
		}
	}
	for _, l := range raw.Litters {
		n := members[l.ID]
		if n == 0 {
			warn("litter %q is on the litter sheet but no animals belong to it", l.ID)
			continue
		}
		if l.TotalWithStillborn == nil && l.TotalWithoutStillborn == nil {
			continue
		}
		if matches(l.TotalWithStillborn, n) || matches(l.TotalWithoutStillborn, n) {
			continue
		}
		warn("litter %q declares %s pups (%s without stillborn) but %d animals belong to it",
			l.ID, formatCount(l.TotalWithStillborn), formatCount(l.TotalWithoutStillborn), n)
	}
}

// checkLitterParents flags litters whose first pup names itself or a
// littermate as a parent, or one animal as both parents. Those slots are
// left unset on import.
func checkLitterParents(raw RawData, warn func(string, ...any)) {
	resolve := func(name string) int {
		if strings.TrimSpace(name) == "" {
			return -1
		}
		for i, a := range raw.Animals {
			if a.Answers(name) {
				return i
			}
		}
		return -1
	}
	seen := make(map[string]struct{})
	for _, first := range raw.Animals {
		id := first.LitterID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		dam, sire := resolve(first.Mother), resolve(first.Father)
		if dam >= 0 && raw.Animals[dam].LitterID == id {
			warn("litter %q names %q as its mother, but that animal belongs to the litter; it will be imported without a dam", id, first.Mother)
			dam = -1
		}
		switch {
		case sire >= 0 && raw.Animals[sire].LitterID == id:
			warn("litter %q names %q as its father, but that animal belongs to the litter; it will be imported without a sire", id, first.Father)
		case sire >= 0 && sire == dam:
			warn("litter %q names %q as both mother and father; it will be imported without a sire", id, first.Father)
		}
	}
}

func checkNames(raw RawData, warn func(string, ...any)) {
	var unnamed []string
	for _, a := range raw.Animals {
		if !a.HasName() {
			unnamed = append(unnamed, fmt.Sprint(a.Row+1))
		}
	}
	if len(unnamed) > 0 {
		warn("%d animals have no name (rows %s)", len(unnamed), strings.Join(unnamed, ", "))
	}
	for _, a := range raw.Animals {
		if a.Name == "" && a.PetName != "" {
			warn("animal on row %d has only the pet name %q, which will be used as its name", a.Row+1, a.PetName)
		}
	}
}

// knownNames collects every name a parent reference may resolve to: the
// names of animal rows and of family tree rows and their ancestors.
func knownNames(raw RawData) map[string]struct{} {
	known := make(map[string]struct{})
	add := func(name string) {
		if key := normalizeName(name); key != "" {
			known[key] = struct{}{}
		}
	}
	for _, a := range raw.Animals {
		add(a.Name)
		add(a.PetName)
	}
	for _, f := range raw.Family {
		add(f.Name)
		add(f.PetName)
		for _, anc := range f.Ancestors {
			add(anc)
		}
	}
	return known
}

func describeAnimal(a AnimalRow) string {
	if name := a.DisplayName(); name != "" {
		return fmt.Sprintf("animal %q", name)
	}
	return fmt.Sprintf("animal on row %d", a.Row+1)
}

func matches(declared *int, n int) bool { return declared != nil && *declared == n }

func formatCount(n *int) string {
	if n == nil {
		return "?"
	}
	return fmt.Sprint(*n)
}

func normalizeName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// isExternalOwner reports whether owner names someone other than the
// importing breeder.
func isExternalOwner(owner, self string) bool {
	key := normalizeName(owner)
	return key != "" && key != normalizeName(self)
}
