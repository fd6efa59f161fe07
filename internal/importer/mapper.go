package importer

import (
	"breederbook/pkg/domain"
	"fmt"
	"strings"
	"time"
)

// MapOptions configures Map.
type MapOptions struct {
	// SelfOwner is the importing breeder's name. Animals whose owner field is
	// empty or matches it (case-insensitively) are owned by the breeder.
	SelfOwner string
}

// AnimalToCreate is a creation record for one animal row. ID is empty until
// the ingestor has created the animal.
type AnimalToCreate struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name"`
	Sex         domain.Sex `json:"sex"`
	Variety     string     `json:"variety,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	DeathDate   *time.Time `json:"death_date,omitempty"`
	OwnedBySelf bool       `json:"owned_by_self"`
	// OwnerKey is the normalized owner name for externally owned animals.
	OwnerKey string `json:"owner_key,omitempty"`
	Notes    string `json:"notes,omitempty"`

	Source *AnimalRow `json:"-"`
}

// OwnerToCreate is a creation record for one distinct external owner.
type OwnerToCreate struct {
	ID    string `json:"id,omitempty"`
	Key   string `json:"key"`
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

// LitterToCreate is a creation record for one litter identifier.
type LitterToCreate struct {
	ID         string            `json:"id,omitempty"`
	Identifier string            `json:"identifier"`
	Dam        *AnimalToCreate   `json:"-"`
	Sire       *AnimalToCreate   `json:"-"`
	MatingDate *time.Time        `json:"mating_date,omitempty"`
	BirthDate  *time.Time        `json:"birth_date,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	Offspring  []*AnimalToCreate `json:"-"`

	Summary *LitterRow `json:"-"`
}

// ImportSet is the full creation plan for one workbook.
type ImportSet struct {
	Owners  []*OwnerToCreate  `json:"owners"`
	Animals []*AnimalToCreate `json:"animals"`
	Litters []*LitterToCreate `json:"litters"`
}

// OwnerByKey returns the owner record for a normalized owner name.
func (s ImportSet) OwnerByKey(key string) *OwnerToCreate {
	for _, o := range s.Owners {
		if o.Key == key {
			return o
		}
	}
	return nil
}

// resetIDs forgets identities assigned by a rolled back ingestion.
func (s ImportSet) resetIDs() {
	for _, a := range s.Animals {
		a.ID = ""
	}
	for _, o := range s.Owners {
		o.ID = ""
	}
	for _, l := range s.Litters {
		l.ID = ""
	}
}

const (
	animalNotesHeader = "Imported from breeder workbook:"
	litterNotesHeader = "Imported litter details:"
	ownerNotesHeader  = "Contact details from breeder workbook:"
)

// Map builds the creation plan for raw. It is deterministic: owners, animals
// and litters keep the order in which they first appear in the workbook.
func Map(raw RawData, opts MapOptions) ImportSet {
	var set ImportSet

	owners := make(map[string]*OwnerToCreate)
	for _, row := range raw.Animals {
		if !isExternalOwner(row.Owner, opts.SelfOwner) {
			continue
		}
		key := normalizeName(row.Owner)
		if _, ok := owners[key]; ok {
			continue
		}
		o := &OwnerToCreate{Key: key, Name: row.Owner}
		if row.OwnerContact != "" {
			o.Notes = notesBlock(ownerNotesHeader, []string{row.OwnerContact})
		}
		owners[key] = o
		set.Owners = append(set.Owners, o)
	}

	for i := range raw.Animals {
		set.Animals = append(set.Animals, mapAnimal(&raw.Animals[i], opts.SelfOwner))
	}

	summaries := make(map[string]*LitterRow)
	var identifiers []string
	seen := make(map[string]struct{})
	addIdentifier := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		identifiers = append(identifiers, id)
	}
	for i := range raw.Litters {
		l := &raw.Litters[i]
		if _, ok := summaries[l.ID]; !ok {
			summaries[l.ID] = l
		}
		addIdentifier(l.ID)
	}
	for _, row := range raw.Animals {
		addIdentifier(row.LitterID)
	}

	for _, id := range identifiers {
		set.Litters = append(set.Litters, mapLitter(id, summaries[id], set.Animals))
	}
	return set
}

func mapAnimal(row *AnimalRow, self string) *AnimalToCreate {
	a := &AnimalToCreate{
		Name:        row.DisplayName(),
		Sex:         row.Sex,
		Variety:     row.Variety,
		BirthDate:   row.BirthDate,
		DeathDate:   row.DeathDate,
		OwnedBySelf: !isExternalOwner(row.Owner, self),
		Source:      row,
	}
	if !a.OwnedBySelf {
		a.OwnerKey = normalizeName(row.Owner)
	}

	var bullets []string
	if row.Name != "" && row.PetName != "" && !strings.EqualFold(row.Name, row.PetName) {
		bullets = append(bullets, "Pet name: "+row.PetName)
	}
	if !a.OwnedBySelf {
		owner := "Owner: " + row.Owner
		if row.OwnerContact != "" {
			owner += " (" + row.OwnerContact + ")"
		}
		bullets = append(bullets, owner)
	}
	traits := []struct {
		label   string
		known   bool
		display fmt.Stringer
	}{
		{"Ear", row.Ear != EarUnknown, row.Ear},
		{"Eye", row.Eye != EyeUnknown, row.Eye},
		{"Coat", row.Coat != CoatUnknown, row.Coat},
		{"Marking", row.Marking != MarkingUnknown, row.Marking},
		{"Shading", row.Shading != ShadingUnknown, row.Shading},
		{"Colour", row.Colour != ColourUnknown, row.Colour},
	}
	for _, t := range traits {
		if t.known {
			bullets = append(bullets, t.label+": "+t.display.String())
		}
	}
	if row.TailKink == FlagYes {
		bullets = append(bullets, "Has a kinked tail")
	}
	if row.Genetics != "" {
		bullets = append(bullets, "Known genetics: "+row.Genetics)
	}
	a.Notes = notesBlock(animalNotesHeader, bullets)
	return a
}

func mapLitter(id string, summary *LitterRow, animals []*AnimalToCreate) *LitterToCreate {
	l := &LitterToCreate{Identifier: id, Summary: summary}
	for _, a := range animals {
		if a.Source != nil && a.Source.LitterID == id {
			l.Offspring = append(l.Offspring, a)
		}
	}
	if len(l.Offspring) > 0 {
		first := l.Offspring[0].Source
		l.Dam = ResolveParent(first.Mother, animals)
		l.Sire = ResolveParent(first.Father, animals)
		// a litter cannot be its own parent
		if l.hasOffspring(l.Dam) {
			l.Dam = nil
		}
		if l.hasOffspring(l.Sire) || (l.Sire != nil && l.Sire == l.Dam) {
			l.Sire = nil
		}
	}

	var bullets []string
	bullets = append(bullets, "Litter ID: "+id)
	if summary != nil {
		l.MatingDate = summary.MatingDate
		l.BirthDate = summary.BirthDate
		if summary.TimeOfBirth != "" {
			bullets = append(bullets, "Time of birth: "+summary.TimeOfBirth)
		}
		if summary.Stillborn != nil && *summary.Stillborn > 0 {
			bullets = append(bullets, fmt.Sprintf("Stillborn: %d", *summary.Stillborn))
		}
		if summary.Notes != "" {
			bullets = append(bullets, "Notes: "+summary.Notes)
		}
	}
	if l.BirthDate == nil && len(l.Offspring) > 0 {
		l.BirthDate = l.Offspring[0].BirthDate
	}
	l.Notes = notesBlock(litterNotesHeader, bullets)
	return l
}

func (l *LitterToCreate) hasOffspring(a *AnimalToCreate) bool {
	if a == nil {
		return false
	}
	for _, o := range l.Offspring {
		if o == a {
			return true
		}
	}
	return false
}

// ResolveParent finds the first mapped animal whose formal or pet name
// equals name, ignoring case. It returns nil when nothing matches; an
// unresolved parent is left unset rather than invented.
func ResolveParent(name string, animals []*AnimalToCreate) *AnimalToCreate {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	for _, a := range animals {
		if a.Source != nil && a.Source.Answers(name) {
			return a
		}
	}
	return nil
}

// notesBlock renders a header followed by one "- " bullet per line, or
// nothing when there are no bullets.
func notesBlock(header string, bullets []string) string {
	if len(bullets) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(header)
	for _, line := range bullets {
		b.WriteString("\n- ")
		b.WriteString(line)
	}
	return b.String()
}
