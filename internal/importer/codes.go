package importer

import (
	"breederbook/pkg/domain"
	"strings"
)

// Categorical trait values decoded from the short codes used in the legacy
// spreadsheet. Every enumeration has an explicit Unknown variant that any
// unrecognized code decodes to. Adding a code is a one-line table edit.

// Ear is the ear type of an animal.
type Ear int

// Ear types.
const (
	EarUnknown Ear = iota
	EarDumbo
	EarTop
)

// Eye is the eye colour of an animal.
type Eye int

// Eye colours.
const (
	EyeUnknown Eye = iota
	EyeBlack
	EyeRuby
	EyePink
	EyeOdd
)

// Coat is the coat type of an animal.
type Coat int

// Coat types.
const (
	CoatUnknown Coat = iota
	CoatStandard
	CoatRex
	CoatHairless
	CoatVelvet
	CoatSatin
	CoatHarley
)

// Marking is the marking pattern of an animal.
type Marking int

// Marking patterns.
const (
	MarkingUnknown Marking = iota
	MarkingSelf
	MarkingBerkshire
	MarkingHooded
	MarkingIrish
	MarkingVariegated
	MarkingCapped
	MarkingBlazed
)

// Shading is the shading pattern of an animal.
type Shading int

// Shading patterns.
const (
	ShadingUnknown Shading = iota
	ShadingSiamese
	ShadingHimalayan
	ShadingBurmese
	ShadingMarten
)

// Colour is the base colour of an animal. The source workbook does not use a
// stable colour code, so every value currently decodes to ColourUnknown.
type Colour int

// Colours.
const (
	ColourUnknown Colour = iota
)

// Flag is a yes/no trait that may also be missing.
type Flag int

// Flag values.
const (
	FlagUnknown Flag = iota
	FlagYes
	FlagNo
)

// Life records whether an animal was alive when the workbook was last kept.
type Life int

// Life indicators.
const (
	LifeUnknown Life = iota
	LifeAlive
	LifeDead
)

var (
	sexCodes = map[string]domain.Sex{"m": domain.SexMale, "f": domain.SexFemale}

	earCodes = map[string]Ear{"d": EarDumbo, "t": EarTop}
	earNames = map[Ear]string{EarDumbo: "Dumbo", EarTop: "Top (standard)"}

	eyeCodes = map[string]Eye{"b": EyeBlack, "r": EyeRuby, "p": EyePink, "o": EyeOdd}
	eyeNames = map[Eye]string{EyeBlack: "Black", EyeRuby: "Ruby", EyePink: "Pink", EyeOdd: "Odd eyed"}

	coatCodes = map[string]Coat{"s": CoatStandard, "r": CoatRex, "h": CoatHairless, "v": CoatVelvet, "sa": CoatSatin, "hr": CoatHarley}
	coatNames = map[Coat]string{CoatStandard: "Standard", CoatRex: "Rex", CoatHairless: "Hairless", CoatVelvet: "Velvet", CoatSatin: "Satin", CoatHarley: "Harley"}

	markingCodes = map[string]Marking{"s": MarkingSelf, "b": MarkingBerkshire, "h": MarkingHooded, "i": MarkingIrish, "v": MarkingVariegated, "ca": MarkingCapped, "bz": MarkingBlazed}
	markingNames = map[Marking]string{MarkingSelf: "Self", MarkingBerkshire: "Berkshire", MarkingHooded: "Hooded", MarkingIrish: "Irish", MarkingVariegated: "Variegated", MarkingCapped: "Capped", MarkingBlazed: "Blazed"}

	shadingCodes = map[string]Shading{"s": ShadingSiamese, "h": ShadingHimalayan, "b": ShadingBurmese, "m": ShadingMarten}
	shadingNames = map[Shading]string{ShadingSiamese: "Siamese", ShadingHimalayan: "Himalayan", ShadingBurmese: "Burmese", ShadingMarten: "Marten"}

	colourCodes = map[string]Colour{}

	flagCodes = map[string]Flag{"y": FlagYes, "n": FlagNo}
	lifeCodes = map[string]Life{"a": LifeAlive, "d": LifeDead}
)

func decode[T any](table map[string]T, code string, fallback T) T {
	if v, ok := table[strings.ToLower(strings.TrimSpace(code))]; ok {
		return v
	}
	return fallback
}

// ParseSex decodes an M/F sex code.
func ParseSex(code string) domain.Sex { return decode(sexCodes, code, domain.SexUnknown) }

// ParseEar decodes an ear type code.
func ParseEar(code string) Ear { return decode(earCodes, code, EarUnknown) }

// ParseEye decodes an eye colour code.
func ParseEye(code string) Eye { return decode(eyeCodes, code, EyeUnknown) }

// ParseCoat decodes a coat type code.
func ParseCoat(code string) Coat { return decode(coatCodes, code, CoatUnknown) }

// ParseMarking decodes a marking code.
func ParseMarking(code string) Marking { return decode(markingCodes, code, MarkingUnknown) }

// ParseShading decodes a shading code.
func ParseShading(code string) Shading { return decode(shadingCodes, code, ShadingUnknown) }

// ParseColour decodes a colour code.
func ParseColour(code string) Colour { return decode(colourCodes, code, ColourUnknown) }

// ParseFlag decodes a Y/N flag.
func ParseFlag(code string) Flag { return decode(flagCodes, code, FlagUnknown) }

// ParseLife decodes an A/D life indicator.
func ParseLife(code string) Life { return decode(lifeCodes, code, LifeUnknown) }

func label[T comparable](names map[T]string, v T) string {
	if s, ok := names[v]; ok {
		return s
	}
	return "Unknown"
}

func (e Ear) String() string     { return label(earNames, e) }
func (e Eye) String() string     { return label(eyeNames, e) }
func (c Coat) String() string    { return label(coatNames, c) }
func (m Marking) String() string { return label(markingNames, m) }
func (s Shading) String() string { return label(shadingNames, s) }
func (Colour) String() string    { return "Unknown" }

func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "Yes"
	case FlagNo:
		return "No"
	}
	return "Unknown"
}

func (l Life) String() string {
	switch l {
	case LifeAlive:
		return "Alive"
	case LifeDead:
		return "Dead"
	}
	return "Unknown"
}
