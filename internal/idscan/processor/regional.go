package processor

import (
	"regexp"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/jmbg"
	"github.com/medflow/medflow-idscan/internal/idscan/normalizer"
)

// Card describes a regional health insurance card layout
type Card struct {
	Format    domain.DocumentFormat
	Authority string
	// Markers are folded (lower case, no diacritics) issuer names and abbreviations
	Markers []string
	// RequireIDRun demands a 13-digit run next to the markers
	RequireIDRun bool
	// SurnameFirst reads an unlabeled name line as "PETROVIĆ MARKO"
	SurnameFirst bool
}

var (
	// CardSerbia is the RFZO health insurance card
	CardSerbia = Card{
		Format:    domain.FormatRegionalCardA,
		Authority: "RFZO - Republički fond za zdravstveno osiguranje",
		Markers: []string{
			"rfzo", "рфзо",
			"republicki fond za zdravstveno osiguranje",
			"републички фонд за здравствено осигурање",
			"republika srbija", "република србија",
		},
		RequireIDRun: true,
		SurnameFirst: true,
	}

	// CardBosnia covers the entity funds of Bosnia and Herzegovina
	CardBosnia = Card{
		Format:    domain.FormatRegionalCardB,
		Authority: "ZZO - Zavod zdravstvenog osiguranja (BiH)",
		Markers: []string{
			"zzo", "zzofbih", "zzo fbih", "fzo rs", "fzors",
			"zavod zdravstvenog osiguranja",
			"fond zdravstvenog osiguranja republike srpske",
			"фонд здравственог осигурања републике српске",
			"bosna i hercegovina", "босна и херцеговина",
		},
		RequireIDRun: true,
		SurnameFirst: true,
	}

	// CardMontenegro is the FZOCG health insurance card
	CardMontenegro = Card{
		Format:    domain.FormatRegionalCardC,
		Authority: "FZOCG - Fond za zdravstveno osiguranje Crne Gore",
		Markers: []string{
			"fzocg", "fzo cg",
			"fond za zdravstveno osiguranje crne gore",
			"crna gora", "crne gore", "црна гора", "црне горе",
		},
		RequireIDRun: true,
		SurnameFirst: true,
	}

	// CardEHIC is the European Health Insurance Card
	CardEHIC = Card{
		Format: domain.FormatEHIC,
		Markers: []string{
			"ehic",
			"european health insurance card",
			"evropska kartica zdravstvenog osiguranja",
			"europska kartica zdravstvenog osiguranja",
			"europaische krankenversicherungskarte",
			"carte europeenne d'assurance maladie",
		},
		SurnameFirst: true,
	}
)

// Matches reports whether text carries one of the card markers, and the
// 13-digit run where the card requires one
func (c Card) Matches(text string) bool {
	if c.RequireIDRun {
		if _, ok := findIDRun(text); !ok {
			return false
		}
	}
	folded := normalizer.Fold(text)
	for _, m := range c.Markers {
		if containsMarker(folded, m) {
			return true
		}
	}
	return false
}

var knownCards = []Card{CardSerbia, CardBosnia, CardMontenegro, CardEHIC}

// hasCardMarker reports whether folded text names any known card issuer
func hasCardMarker(folded string) bool {
	for _, c := range knownCards {
		for _, m := range c.Markers {
			if containsMarker(folded, m) {
				return true
			}
		}
	}
	return false
}

// RegionalParser extracts fields from a regional card scan: labeled fields first,
// then the free-text heuristics, then whatever the identity number can supply.
type RegionalParser struct {
	card Card
}

func NewRegionalParser(card Card) *RegionalParser {
	return &RegionalParser{card: card}
}

func (p *RegionalParser) Name() string {
	return "regional_" + string(p.card.Format)
}

func (p *RegionalParser) Format() domain.DocumentFormat {
	return p.card.Format
}

func (p *RegionalParser) CanParse(input domain.RawScanInput) bool {
	return p.card.Matches(input.Payload)
}

func (p *RegionalParser) Parse(input domain.RawScanInput) domain.FieldSet {
	var fs domain.FieldSet
	extractLines(&fs, splitSegments(input.Payload), p.card.SurnameFirst)

	if !fs.Has(domain.FieldNationalIDNumber) {
		if id, ok := findIDRun(input.Payload); ok {
			fs.Set(domain.FieldNationalIDNumber, id)
		}
	}

	fillFromIdentityNumber(&fs)

	if p.card.Authority != "" {
		fs.SetIfEmpty(domain.FieldInsuranceProvider, p.card.Authority)
	}
	return fs
}

// ehicField matches the numbered lines printed on the EHIC, e.g. "3. PETROVIC"
var ehicField = regexp.MustCompile(`^\s*([3-9])\s*[.)]\s*(.+)$`)

var ehicFields = map[string]domain.Field{
	"3": domain.FieldLastName,
	"4": domain.FieldFirstName,
	"5": domain.FieldDateOfBirth,
	"6": domain.FieldNationalIDNumber,
	"7": domain.FieldInsuranceProvider,
}

// EHICParser reads the numbered fields of a European Health Insurance Card
type EHICParser struct {
	RegionalParser
}

func NewEHICParser() *EHICParser {
	return &EHICParser{RegionalParser: RegionalParser{card: CardEHIC}}
}

func (p *EHICParser) Name() string {
	return "ehic"
}

func (p *EHICParser) Parse(input domain.RawScanInput) domain.FieldSet {
	var fs domain.FieldSet

	for _, line := range splitLines(input.Payload) {
		m := ehicField.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		field, ok := ehicFields[m[1]]
		if !ok {
			continue
		}
		value := m[2]
		if _, v, labeled := labeledPair(value); labeled {
			value = v
		}
		if field == domain.FieldNationalIDNumber && !domain.IsDigits(domain.SanitizeIDNumber(value)) {
			continue
		}
		fs.SetIfEmpty(field, normalizer.Value(field, value))
	}

	fs.Merge(p.RegionalParser.Parse(input))
	return fs
}

// fillFromIdentityNumber derives missing birth date, gender and region from a 13-digit number
func fillFromIdentityNumber(fs *domain.FieldSet) {
	number, ok := fs.Get(domain.FieldNationalIDNumber)
	if !ok {
		return
	}
	d, err := jmbg.Decode(number)
	if err != nil {
		return
	}

	if d.DateValid {
		if _, ok := normalizer.ParseDate(d.BirthDateISO()); ok {
			fs.SetIfEmpty(domain.FieldDateOfBirth, d.BirthDateISO())
		}
	}
	fs.SetIfEmpty(domain.FieldGender, d.Sex)
	if d.RegionKnown {
		fs.SetIfEmpty(domain.FieldRegion, d.RegionName)
	}
}
