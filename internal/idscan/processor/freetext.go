package processor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/normalizer"
)

// minAddressLength is the rune count a labeled address with digits must exceed
const minAddressLength = 10

// nonNameWords disqualify a line from the name heuristic
var nonNameWords = wordSet(
	"ime", "prezime", "name", "surname", "pol", "spol", "sex", "gender",
	"jmbg", "lbo", "broj", "number", "datum", "date", "adresa", "address",
	"card", "kartica", "fond", "ehic", "rfzo", "valid", "vazi", "do", "od",
	"filijala", "republika", "republike", "srbija", "bosna", "hercegovina",
	"crna", "crne", "gora", "gore", "osiguranik", "insured", "potpis", "signature",
)

// nonNameStems are matched as substrings of the folded line
var nonNameStems = []string{"zdravstv", "osigura", "insuranc", "health", "krankenvers"}

// issueDateStems mark lines whose dates are not birth dates
var issueDateStems = []string{"vazi", "valid", "expir", "istek", "izdat", "izdavanja", "issued", "gultig", "until"}

var streetWords = wordSet(
	"ulica", "ul", "bulevar", "bul", "trg", "put", "cesta", "naselje",
	"street", "st", "avenue", "ave", "road", "rd", "strasse", "str",
)

// FreeTextParser extracts fields from OCR text line by line.
//
// Rule firstMatchWins: every heuristic fills its field from the first line
// that matches; later matches for a field that is already filled are ignored.
type FreeTextParser struct{}

func NewFreeTextParser() *FreeTextParser {
	return &FreeTextParser{}
}

func (p *FreeTextParser) Name() string {
	return "free_text"
}

func (p *FreeTextParser) Format() domain.DocumentFormat {
	return domain.FormatFreeText
}

func (p *FreeTextParser) CanParse(input domain.RawScanInput) bool {
	return input.Channel == domain.ChannelFreeText && strings.TrimSpace(input.Payload) != ""
}

func (p *FreeTextParser) Parse(input domain.RawScanInput) domain.FieldSet {
	var fs domain.FieldSet
	extractLines(&fs, splitLines(input.Payload), false)
	return fs
}

// extractLines applies the per-line heuristics to lines in order.
// surnameFirst sets the token order of unlabeled name lines.
func extractLines(fs *domain.FieldSet, lines []string, surnameFirst bool) {
	for _, line := range lines {
		extractLine(fs, line, surnameFirst)
	}
}

func extractLine(fs *domain.FieldSet, line string, surnameFirst bool) {
	folded := normalizer.Fold(line)
	key, value, labeled := labeledPair(line)

	var labelField domain.Field
	var labelKnown bool
	if labeled {
		if labelSurnameFirst, ok := normalizer.LookupFullName(key); ok {
			if !fs.Has(domain.FieldFirstName) && !fs.Has(domain.FieldLastName) {
				first, last := normalizer.SplitFullName(value, labelSurnameFirst)
				fs.SetIfEmpty(domain.FieldFirstName, first)
				fs.SetIfEmpty(domain.FieldLastName, last)
			}
		} else if labelField, labelKnown = normalizer.LookupField(key); labelKnown {
			extractLabeled(fs, labelField, value)
		}
	}

	// date of birth: explicit label handled above, otherwise a bare date token
	if !fs.Has(domain.FieldDateOfBirth) && !containsAny(folded, issueDateStems) {
		if d, ok := findDate(line); ok {
			fs.Set(domain.FieldDateOfBirth, normalizer.Date(d))
		}
	}

	// identity number: unlabeled lines, or lines labeled as the identity number
	if !fs.Has(domain.FieldNationalIDNumber) && (!labeled || labelField == domain.FieldNationalIDNumber) {
		if id, ok := findIDRun(line); ok {
			fs.Set(domain.FieldNationalIDNumber, id)
		}
	}

	if !labeled && !fs.Has(domain.FieldFirstName) && !fs.Has(domain.FieldLastName) {
		if first, last, ok := nameFromLine(line, surnameFirst); ok {
			fs.SetIfEmpty(domain.FieldFirstName, first)
			fs.SetIfEmpty(domain.FieldLastName, last)
		}
	}
}

func extractLabeled(fs *domain.FieldSet, field domain.Field, value string) {
	if value == "" || fs.Has(field) {
		return
	}

	switch field {
	case domain.FieldDateOfBirth:
		if d, ok := findDate(value); ok {
			value = d
		}
		fs.Set(field, normalizer.Date(value))
	case domain.FieldNationalIDNumber:
		if id, ok := findIDRun(value); ok {
			value = id
		}
		fs.Set(field, value)
	case domain.FieldAddress:
		if looksLikeAddress(value) {
			fs.Set(field, normalizer.Value(field, value))
		}
	default:
		fs.Set(field, normalizer.Value(field, value))
	}
}

// nameFromLine accepts two to four capitalized alphabetic tokens
func nameFromLine(line string, surnameFirst bool) (first, last string, ok bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 || len(tokens) > 4 {
		return "", "", false
	}

	folded := normalizer.Fold(line)
	if hasAnyToken(foldedTokens(line), nonNameWords) || containsAny(folded, nonNameStems) || hasCardMarker(folded) {
		return "", "", false
	}

	for _, t := range tokens {
		if !isNameToken(t) {
			return "", "", false
		}
	}

	first, last = normalizer.SplitFullName(line, surnameFirst)
	return first, last, true
}

func isNameToken(t string) bool {
	r, _ := utf8.DecodeRuneInString(t)
	if !unicode.IsUpper(r) {
		return false
	}
	for _, r := range t {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' && r != '’' {
			return false
		}
	}
	return true
}

// looksLikeAddress accepts values with a house number and some length, or a street keyword
func looksLikeAddress(value string) bool {
	hasDigit := strings.IndexFunc(value, unicode.IsDigit) >= 0
	if hasDigit && utf8.RuneCountInString(value) > minAddressLength {
		return true
	}
	return hasAnyToken(foldedTokens(value), streetWords)
}
