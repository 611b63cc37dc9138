package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters that do not decompose under NFD
var foldReplacer = strings.NewReplacer(
	"đ", "dj",
	"ђ", "дј",
	"ß", "ss",
	"ø", "o",
	"ł", "l",
)

// Fold lower-cases s and strips diacritics so that "Datum rođenja" and
// "DATUM RODJENJA" compare equal.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = foldReplacer.Replace(s)

	// transform.Chain keeps state, build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldKey folds s and drops everything but letters and digits
func FoldKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, Fold(s))
}

// collapseSpaces trims s and squeezes inner whitespace runs to one space
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
