package processor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/medflow/medflow-idscan/internal/idscan/jmbg"
	"github.com/medflow/medflow-idscan/internal/idscan/normalizer"
)

// maxKeyLength bounds what is accepted as the label part of "label: value"
const maxKeyLength = 40

var (
	digitRun  = regexp.MustCompile(`\d+`)
	dateToken = regexp.MustCompile(`\b(\d{1,2}\s*[./-]\s*\d{1,2}\s*[./-]\s*\d{4}|\d{4}\s*[./-]\s*\d{1,2}\s*[./-]\s*\d{1,2})\b`)
)

// splitLines splits text on line breaks
func splitLines(text string) []string {
	return nonEmpty(strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	}))
}

// splitSegments splits text on line breaks and the field separators used in QR payloads
func splitSegments(text string) []string {
	return nonEmpty(strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == '|' || r == ';'
	}))
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// labeledPair splits "label: value". The label must be short and non-empty.
func labeledPair(segment string) (key, value string, ok bool) {
	key, value, found := strings.Cut(segment, ":")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || utf8.RuneCountInString(key) > maxKeyLength {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// findIDRun returns the first run of exactly 13 digits in s
func findIDRun(s string) (string, bool) {
	for _, run := range digitRun.FindAllString(s, -1) {
		if len(run) == jmbg.Length {
			return run, true
		}
	}
	return "", false
}

// findDate returns the first date-like token in s
func findDate(s string) (string, bool) {
	m := dateToken.FindString(s)
	return m, m != ""
}

// containsMarker reports whether the folded text contains marker as a whole word or phrase
func containsMarker(folded, marker string) bool {
	for start := 0; start < len(folded); {
		i := strings.Index(folded[start:], marker)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(marker)

		before, _ := utf8.DecodeLastRuneInString(folded[:i])
		after, _ := utf8.DecodeRuneInString(folded[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		start = i + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// foldedTokens folds s and splits it into words
func foldedTokens(s string) []string {
	return strings.FieldsFunc(normalizer.Fold(s), func(r rune) bool {
		return !isWordRune(r)
	})
}

func hasAnyToken(tokens []string, words map[string]bool) bool {
	for _, t := range tokens {
		if words[t] {
			return true
		}
	}
	return false
}

func containsAny(s string, stems []string) bool {
	for _, stem := range stems {
		if strings.Contains(s, stem) {
			return true
		}
	}
	return false
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
