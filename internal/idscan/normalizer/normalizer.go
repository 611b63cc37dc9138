// Package normalizer maps heterogeneous scanned key/value pairs onto the
// canonical identity field set.
package normalizer

import (
	"sort"
	"strings"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
)

// Pair is a raw key/value pair as found in a scan, in document order
type Pair struct {
	Key   string
	Value string
}

// Normalize builds a field set from raw pairs. The first pair that fills a
// field wins; keys that do not map to a canonical field are dropped.
func Normalize(pairs []Pair) domain.FieldSet {
	var fs domain.FieldSet
	for _, p := range pairs {
		Apply(&fs, p.Key, p.Value)
	}
	return fs
}

// NormalizeMap normalizes an unordered map. Keys are visited in sorted order
// so the result does not depend on map iteration.
func NormalizeMap(m map[string]string) domain.FieldSet {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: k, Value: m[k]})
	}
	return Normalize(pairs)
}

// Apply normalizes a single pair into fs without overwriting present fields.
// Returns true if a field was filled.
func Apply(fs *domain.FieldSet, key, value string) bool {
	value = collapseSpaces(value)
	if value == "" {
		return false
	}

	if surnameFirst, ok := LookupFullName(key); ok {
		first, last := SplitFullName(value, surnameFirst)
		a := last != "" && fs.SetIfEmpty(domain.FieldLastName, last)
		b := first != "" && fs.SetIfEmpty(domain.FieldFirstName, first)
		return a || b
	}

	field, ok := LookupField(key)
	if !ok {
		return false
	}
	return fs.SetIfEmpty(field, Value(field, value))
}

// Value canonicalizes a value for the given field
func Value(field domain.Field, value string) string {
	value = collapseSpaces(value)
	switch field {
	case domain.FieldDateOfBirth:
		return Date(value)
	case domain.FieldGender:
		return Gender(value)
	case domain.FieldNationalIDNumber:
		return domain.SanitizeIDNumber(value)
	default:
		return value
	}
}

// SplitFullName splits a combined name. "Petrović, Marko" is always read as
// surname first; otherwise the last token is the surname unless surnameFirst.
func SplitFullName(value string, surnameFirst bool) (first, last string) {
	if before, after, ok := strings.Cut(value, ","); ok {
		return collapseSpaces(after), collapseSpaces(before)
	}

	tokens := strings.Fields(value)
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return "", tokens[0]
	}

	if surnameFirst {
		return strings.Join(tokens[1:], " "), tokens[0]
	}
	return strings.Join(tokens[:len(tokens)-1], " "), tokens[len(tokens)-1]
}
