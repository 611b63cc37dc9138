package processor

import (
	"github.com/medflow/medflow-idscan/internal/idscan/domain"
)

// Parser turns one recognized document layout into a partial field set.
// Implementations must be pure: no I/O and no state kept between calls.
type Parser interface {
	// CanParse returns true if the payload has this parser's layout
	CanParse(input domain.RawScanInput) bool

	// Parse extracts whatever fields the layout carries
	Parse(input domain.RawScanInput) domain.FieldSet

	// Format is the document format reported when this parser is selected
	Format() domain.DocumentFormat

	// Name returns the parser name for logging
	Name() string
}

// Registry holds the parsers in detection order and dispatches to the first match
type Registry struct {
	parsers []Parser
}

// NewRegistry creates a registry that tries parsers in the given order
func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

// DefaultRegistry returns the detection order used in production:
// regional cards, key/value, JSON, bare number, digit run, free text.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewRegionalParser(CardSerbia),
		NewRegionalParser(CardBosnia),
		NewRegionalParser(CardMontenegro),
		NewEHICParser(),
		NewKeyValueParser(),
		NewJSONParser(),
		NewBareNumberParser(),
		NewDigitRunParser(),
		NewFreeTextParser(),
	)
}

// FindParser returns the first parser that accepts input, or nil
func (r *Registry) FindParser(input domain.RawScanInput) Parser {
	for _, p := range r.parsers {
		if p.CanParse(input) {
			return p
		}
	}
	return nil
}

// Detect selects exactly one format for input and extracts its fields.
// Free text that yields nothing, and input no parser accepts, is unrecognized.
func (r *Registry) Detect(input domain.RawScanInput) (domain.DocumentFormat, domain.FieldSet) {
	p := r.FindParser(input)
	if p == nil {
		return domain.FormatUnrecognized, domain.FieldSet{}
	}

	fs := p.Parse(input)
	if fs.IsEmpty() && p.Format() == domain.FormatFreeText {
		return domain.FormatUnrecognized, domain.FieldSet{}
	}
	return p.Format(), fs
}
