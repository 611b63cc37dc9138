package processor

import (
	"strings"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/jmbg"
	"github.com/medflow/medflow-idscan/internal/idscan/normalizer"
)

// minOpaqueIDLength is the shortest digit-only payload kept as an identity number
const minOpaqueIDLength = 10

// KeyValueParser handles "KEY:value|KEY:value" payloads as printed in QR codes
type KeyValueParser struct{}

func NewKeyValueParser() *KeyValueParser {
	return &KeyValueParser{}
}

func (p *KeyValueParser) Name() string {
	return "key_value"
}

func (p *KeyValueParser) Format() domain.DocumentFormat {
	return domain.FormatGenericKeyValue
}

func (p *KeyValueParser) CanParse(input domain.RawScanInput) bool {
	_, ok := keyValuePairs(input.Payload)
	return ok
}

func (p *KeyValueParser) Parse(input domain.RawScanInput) domain.FieldSet {
	pairs, _ := keyValuePairs(input.Payload)
	return normalizer.Normalize(pairs)
}

// keyValuePairs splits text on '|' or ';' and requires every segment to be a
// key:value pair. At least two segments are needed.
func keyValuePairs(text string) ([]normalizer.Pair, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "{") || strings.ContainsAny(text, "\r\n") {
		return nil, false
	}

	segments := nonEmpty(strings.FieldsFunc(text, func(r rune) bool {
		return r == '|' || r == ';'
	}))
	if len(segments) < 2 {
		return nil, false
	}

	pairs := make([]normalizer.Pair, 0, len(segments))
	for _, seg := range segments {
		key, value, ok := labeledPair(seg)
		if !ok {
			return nil, false
		}
		pairs = append(pairs, normalizer.Pair{Key: key, Value: value})
	}
	return pairs, true
}

// BareNumberParser handles payloads that are only the 13-digit identity number.
// Every field is derived from the number itself.
type BareNumberParser struct{}

func NewBareNumberParser() *BareNumberParser {
	return &BareNumberParser{}
}

func (p *BareNumberParser) Name() string {
	return "bare_number"
}

func (p *BareNumberParser) Format() domain.DocumentFormat {
	return domain.FormatBareIdentityNumber
}

func (p *BareNumberParser) CanParse(input domain.RawScanInput) bool {
	s := strings.TrimSpace(input.Payload)
	return len(s) == jmbg.Length && domain.IsDigits(s)
}

func (p *BareNumberParser) Parse(input domain.RawScanInput) domain.FieldSet {
	var fs domain.FieldSet
	fs.Set(domain.FieldNationalIDNumber, strings.TrimSpace(input.Payload))
	fillFromIdentityNumber(&fs)
	return fs
}

// DigitRunParser keeps longer digit-only payloads as an opaque identity number
type DigitRunParser struct{}

func NewDigitRunParser() *DigitRunParser {
	return &DigitRunParser{}
}

func (p *DigitRunParser) Name() string {
	return "digit_run"
}

func (p *DigitRunParser) Format() domain.DocumentFormat {
	return domain.FormatBareIdentityNumber
}

func (p *DigitRunParser) CanParse(input domain.RawScanInput) bool {
	s := strings.TrimSpace(input.Payload)
	return len(s) >= minOpaqueIDLength && len(s) != jmbg.Length && domain.IsDigits(s)
}

func (p *DigitRunParser) Parse(input domain.RawScanInput) domain.FieldSet {
	var fs domain.FieldSet
	fs.Set(domain.FieldNationalIDNumber, strings.TrimSpace(input.Payload))
	return fs
}
