package processor

import (
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/normalizer"
)

// payloadSchema accepts a non-empty object of scalars and nested objects
const payloadSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {"$ref": "#/$defs/value"},
	"$defs": {
		"value": {
			"anyOf": [
				{"type": ["string", "number", "boolean", "null"]},
				{"type": "object", "additionalProperties": {"$ref": "#/$defs/value"}}
			]
		}
	}
}`

var scanPayloadSchema = mustCompileSchema("scan-payload.json", payloadSchema)

func mustCompileSchema(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic("add schema " + name + ": " + err.Error())
	}
	s, err := compiler.Compile(name)
	if err != nil {
		panic("compile schema " + name + ": " + err.Error())
	}
	return s
}

// JSONParser handles JSON object payloads. Nested objects are flattened by leaf key.
type JSONParser struct{}

func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

func (p *JSONParser) Name() string {
	return "json"
}

func (p *JSONParser) Format() domain.DocumentFormat {
	return domain.FormatGenericJSON
}

func (p *JSONParser) CanParse(input domain.RawScanInput) bool {
	_, ok := decodeObject(input.Payload)
	return ok
}

func (p *JSONParser) Parse(input domain.RawScanInput) domain.FieldSet {
	obj, _ := decodeObject(input.Payload)
	var pairs []normalizer.Pair
	flatten(obj, &pairs)
	return normalizer.Normalize(pairs)
}

func decodeObject(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil, false
	}

	// numbers stay json.Number so long identity numbers keep every digit
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if err := scanPayloadSchema.Validate(v); err != nil {
		return nil, false
	}

	obj, ok := v.(map[string]any)
	return obj, ok
}

// flatten appends the scalar leaves of obj in sorted key order
func flatten(obj map[string]any, pairs *[]normalizer.Pair) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			*pairs = append(*pairs, normalizer.Pair{Key: k, Value: v})
		case json.Number:
			*pairs = append(*pairs, normalizer.Pair{Key: k, Value: v.String()})
		case bool:
			*pairs = append(*pairs, normalizer.Pair{Key: k, Value: strconv.FormatBool(v)})
		case map[string]any:
			flatten(v, pairs)
		}
	}
}
