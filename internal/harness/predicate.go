package harness

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/buger/jsonparser"
	yaml "gopkg.in/yaml.v3"

	"github.com/brendan.keane/shopcheck/internal/errors"
)

// PredicateKind selects how a BodyPredicate inspects the response body.
type PredicateKind string

const (
	PredicateContains    PredicateKind = "contains"
	PredicateNotContains PredicateKind = "not_contains"
	PredicateJSONField   PredicateKind = "json_field"
)

// BodyPredicate is a check applied to a response body: a substring match
// over the raw text, or an equality check on a field extracted by JSON path.
type BodyPredicate struct {
	Kind PredicateKind `yaml:"kind"`
	Text string        `yaml:"text,omitempty"`
	// Path is a dotted JSON path with bracketed array indexes, e.g.
	// "responseCode" or "products[0].name". Dotted segments are always
	// object keys, so "codes.200" reads the key "200".
	Path string `yaml:"path,omitempty"`
	// Equals is compared without coercion: a number only matches a number,
	// a string only a string.
	Equals interface{} `yaml:"equals,omitempty"`

	// equalsSet tells an explicit null expectation from a missing one
	equalsSet bool
}

var predicateFields = map[string]bool{"kind": true, "text": true, "path": true, "equals": true}

// UnmarshalYAML decodes a predicate, rejecting unknown keys and recording
// whether equals was given.
func (p *BodyPredicate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Newf(errors.ErrorTypeValidation, "line %d: body predicate must be a mapping", node.Line)
	}

	type plain BodyPredicate
	var out plain
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !predicateFields[key.Value] {
			return errors.Newf(errors.ErrorTypeValidation, "line %d: field %s not found in body predicate", key.Line, key.Value)
		}
		if key.Value == "equals" {
			out.equalsSet = true
		}
	}
	if err := node.Decode(&out); err != nil {
		return err
	}
	*p = BodyPredicate(out)
	return nil
}

// Contains requires the raw body to contain text.
func Contains(text string) BodyPredicate {
	return BodyPredicate{Kind: PredicateContains, Text: text}
}

// NotContains requires the raw body not to contain text.
func NotContains(text string) BodyPredicate {
	return BodyPredicate{Kind: PredicateNotContains, Text: text}
}

// FieldEquals requires the JSON value at path to equal want.
func FieldEquals(path string, want interface{}) BodyPredicate {
	return BodyPredicate{Kind: PredicateJSONField, Path: path, Equals: want, equalsSet: true}
}

// Describe returns a short human-readable label for the check.
func (p BodyPredicate) Describe() string {
	switch p.Kind {
	case PredicateContains:
		return fmt.Sprintf("body contains %q", p.Text)
	case PredicateNotContains:
		return fmt.Sprintf("body does not contain %q", p.Text)
	case PredicateJSONField:
		return fmt.Sprintf("body field %s", p.Path)
	default:
		return fmt.Sprintf("unknown predicate %q", p.Kind)
	}
}

// Validate reports a predicate that can never be evaluated.
func (p BodyPredicate) Validate() error {
	switch p.Kind {
	case PredicateContains, PredicateNotContains:
		if p.Text == "" {
			return errors.New(errors.ErrorTypeValidation, "substring predicate requires text").
				WithContext("field", "text")
		}
	case PredicateJSONField:
		if p.Path == "" {
			return errors.New(errors.ErrorTypeValidation, "json_field predicate requires a path").
				WithContext("field", "path")
		}
		if !p.equalsSet {
			return errors.New(errors.ErrorTypeValidation, "json_field predicate requires an equals value").
				WithContext("field", "equals").
				WithContext("path", p.Path).
				WithContext("suggestion", "use 'equals: null' to expect a JSON null")
		}
		if !isScalar(p.Equals) {
			return errors.Newf(errors.ErrorTypeValidation, "json_field equals must be a number, string, bool or null, got %T", p.Equals).
				WithContext("field", "equals").
				WithContext("path", p.Path)
		}
	default:
		return errors.Newf(errors.ErrorTypeValidation, "unknown predicate kind %q", p.Kind).
			WithContext("field", "kind")
	}
	return nil
}

// Evaluate checks the predicate against resp. A nil Mismatch means the check
// passed. The returned error is only set when the body could not be
// inspected at all (malformed JSON).
func (p BodyPredicate) Evaluate(resp *Response) (*Mismatch, error) {
	switch p.Kind {
	case PredicateContains:
		if strings.Contains(resp.Body, p.Text) {
			return nil, nil
		}
		return &Mismatch{Check: p.Describe(), Expected: p.Text, Actual: excerpt(resp.Body)}, nil

	case PredicateNotContains:
		if !strings.Contains(resp.Body, p.Text) {
			return nil, nil
		}
		return &Mismatch{Check: p.Describe(), Expected: "absent", Actual: excerpt(resp.Body)}, nil

	case PredicateJSONField:
		actual, found, err := resp.Field(p.Path)
		if err != nil {
			return nil, err
		}
		if !found {
			return &Mismatch{Check: p.Describe(), Expected: formatValue(p.Equals), Actual: "<missing>"}, nil
		}
		if valuesEqual(p.Equals, actual) {
			return nil, nil
		}
		return &Mismatch{Check: p.Describe(), Expected: formatValue(p.Equals), Actual: formatValue(actual)}, nil
	}

	return nil, p.Validate()
}

// jsonKeys turns "a[0].b" into the key path jsonparser expects: a, [0], b.
func jsonKeys(path string) []string {
	path = strings.ReplaceAll(path, "[", ".[")
	var keys []string
	for _, part := range strings.Split(path, ".") {
		if part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

// rawJSON is an object or array left undecoded.
type rawJSON string

// decodeValue converts a raw jsonparser value into a Go value. Numbers become
// float64, objects and arrays stay as their raw JSON text.
func decodeValue(raw []byte, dataType jsonparser.ValueType) (interface{}, error) {
	switch dataType {
	case jsonparser.String:
		return jsonparser.ParseString(raw)
	case jsonparser.Number:
		return jsonparser.ParseFloat(raw)
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(raw)
	case jsonparser.Null:
		return nil, nil
	default:
		return rawJSON(raw), nil
	}
}

// valuesEqual compares an expectation with a decoded JSON value. Types must
// agree; objects and arrays never match.
func valuesEqual(want, got interface{}) bool {
	if wf, ok := toFloat(want); ok {
		gf, ok := got.(float64)
		return ok && wf == gf
	}
	switch w := want.(type) {
	case nil:
		return got == nil
	case string:
		g, ok := got.(string)
		return ok && w == g
	case bool:
		g, ok := got.(bool)
		return ok && w == g
	}
	return false
}

func isScalar(v interface{}) bool {
	if _, ok := toFloat(v); ok {
		return true
	}
	switch v.(type) {
	case nil, string, bool:
		return true
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func formatValue(v interface{}) string {
	if v == nil {
		return "null"
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v)
}

const maxExcerpt = 200

func excerpt(body string) string {
	return Truncate(body, maxExcerpt)
}

// Truncate cuts s to at most n bytes, backing off to a rune boundary, and
// marks the cut with "...".
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
