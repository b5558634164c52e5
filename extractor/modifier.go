package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pithecene-io/tornado/types"
)

// Modifier is one step of an extractor's modifiers_post chain (§4.3).
// Apply returns (zero, false) to signal the extraction failed outright
// (only toNumber can fail this way; the others are total).
type Modifier interface {
	Apply(types.Value) (types.Value, bool)
}

// Lowercase folds a String value to lowercase; non-String values pass
// through unchanged.
type Lowercase struct{}

func (Lowercase) Apply(v types.Value) (types.Value, bool) {
	if s, ok := v.AsString(); ok {
		return types.Str(strings.ToLower(s)), true
	}
	return v, true
}

// Trim removes leading/trailing whitespace from a String value;
// non-String values pass through unchanged.
type Trim struct{}

func (Trim) Apply(v types.Value) (types.Value, bool) {
	if s, ok := v.AsString(); ok {
		return types.Str(strings.TrimSpace(s)), true
	}
	return v, true
}

// ToNumber parses a String value as a float64 Number. Fails the
// extraction (returns ok=false) when the value is not a parseable number,
// per §4.3.
type ToNumber struct{}

func (ToNumber) Apply(v types.Value) (types.Value, bool) {
	s, ok := v.AsString()
	if !ok {
		return types.Value{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return types.Value{}, false
	}
	return types.Float(f), true
}

// ReplaceAll replaces occurrences of Find with Replace in a String value,
// either literally or (when IsRegex) via a compiled regular expression.
// Non-String values pass through unchanged.
type ReplaceAll struct {
	Find    string
	Replace string
	IsRegex bool
	re      *regexp.Regexp
}

func (r *ReplaceAll) Apply(v types.Value) (types.Value, bool) {
	s, ok := v.AsString()
	if !ok {
		return v, true
	}
	if r.IsRegex && r.re != nil {
		return types.Str(r.re.ReplaceAllString(s, r.Replace)), true
	}
	return types.Str(strings.ReplaceAll(s, r.Find, r.Replace)), true
}

// Map substitutes a String value by looking it up in Mapping; values not
// present fall back to DefaultValue when set, or pass through unchanged
// otherwise.
type Map struct {
	Mapping      *types.Object
	DefaultValue *types.Value
}

func (m *Map) Apply(v types.Value) (types.Value, bool) {
	s, ok := v.AsString()
	if !ok {
		return v, true
	}
	if mapped, present := m.Mapping.Get(s); present {
		return mapped, true
	}
	if m.DefaultValue != nil {
		return *m.DefaultValue, true
	}
	return v, true
}
