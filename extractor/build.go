package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pithecene-io/tornado/accessor"
	"github.com/pithecene-io/tornado/types"
)

type regexConfig struct {
	Type          string `json:"type"`
	Pattern       string `json:"pattern"`
	GroupMatchIdx *int   `json:"group_match_idx,omitempty"`
	AllMatches    bool   `json:"all_matches,omitempty"`
}

type modifierConfig struct {
	Type         string          `json:"type"`
	Find         string          `json:"find,omitempty"`
	Replace      string          `json:"replace,omitempty"`
	IsRegex      bool            `json:"is_regex,omitempty"`
	Mapping      json.RawMessage `json:"mapping,omitempty"`
	DefaultValue json.RawMessage `json:"default_value,omitempty"`
}

type extractorConfig struct {
	From          string            `json:"from"`
	Regex         json.RawMessage   `json:"regex"`
	ModifiersPost []json.RawMessage `json:"modifiers_post,omitempty"`
}

// Build compiles one named extractor entry from a rule's `with` map
// (§4.3). name identifies the extractor for error messages and for the
// variable it populates.
func Build(name string, raw json.RawMessage, path string) (*Extractor, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var c extractorConfig
	if err := dec.Decode(&c); err != nil {
		return nil, &types.ConfigurationError{
			Message:  fmt.Sprintf("malformed extractor %q: %v", name, err),
			NodePath: path,
		}
	}

	from, err := accessor.Compile(c.From)
	if err != nil {
		return nil, &types.ConfigurationError{
			Message:  fmt.Sprintf("extractor %q: %v", name, err),
			NodePath: path,
		}
	}

	ex := &Extractor{Name: name, from: from}
	if err := buildStrategy(ex, c.Regex, name, path); err != nil {
		return nil, err
	}

	for i, raw := range c.ModifiersPost {
		mod, err := buildModifier(raw, name, fmt.Sprintf("%s/modifiers_post[%d]", path, i))
		if err != nil {
			return nil, err
		}
		ex.modifiers = append(ex.modifiers, mod)
	}

	return ex, nil
}

func buildStrategy(ex *Extractor, raw json.RawMessage, name, path string) error {
	if len(raw) == 0 {
		return &types.ConfigurationError{
			Message:  fmt.Sprintf("extractor %q: missing regex/extraction rule", name),
			NodePath: path,
		}
	}
	var rc regexConfig
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rc); err != nil {
		return &types.ConfigurationError{
			Message:  fmt.Sprintf("extractor %q: malformed extraction rule: %v", name, err),
			NodePath: path,
		}
	}

	re, err := regexp.Compile(rc.Pattern)
	if err != nil {
		return &types.ConfigurationError{
			Message:  fmt.Sprintf("extractor %q: invalid pattern %q: %v", name, rc.Pattern, err),
			NodePath: path,
		}
	}
	ex.pattern = re
	ex.allMatches = rc.AllMatches

	switch rc.Type {
	case "regex":
		ex.kind = KindRegex
		if rc.GroupMatchIdx != nil {
			ex.groupMatchIdx = *rc.GroupMatchIdx
		}
	case "namedGroups":
		ex.kind = KindNamedGroups
	case "singleKeyMap":
		ex.kind = KindSingleKeyMap
	default:
		return &types.ConfigurationError{
			Message:  fmt.Sprintf("extractor %q: unknown extraction rule type %q", name, rc.Type),
			NodePath: path,
		}
	}
	return nil
}

func buildModifier(raw json.RawMessage, name, path string) (Modifier, error) {
	var mc modifierConfig
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&mc); err != nil {
		return nil, &types.ConfigurationError{
			Message:  fmt.Sprintf("extractor %q: malformed modifier: %v", name, err),
			NodePath: path,
		}
	}

	switch mc.Type {
	case "lowercase":
		return Lowercase{}, nil
	case "trim":
		return Trim{}, nil
	case "toNumber":
		return ToNumber{}, nil
	case "replaceAll":
		r := &ReplaceAll{Find: mc.Find, Replace: mc.Replace, IsRegex: mc.IsRegex}
		if r.IsRegex {
			re, err := regexp.Compile(mc.Find)
			if err != nil {
				return nil, &types.ConfigurationError{
					Message:  fmt.Sprintf("extractor %q: invalid replaceAll pattern %q: %v", name, mc.Find, err),
					NodePath: path,
				}
			}
			r.re = re
		}
		return r, nil
	case "map":
		mapping := types.NewObject()
		if len(mc.Mapping) > 0 {
			if err := mapping.UnmarshalJSON(mc.Mapping); err != nil {
				return nil, &types.ConfigurationError{
					Message:  fmt.Sprintf("extractor %q: invalid map mapping: %v", name, err),
					NodePath: path,
				}
			}
		}
		m := &Map{Mapping: mapping}
		if len(mc.DefaultValue) > 0 {
			var dv types.Value
			if err := json.Unmarshal(mc.DefaultValue, &dv); err != nil {
				return nil, &types.ConfigurationError{
					Message:  fmt.Sprintf("extractor %q: invalid map default_value: %v", name, err),
					NodePath: path,
				}
			}
			m.DefaultValue = &dv
		}
		return m, nil
	default:
		return nil, &types.ConfigurationError{
			Message:  fmt.Sprintf("extractor %q: unknown modifier type %q", name, mc.Type),
			NodePath: path,
		}
	}
}
