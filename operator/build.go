package operator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pithecene-io/tornado/accessor"
	"github.com/pithecene-io/tornado/types"
)

// canonicalTag is the on-write spelling for each operator kind (§6.1,
// §14: canonical-write / alias-read).
var canonicalTag = map[Kind]string{
	KindEquals:             "equals",
	KindEqualsIgnoreCase:   "equalsIgnoreCase",
	KindNotEquals:          "notEquals",
	KindContains:           "contains",
	KindContainsIgnoreCase: "containsIgnoreCase",
	KindGreaterThan:        "gt",
	KindGreaterEqual:       "ge",
	KindLessThan:           "lt",
	KindLessEqual:          "le",
	KindRegex:              "regex",
	KindAnd:                "and",
	KindOr:                 "or",
	KindNot:                "not",
}

// aliasTag maps every recognized read-side spelling, canonical and alias
// alike, back to its Kind (§6.1: equal<->equals, contain<->contains,
// containIgnoreCase<->containsIgnoreCase, equalIgnoreCase<->equalsIgnoreCase,
// notEqual/notEquals<->ne).
var aliasTag = map[string]Kind{
	"equals": KindEquals, "equal": KindEquals,
	"equalsIgnoreCase": KindEqualsIgnoreCase, "equalIgnoreCase": KindEqualsIgnoreCase,
	"notEquals": KindNotEquals, "notEqual": KindNotEquals, "ne": KindNotEquals,
	"contains": KindContains, "contain": KindContains,
	"containsIgnoreCase": KindContainsIgnoreCase, "containIgnoreCase": KindContainsIgnoreCase,
	"gt": KindGreaterThan, "ge": KindGreaterEqual, "lt": KindLessThan, "le": KindLessEqual,
	"regex": KindRegex,
	"and":   KindAnd, "AND": KindAnd,
	"or": KindOr, "OR": KindOr,
	"not": KindNot, "NOT": KindNot,
}

// config is the tagged-object wire shape of §6.1/§6.2: one JSON object per
// operator node, distinguished by "type", with fields specific to each
// kind. Unknown keys are rejected by the strict decoder in Build.
type config struct {
	Type      string            `json:"type"`
	First     json.RawMessage   `json:"first,omitempty"`
	Second    json.RawMessage   `json:"second,omitempty"`
	Pattern   string            `json:"pattern,omitempty"`
	Target    json.RawMessage   `json:"target,omitempty"`
	Operators []json.RawMessage `json:"operators,omitempty"`
	Operator  json.RawMessage   `json:"operator,omitempty"`
}

// Build compiles a JSON-encoded operator tree, recursively validating
// accessors, regex patterns, and operand arity. path identifies the node's
// position in the config tree for error messages (§4.2 "Compile").
func Build(raw json.RawMessage, path string) (*Operator, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var c config
	if err := dec.Decode(&c); err != nil {
		return nil, &types.ConfigurationError{
			Message:  fmt.Sprintf("malformed operator: %v", err),
			NodePath: path,
		}
	}

	kind, ok := aliasTag[c.Type]
	if !ok {
		return nil, &types.ConfigurationError{
			Message:  fmt.Sprintf("unknown operator type %q", c.Type),
			NodePath: path,
		}
	}

	switch kind {
	case KindEquals, KindEqualsIgnoreCase, KindNotEquals, KindContains, KindContainsIgnoreCase,
		KindGreaterThan, KindGreaterEqual, KindLessThan, KindLessEqual:
		first, err := compileOperand(c.First, path, "first")
		if err != nil {
			return nil, err
		}
		second, err := compileOperand(c.Second, path, "second")
		if err != nil {
			return nil, err
		}
		return &Operator{kind: kind, first: first, second: second}, nil

	case KindRegex:
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, &types.ConfigurationError{
				Message:  fmt.Sprintf("invalid regex %q: %v", c.Pattern, err),
				NodePath: path,
			}
		}
		target, err := compileOperand(c.Target, path, "target")
		if err != nil {
			return nil, err
		}
		return &Operator{kind: kind, pattern: re, target: target}, nil

	case KindAnd, KindOr:
		children := make([]*Operator, len(c.Operators))
		for i, raw := range c.Operators {
			childPath := fmt.Sprintf("%s/operators[%d]", path, i)
			child, err := Build(raw, childPath)
			if err != nil {
				return nil, err
			}
			if child == nil {
				return nil, &types.ConfigurationError{Message: c.Type + " operand must not be null", NodePath: childPath}
			}
			children[i] = child
		}
		return &Operator{kind: kind, children: children}, nil

	case KindNot:
		child, err := Build(c.Operator, path+"/operator")
		if err != nil {
			return nil, err
		}
		if child == nil {
			return nil, &types.ConfigurationError{Message: "not requires a child operator", NodePath: path}
		}
		return &Operator{kind: kind, child: child}, nil

	default:
		return nil, &types.ConfigurationError{Message: fmt.Sprintf("unhandled operator kind %q", c.Type), NodePath: path}
	}
}

func compileOperand(raw json.RawMessage, path, field string) (*accessor.Accessor, error) {
	if len(raw) == 0 {
		return nil, &types.ConfigurationError{
			Message:  fmt.Sprintf("missing %q operand", field),
			NodePath: path,
		}
	}
	var source string
	if err := json.Unmarshal(raw, &source); err != nil {
		return nil, &types.ConfigurationError{
			Message:  fmt.Sprintf("%q operand must be a string accessor expression", field),
			NodePath: path,
		}
	}
	a, err := accessor.Compile(source)
	if err != nil {
		return nil, &types.ConfigurationError{Message: err.Error(), NodePath: path}
	}
	return a, nil
}

// MarshalJSON renders the operator using its canonical tag spelling,
// regardless of which alias was used to build it (§6.1, §14).
func (o *Operator) MarshalJSON() ([]byte, error) {
	tag := canonicalTag[o.kind]
	switch o.kind {
	case KindEquals, KindEqualsIgnoreCase, KindNotEquals, KindContains, KindContainsIgnoreCase,
		KindGreaterThan, KindGreaterEqual, KindLessThan, KindLessEqual:
		return json.Marshal(struct {
			Type   string `json:"type"`
			First  string `json:"first"`
			Second string `json:"second"`
		}{tag, o.first.Source(), o.second.Source()})
	case KindRegex:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Pattern string `json:"pattern"`
			Target  string `json:"target"`
		}{tag, o.pattern.String(), o.target.Source()})
	case KindAnd, KindOr:
		return json.Marshal(struct {
			Type      string     `json:"type"`
			Operators []*Operator `json:"operators"`
		}{tag, o.children})
	case KindNot:
		return json.Marshal(struct {
			Type     string    `json:"type"`
			Operator *Operator `json:"operator"`
		}{tag, o.child})
	default:
		return nil, fmt.Errorf("operator: unmarshalable kind %d", o.kind)
	}
}
