// Package matcher compiles a MatcherConfig tree (§3.6/§3.7) into an
// immutable, concurrently-readable rule evaluator, and executes it against
// events to produce a ProcessedNode result tree (§4.4).
package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Config is the wire/tree form of §3.6: either a Filter or a Ruleset.
// Nodes are tagged with "type":"filter"|"ruleset" on the wire.
type Config struct {
	IsFilter bool

	// Filter fields.
	Name            string
	FilterPredicate json.RawMessage
	Active          bool
	Description     string
	Nodes           []*Config

	// Ruleset fields.
	Rules []*RuleConfig
}

type wireFilter struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Active      bool            `json:"active"`
	Filter      json.RawMessage `json:"filter"`
	Nodes       []*Config       `json:"nodes"`
}

type wireRuleset struct {
	Type  string        `json:"type"`
	Name  string        `json:"name"`
	Rules []*RuleConfig `json:"rules"`
}

// RuleConfig is the wire form of §3.7.
type RuleConfig struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Active      bool                `json:"active"`
	DoContinue  bool                `json:"continue"`
	Constraint  ConstraintConfig    `json:"constraint"`
	Actions     []ActionTemplateConfig `json:"actions"`
}

// ConstraintConfig is a rule's { WHERE, WITH } pair (§6.1).
type ConstraintConfig struct {
	Where json.RawMessage            `json:"WHERE"`
	With  map[string]json.RawMessage `json:"WITH"`
}

// ActionTemplateConfig is the wire form of an ActionTemplate (§3.7): an
// action id plus a Value payload that may embed ${...} accessor
// expressions anywhere in its tree.
type ActionTemplateConfig struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// UnmarshalJSON dispatches on the "type" discriminator to decode either a
// filter or a ruleset node, rejecting unknown fields (strict
// deserialization per §6.1).
func (c *Config) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.Type {
	case "filter":
		var wf wireFilter
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&wf); err != nil {
			return err
		}
		c.IsFilter = true
		c.Name = wf.Name
		c.Description = wf.Description
		c.Active = wf.Active
		c.FilterPredicate = wf.Filter
		c.Nodes = wf.Nodes
		return nil
	case "ruleset":
		var wr wireRuleset
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&wr); err != nil {
			return err
		}
		c.IsFilter = false
		c.Name = wr.Name
		c.Rules = wr.Rules
		return nil
	default:
		return fmt.Errorf("matcher config: unknown node type %q", probe.Type)
	}
}

// MarshalJSON renders the node back to its tagged wire form.
func (c *Config) MarshalJSON() ([]byte, error) {
	if c.IsFilter {
		return json.Marshal(wireFilter{
			Type:        "filter",
			Name:        c.Name,
			Description: c.Description,
			Active:      c.Active,
			Filter:      c.FilterPredicate,
			Nodes:       c.Nodes,
		})
	}
	return json.Marshal(wireRuleset{Type: "ruleset", Name: c.Name, Rules: c.Rules})
}

// Tautology reports whether raw represents an absent/null filter
// predicate, which evaluates to "always true" (§3.6, §6.2).
func tautology(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
