package matcher

import (
	"fmt"
	"sort"

	"github.com/pithecene-io/tornado/extractor"
	"github.com/pithecene-io/tornado/operator"
	"github.com/pithecene-io/tornado/types"
)

// Matcher is the compiled, immutable rule tree (§4.4). Once built it is
// side-effect-free and safe for concurrent reads; a hot-swap replaces the
// pointer wholesale rather than mutating in place.
type Matcher struct {
	root *compiledNode
}

type compiledNode struct {
	isFilter bool

	// Filter fields.
	name     string
	active   bool
	filter   *operator.Operator // nil means tautology
	children []*compiledNode

	// Ruleset fields.
	rules []*compiledRule
}

type compiledRule struct {
	name       string
	doContinue bool
	where      *operator.Operator // nil means tautology
	extracts   []*extractor.Extractor
	actions    []*compiledAction
}

type compiledAction struct {
	id       string
	template *template
}

// Build compiles a Config tree into a Matcher (§4.4 "Compile"). Only
// active nodes are descended for rulesets' rule lists (inactive rules are
// dropped at compile time); inactive filter subtrees are still compiled
// (they are walked at process time so their subtree can be marked
// NotMatched). Compilation is fail-fast and total: the first invalid id,
// operator, extractor, or accessor aborts the whole build.
func Build(cfg *Config) (*Matcher, error) {
	root, err := buildNode(cfg, "")
	if err != nil {
		return nil, err
	}
	return &Matcher{root: root}, nil
}

func buildNode(cfg *Config, parentPath string) (*compiledNode, error) {
	if err := types.ValidateID("name", cfg.Name); err != nil {
		return nil, &types.ConfigurationError{Message: err.Error(), NodePath: parentPath}
	}
	path := parentPath + "/" + cfg.Name

	if cfg.IsFilter {
		seen := make(map[string]bool, len(cfg.Nodes))
		children := make([]*compiledNode, len(cfg.Nodes))
		for i, child := range cfg.Nodes {
			if seen[child.Name] {
				return nil, &types.ConfigurationError{
					Message:  fmt.Sprintf("duplicate sibling name %q", child.Name),
					NodePath: path,
				}
			}
			seen[child.Name] = true
			cc, err := buildNode(child, path)
			if err != nil {
				return nil, err
			}
			children[i] = cc
		}

		var pred *operator.Operator
		if !tautology(cfg.FilterPredicate) {
			var err error
			pred, err = operator.Build(cfg.FilterPredicate, path+"/filter")
			if err != nil {
				return nil, err
			}
		}

		return &compiledNode{
			isFilter: true,
			name:     cfg.Name,
			active:   cfg.Active,
			filter:   pred,
			children: children,
		}, nil
	}

	rules := make([]*compiledRule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		if !rc.Active {
			continue
		}
		cr, err := buildRule(rc, path)
		if err != nil {
			return nil, err
		}
		rules = append(rules, cr)
	}
	return &compiledNode{isFilter: false, name: cfg.Name, rules: rules}, nil
}

func buildRule(rc *RuleConfig, parentPath string) (*compiledRule, error) {
	if err := types.ValidateID("name", rc.Name); err != nil {
		return nil, &types.ConfigurationError{Message: err.Error(), NodePath: parentPath}
	}
	path := parentPath + "/" + rc.Name

	var where *operator.Operator
	if !tautology(rc.Constraint.Where) {
		var err error
		where, err = operator.Build(rc.Constraint.Where, path+"/WHERE")
		if err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(rc.Constraint.With))
	for name := range rc.Constraint.With {
		names = append(names, name)
	}
	sort.Strings(names)

	extracts := make([]*extractor.Extractor, 0, len(names))
	for _, name := range names {
		if err := types.ValidateID("extractor", name); err != nil {
			return nil, &types.ConfigurationError{Message: err.Error(), NodePath: path}
		}
		ex, err := extractor.Build(name, rc.Constraint.With[name], path+"/WITH/"+name)
		if err != nil {
			return nil, err
		}
		extracts = append(extracts, ex)
	}

	actions := make([]*compiledAction, len(rc.Actions))
	for i, ac := range rc.Actions {
		if err := types.ValidateID("action", ac.ID); err != nil {
			return nil, &types.ConfigurationError{Message: err.Error(), NodePath: path}
		}
		tpl, err := compileTemplate(ac.Payload)
		if err != nil {
			return nil, &types.ConfigurationError{
				Message:  fmt.Sprintf("action %q: %v", ac.ID, err),
				NodePath: path,
			}
		}
		actions[i] = &compiledAction{id: ac.ID, template: tpl}
	}

	return &compiledRule{
		name:       rc.Name,
		doContinue: rc.DoContinue,
		where:      where,
		extracts:   extracts,
		actions:    actions,
	}, nil
}
