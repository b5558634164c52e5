package matcher

import "github.com/pithecene-io/tornado/types"

// FilterStatus is the processed status of a Filter node (§4.4).
type FilterStatus int

const (
	FilterMatched FilterStatus = iota
	FilterNotMatched
	FilterInactive
)

// RuleStatus is the processed status of one rule within a Ruleset (§4.4).
type RuleStatus int

const (
	RuleMatched RuleStatus = iota
	RulePartiallyMatched
	RuleNotMatched
	RuleNotProcessed
)

// ProcessedNode is the output tree produced by Process, isomorphic to the
// compiled Matcher tree (§4.4 "Output").
type ProcessedNode struct {
	IsFilter bool

	// Filter fields.
	Name     string
	Status   FilterStatus
	Children []*ProcessedNode

	// Ruleset fields.
	RulesetName   string
	Rules         []*ProcessedRule
	ExtractedVars *types.Object // only populated when includeMetadata
}

// ProcessedRule is one rule's outcome within a processed Ruleset.
type ProcessedRule struct {
	Name    string
	Status  RuleStatus
	Actions []*types.Action
}

// Process evaluates event against the compiled matcher, producing a
// ProcessedNode tree. includeMetadata controls whether per-ruleset
// extracted variables are attached to the output (§4.4 "Output"). process
// is non-suspending and a pure function of (matcher, event).
func Process(m *Matcher, event *types.Event, includeMetadata bool) *ProcessedNode {
	return processNode(m.root, event, includeMetadata, true)
}

func processNode(n *compiledNode, event *types.Event, includeMetadata, ancestorActive bool) *ProcessedNode {
	if n.isFilter {
		return processFilter(n, event, includeMetadata, ancestorActive)
	}
	return processRuleset(n, event, includeMetadata, ancestorActive)
}

// processFilter evaluates one Filter node (§4.4 step 1). A filter with
// active=false reports FilterInactive and blocks matches in its subtree
// regardless of the predicate. An active filter reports Matched or
// NotMatched according to its predicate (absent predicate is a
// tautology). Either way, children are always visited — rule results are
// still produced down the tree, but childActive carries forward whether
// any of those rules can actually be recorded as matched.
func processFilter(n *compiledNode, event *types.Event, includeMetadata, ancestorActive bool) *ProcessedNode {
	var status FilterStatus
	childActive := ancestorActive

	switch {
	case !n.active:
		status = FilterInactive
		childActive = false
	case n.filter == nil:
		status = FilterMatched
	default:
		ie := types.NewInternalEvent(event)
		if n.filter.Evaluate(ie) {
			status = FilterMatched
		} else {
			status = FilterNotMatched
			childActive = false
		}
	}

	children := make([]*ProcessedNode, len(n.children))
	for i, c := range n.children {
		children[i] = processNode(c, event, includeMetadata, childActive)
	}

	return &ProcessedNode{
		IsFilter: true,
		Name:     n.name,
		Status:   status,
		Children: children,
	}
}

func processRuleset(n *compiledNode, event *types.Event, includeMetadata, active bool) *ProcessedNode {
	rules := make([]*ProcessedRule, 0, len(n.rules))
	extracted := types.NewExtractedVars()
	stopped := false

	for _, r := range n.rules {
		if stopped {
			rules = append(rules, &ProcessedRule{Name: r.name, Status: RuleNotProcessed})
			continue
		}

		ruleExtracted := types.NewExtractedVars()
		for _, ex := range r.extracts {
			if v, ok := ex.Extract(event, ruleExtracted); ok {
				ruleExtracted.Set(ex.Name, v)
			}
		}

		mergeExtracted(extracted, ruleExtracted)

		ie := &types.InternalEvent{Event: event, Extract: ruleExtracted}
		matched := active
		if matched && r.where != nil {
			matched = r.where.Evaluate(ie)
		}

		if !matched {
			rules = append(rules, &ProcessedRule{Name: r.name, Status: RuleNotMatched})
			continue
		}

		actions, ok := resolveActions(r.actions, event, ruleExtracted)
		if !ok {
			rules = append(rules, &ProcessedRule{Name: r.name, Status: RulePartiallyMatched})
			continue
		}

		rules = append(rules, &ProcessedRule{Name: r.name, Status: RuleMatched, Actions: actions})

		if !r.doContinue {
			stopped = true
		}
	}

	out := &ProcessedNode{
		IsFilter:    false,
		RulesetName: n.name,
		Rules:       rules,
	}
	if includeMetadata {
		if obj, ok := extracted.AsValue().AsObject(); ok {
			out.ExtractedVars = obj
		}
	}
	return out
}

func mergeExtracted(dst, src *types.ExtractedVars) {
	if obj, ok := src.AsValue().AsObject(); ok {
		for _, k := range obj.Keys() {
			v, _ := obj.Get(k)
			dst.Set(k, v)
		}
	}
}

func resolveActions(actions []*compiledAction, event *types.Event, extracted *types.ExtractedVars) ([]*types.Action, bool) {
	out := make([]*types.Action, len(actions))
	for i, a := range actions {
		v, ok := a.template.resolve(event, extracted)
		if !ok {
			return nil, false
		}
		out[i] = &types.Action{ID: a.id, Payload: v, TraceID: &event.TraceID}
	}
	return out, true
}
