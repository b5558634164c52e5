// Package permission prunes a MatcherConfig tree down to the nodes a
// caller is entitled to see (§4.7), without touching the nodes' own
// contents: a Ruleset's rules are never filtered, only whether the
// Ruleset itself is visible at all.
package permission

import "github.com/pithecene-io/tornado/matcher"

// Kind discriminates the three shapes a NodeFilter can take.
type Kind int

const (
	// AllChildren includes the entire subtree below this node verbatim.
	AllChildren Kind = iota
	// NoChildren includes the node itself but none of its children.
	NoChildren
	// SelectedChildren includes only the named children, each pruned by
	// its own NodeFilter.
	SelectedChildren
)

// NodeFilter specifies, for one Filter node, which of its direct children
// are visible to a caller (§4.7).
type NodeFilter struct {
	Kind     Kind
	Selected map[string]*NodeFilter
}

// All returns a NodeFilter admitting an entire subtree.
func All() *NodeFilter { return &NodeFilter{Kind: AllChildren} }

// None returns a NodeFilter admitting no children.
func None() *NodeFilter { return &NodeFilter{Kind: NoChildren} }

// Only returns a NodeFilter admitting exactly the named children, each
// recursively pruned by the given NodeFilter.
func Only(selected map[string]*NodeFilter) *NodeFilter {
	return &NodeFilter{Kind: SelectedChildren, Selected: selected}
}

// Prune returns a MatcherConfig sub-tree isomorphic to cfg but containing
// only the nodes nf admits. The recursion descends only through Filter
// nodes; a Ruleset reached through an admitted path is always included
// whole, its rules never filtered (§4.7).
func Prune(cfg *matcher.Config, nf *NodeFilter) *matcher.Config {
	if !cfg.IsFilter {
		return cfg
	}

	out := &matcher.Config{
		IsFilter:        true,
		Name:            cfg.Name,
		FilterPredicate: cfg.FilterPredicate,
		Active:          cfg.Active,
		Description:     cfg.Description,
	}

	switch nf.Kind {
	case AllChildren:
		out.Nodes = cfg.Nodes
	case NoChildren:
		out.Nodes = nil
	case SelectedChildren:
		out.Nodes = make([]*matcher.Config, 0, len(cfg.Nodes))
		for _, child := range cfg.Nodes {
			childFilter, ok := nf.Selected[child.Name]
			if !ok {
				continue
			}
			out.Nodes = append(out.Nodes, Prune(child, childFilter))
		}
	}
	return out
}
