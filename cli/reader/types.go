// Package reader provides the read-side data access layer for the
// tornado CLI: inspect/list/stats views over the configuration store and
// the live matcher's metrics, isolated from the CLI command wiring so
// that read-only commands can be tested against a stub implementation.
package reader

// NodeSummary is a rendering-friendly view of one matcher.Config tree
// node (filter or ruleset), used by both the "inspect draft"/"inspect
// config" commands and their TUI counterparts.
type NodeSummary struct {
	IsFilter bool          `json:"is_filter"`
	Name     string        `json:"name"`
	Active   bool          `json:"active,omitempty"`
	Rules    []string      `json:"rules,omitempty"`
	Children []NodeSummary `json:"children,omitempty"`
}

// InspectConfigResponse is the deep view of the live deployed config.
type InspectConfigResponse struct {
	Tree NodeSummary `json:"tree"`
}

// InspectDraftResponse is the deep view of one draft.
type InspectDraftResponse struct {
	DraftID   string      `json:"draft_id"`
	OwnerUser string      `json:"owner_user"`
	CreatedMs uint64      `json:"created_ms"`
	UpdatedMs uint64      `json:"updated_ms"`
	Tree      NodeSummary `json:"tree"`
}

// ListDraftItem is the thin slice returned by "list drafts".
type ListDraftItem struct {
	DraftID   string `json:"draft_id"`
	OwnerUser string `json:"owner_user"`
	UpdatedMs uint64 `json:"updated_ms"`
}
