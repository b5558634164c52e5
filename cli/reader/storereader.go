package reader

import (
	"context"

	"github.com/pithecene-io/tornado/configstore"
	"github.com/pithecene-io/tornado/matcher"
	"github.com/pithecene-io/tornado/metrics"
	"github.com/pithecene-io/tornado/permission"
)

// storeReader is the real Reader implementation, backed by a
// configstore.Store and the metrics.Collector the runtime wires
// matcher/dispatcher/executor events into.
type storeReader struct {
	store     configstore.Store
	collector *metrics.Collector
}

// NewStoreReader builds a Reader backed by store, reporting metrics from
// collector. collector may be nil, in which case StatsMetrics returns a
// zero-value Snapshot.
func NewStoreReader(store configstore.Store, collector *metrics.Collector) Reader {
	return &storeReader{store: store, collector: collector}
}

func (r *storeReader) InspectConfig(ctx context.Context) (*InspectConfigResponse, error) {
	cfg, err := r.store.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &InspectConfigResponse{Tree: summarizeNode(cfg)}, nil
}

func (r *storeReader) InspectDraft(ctx context.Context, id string) (*InspectDraftResponse, error) {
	draft, err := r.store.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InspectDraftResponse{
		DraftID:   draft.Data.DraftID,
		OwnerUser: draft.Data.OwnerUser,
		CreatedMs: draft.Data.CreatedMs,
		UpdatedMs: draft.Data.UpdatedMs,
		Tree:      summarizeNode(draft.Config),
	}, nil
}

func (r *storeReader) InspectConfigFiltered(ctx context.Context, nf *permission.NodeFilter) (*InspectConfigResponse, error) {
	cfg, err := r.store.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &InspectConfigResponse{Tree: summarizeNode(permission.Prune(cfg, nf))}, nil
}

func (r *storeReader) InspectDraftFiltered(ctx context.Context, id string, nf *permission.NodeFilter) (*InspectDraftResponse, error) {
	draft, err := r.store.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InspectDraftResponse{
		DraftID:   draft.Data.DraftID,
		OwnerUser: draft.Data.OwnerUser,
		CreatedMs: draft.Data.CreatedMs,
		UpdatedMs: draft.Data.UpdatedMs,
		Tree:      summarizeNode(permission.Prune(draft.Config, nf)),
	}, nil
}

func (r *storeReader) ListDrafts(ctx context.Context) ([]ListDraftItem, error) {
	ids, err := r.store.GetDrafts(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]ListDraftItem, 0, len(ids))
	for _, id := range ids {
		draft, err := r.store.GetDraft(ctx, id)
		if err != nil {
			continue
		}
		items = append(items, ListDraftItem{
			DraftID:   draft.Data.DraftID,
			OwnerUser: draft.Data.OwnerUser,
			UpdatedMs: draft.Data.UpdatedMs,
		})
	}
	return items, nil
}

func (r *storeReader) StatsMetrics() metrics.Snapshot {
	return r.collector.Snapshot()
}

// summarizeNode renders a matcher.Config tree into the rendering-friendly
// NodeSummary shape, recursing through filter children and listing rule
// names for a ruleset leaf.
func summarizeNode(cfg *matcher.Config) NodeSummary {
	if cfg == nil {
		return NodeSummary{}
	}

	if !cfg.IsFilter {
		names := make([]string, len(cfg.Rules))
		for i, rule := range cfg.Rules {
			names[i] = rule.Name
		}
		return NodeSummary{Name: cfg.Name, Rules: names}
	}

	children := make([]NodeSummary, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		children[i] = summarizeNode(n)
	}
	return NodeSummary{
		IsFilter: true,
		Name:     cfg.Name,
		Active:   cfg.Active,
		Children: children,
	}
}
