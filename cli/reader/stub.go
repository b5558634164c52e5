package reader

import (
	"context"

	"github.com/pithecene-io/tornado/metrics"
	"github.com/pithecene-io/tornado/permission"
)

// StubReader returns shape-correct stub data, for development and for
// CLI command tests that do not want to stand up a real configstore.
type StubReader struct{}

// NewStubReader creates a new stub reader.
func NewStubReader() *StubReader {
	return &StubReader{}
}

// InspectConfig returns a stub live-config view.
func (r *StubReader) InspectConfig(_ context.Context) (*InspectConfigResponse, error) {
	return &InspectConfigResponse{
		Tree: NodeSummary{
			IsFilter: true,
			Name:     "root",
			Active:   true,
			Children: []NodeSummary{
				{Name: "default", Rules: []string{"stub-rule"}},
			},
		},
	}, nil
}

// InspectDraft returns a stub draft view.
func (r *StubReader) InspectDraft(_ context.Context, id string) (*InspectDraftResponse, error) {
	return &InspectDraftResponse{
		DraftID:   id,
		OwnerUser: "stub-user",
		CreatedMs: 0,
		UpdatedMs: 0,
		Tree: NodeSummary{
			IsFilter: true,
			Name:     "root",
			Active:   true,
		},
	}, nil
}

// InspectConfigFiltered ignores nf and returns the same stub tree.
func (r *StubReader) InspectConfigFiltered(ctx context.Context, _ *permission.NodeFilter) (*InspectConfigResponse, error) {
	return r.InspectConfig(ctx)
}

// InspectDraftFiltered ignores nf and returns the same stub tree.
func (r *StubReader) InspectDraftFiltered(ctx context.Context, id string, _ *permission.NodeFilter) (*InspectDraftResponse, error) {
	return r.InspectDraft(ctx, id)
}

// ListDrafts returns a single stub draft item.
func (r *StubReader) ListDrafts(_ context.Context) ([]ListDraftItem, error) {
	return []ListDraftItem{
		{DraftID: "stub-draft-001", OwnerUser: "stub-user"},
	}, nil
}

// StatsMetrics returns a zero-value metrics snapshot.
func (r *StubReader) StatsMetrics() metrics.Snapshot {
	return metrics.Snapshot{}
}
