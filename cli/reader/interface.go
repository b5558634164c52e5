package reader

import (
	"context"

	"github.com/pithecene-io/tornado/metrics"
	"github.com/pithecene-io/tornado/permission"
)

// Reader abstracts read-only data access for CLI commands. All methods
// are read-only and must not mutate the config store or the live
// matcher snapshot.
type Reader interface {
	// Inspect operations
	InspectConfig(ctx context.Context) (*InspectConfigResponse, error)
	InspectDraft(ctx context.Context, id string) (*InspectDraftResponse, error)

	// InspectConfigFiltered and InspectDraftFiltered restrict the
	// returned tree to the nodes nf admits (§4.7), for callers that
	// should only see a subtree of the live config or a draft.
	InspectConfigFiltered(ctx context.Context, nf *permission.NodeFilter) (*InspectConfigResponse, error)
	InspectDraftFiltered(ctx context.Context, id string, nf *permission.NodeFilter) (*InspectDraftResponse, error)

	// List operations
	ListDrafts(ctx context.Context) ([]ListDraftItem, error)

	// Stats operations
	StatsMetrics() metrics.Snapshot
}

// defaultReader is the package-level reader instance, initialized to a
// StubReader until SetReader wires up a real configstore-backed one.
var defaultReader Reader = NewStubReader()

// SetReader sets the package-level reader instance.
func SetReader(r Reader) {
	defaultReader = r
}

// GetReader returns the current package-level reader instance.
func GetReader() Reader {
	return defaultReader
}
