// Package reader provides the read-side data access layer for the
// tornado CLI.
//
// This package isolates all read operations from configstore/matcher
// internals. All read-only commands use this wrapper exclusively.
//
// The package uses dependency injection via SetReader() to allow
// swapping between a stub and a configstore-backed implementation.
// Default is StubReader.
package reader

import (
	"context"

	"github.com/pithecene-io/tornado/metrics"
	"github.com/pithecene-io/tornado/permission"
)

// InspectConfig returns the deep view of the live deployed config.
// Delegates to the package-level reader.
func InspectConfig(ctx context.Context) (*InspectConfigResponse, error) {
	return defaultReader.InspectConfig(ctx)
}

// InspectDraft returns the deep view of one draft.
// Delegates to the package-level reader.
func InspectDraft(ctx context.Context, id string) (*InspectDraftResponse, error) {
	return defaultReader.InspectDraft(ctx, id)
}

// InspectConfigFiltered returns the live config restricted to the
// subtree nf admits. Delegates to the package-level reader.
func InspectConfigFiltered(ctx context.Context, nf *permission.NodeFilter) (*InspectConfigResponse, error) {
	return defaultReader.InspectConfigFiltered(ctx, nf)
}

// InspectDraftFiltered returns one draft restricted to the subtree nf
// admits. Delegates to the package-level reader.
func InspectDraftFiltered(ctx context.Context, id string, nf *permission.NodeFilter) (*InspectDraftResponse, error) {
	return defaultReader.InspectDraftFiltered(ctx, id, nf)
}

// ListDrafts returns the thin slice of all stored drafts.
// Delegates to the package-level reader.
func ListDrafts(ctx context.Context) ([]ListDraftItem, error) {
	return defaultReader.ListDrafts(ctx)
}

// StatsMetrics returns the current metrics snapshot.
// Delegates to the package-level reader.
func StatsMetrics() metrics.Snapshot {
	return defaultReader.StatsMetrics()
}
