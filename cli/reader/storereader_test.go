package reader

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pithecene-io/tornado/configstore/fsstore"
	"github.com/pithecene-io/tornado/matcher"
	"github.com/pithecene-io/tornado/metrics"
	"github.com/pithecene-io/tornado/permission"
)

func newTestStoreReader(t *testing.T) Reader {
	t.Helper()
	dir := t.TempDir()
	store, err := fsstore.Open(filepath.Join(dir, "config"), filepath.Join(dir, "drafts"))
	if err != nil {
		t.Fatalf("fsstore.Open failed: %v", err)
	}
	return NewStoreReader(store, metrics.NewCollector("test", "test"))
}

func TestStoreReader_InspectConfig_EmptyRoot(t *testing.T) {
	r := newTestStoreReader(t)
	resp, err := r.InspectConfig(context.Background())
	if err != nil {
		t.Fatalf("InspectConfig failed: %v", err)
	}
	if !resp.Tree.IsFilter {
		t.Error("expected the seeded empty config to be a root filter node")
	}
}

func TestStoreReader_DraftLifecycle(t *testing.T) {
	dir := t.TempDir()
	store, err := fsstore.Open(filepath.Join(dir, "config"), filepath.Join(dir, "drafts"))
	if err != nil {
		t.Fatalf("fsstore.Open failed: %v", err)
	}
	r := NewStoreReader(store, metrics.NewCollector("test", "test"))
	ctx := context.Background()

	items, err := r.ListDrafts(ctx)
	if err != nil {
		t.Fatalf("ListDrafts failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no drafts initially, got %d", len(items))
	}

	draftID, err := store.CreateDraft(ctx, "alice")
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	items, err = r.ListDrafts(ctx)
	if err != nil {
		t.Fatalf("ListDrafts after create failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 draft after create, got %d", len(items))
	}
	if items[0].DraftID != draftID || items[0].OwnerUser != "alice" {
		t.Errorf("unexpected draft item: %+v", items[0])
	}

	resp, err := r.InspectDraft(ctx, draftID)
	if err != nil {
		t.Fatalf("InspectDraft failed: %v", err)
	}
	if resp.DraftID != draftID || resp.OwnerUser != "alice" {
		t.Errorf("unexpected inspect response: %+v", resp)
	}
	if !resp.Tree.IsFilter {
		t.Error("expected the seeded draft's root to be a filter node")
	}

	cfg, err := store.GetConfig(ctx)
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	cfg.Active = false
	if err := store.UpdateDraft(ctx, draftID, "alice", cfg); err != nil {
		t.Fatalf("UpdateDraft failed: %v", err)
	}

	resp, err = r.InspectDraft(ctx, draftID)
	if err != nil {
		t.Fatalf("InspectDraft after update failed: %v", err)
	}
	if resp.Tree.Active {
		t.Error("expected updated draft's root to be inactive")
	}

	if err := store.DraftTakeOver(ctx, draftID, "bob"); err != nil {
		t.Fatalf("DraftTakeOver failed: %v", err)
	}
	resp, err = r.InspectDraft(ctx, draftID)
	if err != nil {
		t.Fatalf("InspectDraft after take-over failed: %v", err)
	}
	if resp.OwnerUser != "bob" {
		t.Errorf("OwnerUser = %q, want bob", resp.OwnerUser)
	}

	if _, err := store.DeployDraft(ctx, draftID); err != nil {
		t.Fatalf("DeployDraft failed: %v", err)
	}
	liveResp, err := r.InspectConfig(ctx)
	if err != nil {
		t.Fatalf("InspectConfig after deploy failed: %v", err)
	}
	if liveResp.Tree.Active {
		t.Error("expected deployed live config's root to be inactive")
	}

	if err := store.DeleteDraft(ctx, draftID); err != nil {
		t.Fatalf("DeleteDraft failed: %v", err)
	}
	if _, err := r.InspectDraft(ctx, draftID); err == nil {
		t.Error("expected error inspecting a deleted draft")
	}
}

func TestStoreReader_InspectDraft_NotFound(t *testing.T) {
	r := newTestStoreReader(t)
	_, err := r.InspectDraft(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing draft")
	}
}

func TestStoreReader_StatsMetrics(t *testing.T) {
	dir := t.TempDir()
	store, err := fsstore.Open(filepath.Join(dir, "config"), filepath.Join(dir, "drafts"))
	if err != nil {
		t.Fatalf("fsstore.Open failed: %v", err)
	}
	collector := metrics.NewCollector("test", "test")
	collector.IncEventsProcessed()

	r := NewStoreReader(store, collector)
	snap := r.StatsMetrics()
	if snap.EventsProcessed != 1 {
		t.Errorf("EventsProcessed = %d, want 1", snap.EventsProcessed)
	}
}

func TestStoreReader_InspectConfigFiltered_PrunesSiblings(t *testing.T) {
	dir := t.TempDir()
	store, err := fsstore.Open(filepath.Join(dir, "config"), filepath.Join(dir, "drafts"))
	if err != nil {
		t.Fatalf("fsstore.Open failed: %v", err)
	}
	ctx := context.Background()

	cfg, err := store.GetConfig(ctx)
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	cfg.IsFilter = true
	cfg.Active = true
	cfg.Nodes = []*matcher.Config{
		{IsFilter: true, Name: "us_east", Active: true},
		{IsFilter: true, Name: "us_west", Active: true},
	}
	if err := store.DeployConfig(ctx, cfg); err != nil {
		t.Fatalf("DeployConfig failed: %v", err)
	}

	r := NewStoreReader(store, metrics.NewCollector("test", "test"))

	nf := permission.Only(map[string]*permission.NodeFilter{"us_east": permission.All()})
	resp, err := r.InspectConfigFiltered(ctx, nf)
	if err != nil {
		t.Fatalf("InspectConfigFiltered failed: %v", err)
	}
	if len(resp.Tree.Children) != 1 {
		t.Fatalf("expected exactly 1 admitted child, got %d", len(resp.Tree.Children))
	}
	if resp.Tree.Children[0].Name != "us_east" {
		t.Errorf("Children[0].Name = %q, want us_east", resp.Tree.Children[0].Name)
	}

	full, err := r.InspectConfig(ctx)
	if err != nil {
		t.Fatalf("InspectConfig failed: %v", err)
	}
	if len(full.Tree.Children) != 2 {
		t.Fatalf("expected unfiltered InspectConfig to still see both children, got %d", len(full.Tree.Children))
	}
}

func TestStoreReader_StatsMetrics_NilCollector(t *testing.T) {
	dir := t.TempDir()
	store, err := fsstore.Open(filepath.Join(dir, "config"), filepath.Join(dir, "drafts"))
	if err != nil {
		t.Fatalf("fsstore.Open failed: %v", err)
	}
	r := NewStoreReader(store, nil)
	snap := r.StatsMetrics()
	if snap.EventsProcessed != 0 {
		t.Errorf("expected zero-value snapshot from a nil collector, got %+v", snap)
	}
}
