// Package configstore defines the MatcherConfig "reader/editor" contract
// (§4.5, component F): reading the live config, the draft workflow
// (create/get/update/take-over/delete/deploy), and the atomic in-process
// swap that rebuilds the matcher after a successful deploy. Concrete
// backends (fsstore, kvstore, s3store) implement Store against a
// filesystem tree, Redis, and S3 respectively.
package configstore

import (
	"context"

	"github.com/pithecene-io/tornado/matcher"
)

// DraftMeta is the `data` half of a MatcherConfigDraft (§3.8).
type DraftMeta struct {
	DraftID   string `json:"draft_id"`
	OwnerUser string `json:"owner_user"`
	CreatedMs uint64 `json:"created_ms"`
	UpdatedMs uint64 `json:"updated_ms"`
}

// Draft is a versioned edit of a MatcherConfig awaiting deploy (§3.8).
type Draft struct {
	Data   DraftMeta      `json:"data"`
	Config *matcher.Config `json:"config"`
}

// Store is the configuration store contract (§4.5). Every operation that
// writes a config validates it first (fail-fast, the previous state is
// left untouched on error); deploy operations additionally rebuild and
// atomically swap the in-process matcher snapshot returned by Live.
type Store interface {
	// GetConfig returns an atomic snapshot of the live MatcherConfig.
	GetConfig(ctx context.Context) (*matcher.Config, error)
	// GetDrafts lists the ids of all drafts currently stored.
	GetDrafts(ctx context.Context) ([]string, error)
	// GetDraft returns one draft by id.
	GetDraft(ctx context.Context, id string) (*Draft, error)
	// CreateDraft seeds a new draft from the current live config (wrapping
	// a bare Ruleset in a default root Filter) and returns its id.
	CreateDraft(ctx context.Context, user string) (string, error)
	// UpdateDraft validates cfg and atomically replaces the draft's
	// config, bumping UpdatedMs. It does not change OwnerUser.
	UpdateDraft(ctx context.Context, id, user string, cfg *matcher.Config) error
	// DraftTakeOver reassigns a draft's owner without touching its config.
	DraftTakeOver(ctx context.Context, id, user string) error
	// DeleteDraft removes a draft.
	DeleteDraft(ctx context.Context, id string) error
	// DeployDraft deploys the named draft's config as live.
	DeployDraft(ctx context.Context, id string) (*matcher.Config, error)
	// DeployConfig validates cfg, installs it as live, and rebuilds the
	// in-process matcher.
	DeployConfig(ctx context.Context, cfg *matcher.Config) (*matcher.Config, error)
	// Live returns the store's shared handle to the current compiled
	// matcher snapshot, rebuilt on every successful deploy.
	Live() *Live
}
