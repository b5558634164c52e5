// Package fsstore implements configstore.Store over a filesystem tree
// (§6.3): the live MatcherConfig is a directory tree (one subdirectory
// per Filter, a rules.d/ directory marking a Ruleset leaf), and each
// draft is a directory holding meta.json and config.json under a drafts
// directory.
// Writes are serialized by an flock-guarded temp-directory-then-rename
// swap, since the corpus carries no distributed-lock library and the
// teacher itself reaches for syscall directly for process control
// (runtime/executor.go).
package fsstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/pithecene-io/tornado/configstore"
	"github.com/pithecene-io/tornado/matcher"
	"github.com/pithecene-io/tornado/types"
)

// Store is a filesystem-tree-backed configstore.Store.
type Store struct {
	rootDir   string
	draftsDir string
	lockPath  string

	mu   sync.Mutex
	live *configstore.Live
}

// Open loads the live config tree rooted at rootDir (creating it, empty,
// if it does not yet exist), compiles it, and returns a ready Store.
// draftsDir holds one subdirectory per draft.
func Open(rootDir, draftsDir string) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, &types.InternalSystemError{Message: "fsstore: create root dir", Err: err}
	}
	if err := os.MkdirAll(draftsDir, 0o755); err != nil {
		return nil, &types.InternalSystemError{Message: "fsstore: create drafts dir", Err: err}
	}

	cfg, err := loadNode(rootDir, "root")
	if err != nil {
		return nil, err
	}
	m, err := matcher.Build(cfg)
	if err != nil {
		return nil, err
	}

	return &Store{
		rootDir:   rootDir,
		draftsDir: draftsDir,
		lockPath:  filepath.Join(filepath.Dir(rootDir), ".tornado-fsstore.lock"),
		live:      configstore.NewLive(m),
	}, nil
}

func (s *Store) Live() *configstore.Live { return s.live }

// GetConfig returns the config tree currently on disk.
func (s *Store) GetConfig(ctx context.Context) (*matcher.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadNode(s.rootDir, "root")
}

func (s *Store) draftDir(id string) string { return filepath.Join(s.draftsDir, id) }

// GetDrafts lists draft ids by the subdirectories of draftsDir.
func (s *Store) GetDrafts(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.draftsDir)
	if err != nil {
		return nil, &types.InternalSystemError{Message: "fsstore: list drafts", Err: err}
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// GetDraft reads one draft's meta.json and config.json.
func (s *Store) GetDraft(ctx context.Context, id string) (*configstore.Draft, error) {
	return readDraft(s.draftDir(id))
}

// CreateDraft seeds a draft from the current live config.
func (s *Store) CreateDraft(ctx context.Context, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := loadNode(s.rootDir, "root")
	if err != nil {
		return "", err
	}
	cfg = configstore.WrapBareRuleset(cfg)

	id := uuid.NewString()
	now := nowMs()
	draft := &configstore.Draft{
		Data: configstore.DraftMeta{
			DraftID:   id,
			OwnerUser: user,
			CreatedMs: now,
			UpdatedMs: now,
		},
		Config: cfg,
	}
	if err := writeDraft(s.draftDir(id), draft); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateDraft validates cfg and atomically replaces the draft's config.
func (s *Store) UpdateDraft(ctx context.Context, id, user string, cfg *matcher.Config) error {
	if err := configstore.Validate(cfg); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := readDraft(s.draftDir(id))
	if err != nil {
		return err
	}
	draft.Config = cfg
	draft.Data.UpdatedMs = nowMs()
	return writeDraft(s.draftDir(id), draft)
}

// DraftTakeOver reassigns a draft's owner without touching its config.
func (s *Store) DraftTakeOver(ctx context.Context, id, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := readDraft(s.draftDir(id))
	if err != nil {
		return err
	}
	draft.Data.OwnerUser = user
	draft.Data.UpdatedMs = nowMs()
	return writeDraft(s.draftDir(id), draft)
}

// DeleteDraft removes a draft's directory entirely.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.draftDir(id)
	if _, err := os.Stat(dir); err != nil {
		return &types.InternalSystemError{Message: fmt.Sprintf("fsstore: draft %q not found", id), Err: err}
	}
	if err := os.RemoveAll(dir); err != nil {
		return &types.InternalSystemError{Message: "fsstore: delete draft", Err: err}
	}
	return nil
}

// DeployDraft deploys the named draft's config as live.
func (s *Store) DeployDraft(ctx context.Context, id string) (*matcher.Config, error) {
	draft, err := s.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.DeployConfig(ctx, draft.Config)
}

// DeployConfig validates cfg, writes it as the live tree under an
// flock-guarded temp-directory-then-rename swap, rebuilds the matcher,
// and atomically publishes it via Live.
func (s *Store) DeployConfig(ctx context.Context, cfg *matcher.Config) (*matcher.Config, error) {
	if err := configstore.Validate(cfg); err != nil {
		return nil, err
	}

	m, err := matcher.Build(cfg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := withFileLock(s.lockPath, func() error {
		tmp := s.rootDir + ".tmp"
		if err := os.RemoveAll(tmp); err != nil {
			return err
		}
		if err := os.MkdirAll(tmp, 0o755); err != nil {
			return err
		}
		if err := writeNode(tmp, cfg); err != nil {
			return err
		}
		old := s.rootDir + ".old"
		_ = os.RemoveAll(old)
		if err := os.Rename(s.rootDir, old); err != nil {
			return err
		}
		if err := os.Rename(tmp, s.rootDir); err != nil {
			// Best-effort restore so a failed swap leaves the old
			// matcher in place (§4.5 "a failed swap leaves the old
			// matcher in place").
			_ = os.Rename(old, s.rootDir)
			return err
		}
		return os.RemoveAll(old)
	}); err != nil {
		return nil, &types.InternalSystemError{Message: "fsstore: deploy swap", Err: err}
	}

	s.live.Swap(m)
	return cfg, nil
}
