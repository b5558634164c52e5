// Package kvstore implements configstore.Store over Redis (§6.4): one
// key holds the serialized live MatcherConfig, one key per draft holds a
// serialized MatcherConfigDraft, and deploy/update operations are
// guarded by a Redis WATCH/MULTI transaction so a racing writer's write
// fails rather than silently clobbering (SPEC_FULL.md §13 CAS-on-deploy).
// Adapted from the teacher's adapter/redis publisher wiring idiom.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/tornado/configstore"
	"github.com/pithecene-io/tornado/matcher"
	"github.com/pithecene-io/tornado/types"
)

// Config configures the Redis-backed store.
type Config struct {
	// URL is the Redis connection URL (required). Format:
	// redis://[:password@]host:port[/db]
	URL string
	// Prefix namespaces this store's keys (e.g. "tornado").
	Prefix string
}

// Store is a Redis-backed configstore.Store.
type Store struct {
	client *goredis.Client
	prefix string
	live   *configstore.Live
}

// Open connects to Redis, seeds an empty live config if none exists yet,
// compiles it, and returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("kvstore: URL is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "tornado"
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("kvstore: invalid URL: %w", err)
	}

	return newFromClient(ctx, goredis.NewClient(opts), cfg.Prefix)
}

// newFromClient builds a Store around an already-constructed client,
// used directly by tests against a miniredis instance.
func newFromClient(ctx context.Context, client *goredis.Client, prefix string) (*Store, error) {
	s := &Store{client: client, prefix: prefix}

	cfg, err := s.readConfig(ctx)
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			return nil, err
		}
		cfg = &matcher.Config{IsFilter: true, Name: "root", Active: true}
		if err := s.writeConfig(ctx, cfg); err != nil {
			return nil, err
		}
	}

	m, err := matcher.Build(cfg)
	if err != nil {
		return nil, err
	}
	s.live = configstore.NewLive(m)
	return s, nil
}

func (s *Store) Live() *configstore.Live { return s.live }

func (s *Store) configKey() string        { return s.prefix + "/config" }
func (s *Store) draftKey(id string) string { return s.prefix + "/drafts/" + id }
func (s *Store) draftsPattern() string     { return s.prefix + "/drafts/*" }

func (s *Store) readConfig(ctx context.Context) (*matcher.Config, error) {
	data, err := s.client.Get(ctx, s.configKey()).Bytes()
	if err != nil {
		return nil, err
	}
	var cfg matcher.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &types.JSONDeserializationError{Message: "kvstore: live config", Err: err}
	}
	return &cfg, nil
}

func (s *Store) writeConfig(ctx context.Context, cfg *matcher.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.configKey(), data, 0).Err(); err != nil {
		return &types.InternalSystemError{Message: "kvstore: write live config", Err: err}
	}
	return nil
}

// GetConfig returns the live config currently stored.
func (s *Store) GetConfig(ctx context.Context) (*matcher.Config, error) {
	return s.readConfig(ctx)
}

// GetDrafts lists draft ids by scanning the drafts key pattern.
func (s *Store) GetDrafts(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.draftsPattern(), 0).Iterator()
	prefixLen := len(s.prefix + "/drafts/")
	for iter.Next(ctx) {
		key := iter.Val()
		if len(key) > prefixLen {
			ids = append(ids, key[prefixLen:])
		}
	}
	if err := iter.Err(); err != nil {
		return nil, &types.InternalSystemError{Message: "kvstore: scan drafts", Err: err}
	}
	return ids, nil
}

// GetDraft reads one draft by id.
func (s *Store) GetDraft(ctx context.Context, id string) (*configstore.Draft, error) {
	return s.readDraft(ctx, id)
}

func (s *Store) readDraft(ctx context.Context, id string) (*configstore.Draft, error) {
	data, err := s.client.Get(ctx, s.draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, &types.InternalSystemError{Message: fmt.Sprintf("kvstore: draft %q not found", id)}
		}
		return nil, &types.InternalSystemError{Message: "kvstore: read draft", Err: err}
	}
	var draft configstore.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, &types.JSONDeserializationError{Message: "kvstore: draft " + id, Err: err}
	}
	return &draft, nil
}

func (s *Store) writeDraft(ctx context.Context, draft *configstore.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.draftKey(draft.Data.DraftID), data, 0).Err(); err != nil {
		return &types.InternalSystemError{Message: "kvstore: write draft", Err: err}
	}
	return nil
}

// CreateDraft seeds a draft from the current live config.
func (s *Store) CreateDraft(ctx context.Context, user string) (string, error) {
	cfg, err := s.readConfig(ctx)
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
	if err := s.writeDraft(ctx, draft); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateDraft validates cfg and, under a WATCH on the draft's key,
// replaces its config (CAS-on-update, SPEC_FULL.md §13).
func (s *Store) UpdateDraft(ctx context.Context, id, user string, cfg *matcher.Config) error {
	if err := configstore.Validate(cfg); err != nil {
		return err
	}
	return s.casDraft(ctx, id, func(draft *configstore.Draft) {
		draft.Config = cfg
		draft.Data.UpdatedMs = nowMs()
	})
}

// DraftTakeOver reassigns a draft's owner without touching its config.
func (s *Store) DraftTakeOver(ctx context.Context, id, user string) error {
	return s.casDraft(ctx, id, func(draft *configstore.Draft) {
		draft.Data.OwnerUser = user
		draft.Data.UpdatedMs = nowMs()
	})
}

// casDraft reads, mutates, and writes back a draft under a Redis
// transaction watching the draft's key, matching the "CAS against the
// stored revision" contract (§5). A write to that key by another client
// between the read and the write aborts the transaction, and casDraft
// returns the error without retrying.
func (s *Store) casDraft(ctx context.Context, id string, mutate func(*configstore.Draft)) error {
	key := s.draftKey(id)
	txf := func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return &types.InternalSystemError{Message: fmt.Sprintf("kvstore: draft %q not found", id)}
			}
			return err
		}
		var draft configstore.Draft
		if err := json.Unmarshal(data, &draft); err != nil {
			return &types.JSONDeserializationError{Message: "kvstore: draft " + id, Err: err}
		}
		mutate(&draft)
		newData, err := json.Marshal(&draft)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, newData, 0)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if err != nil {
		return &types.InternalSystemError{Message: "kvstore: draft CAS", Err: err}
	}
	return nil
}

// DeleteDraft removes a draft key.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.draftKey(id)).Result()
	if err != nil {
		return &types.InternalSystemError{Message: "kvstore: delete draft", Err: err}
	}
	if n == 0 {
		return &types.InternalSystemError{Message: fmt.Sprintf("kvstore: draft %q not found", id)}
	}
	return nil
}

// DeployDraft deploys the named draft's config as live.
func (s *Store) DeployDraft(ctx context.Context, id string) (*matcher.Config, error) {
	draft, err := s.readDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.DeployConfig(ctx, draft.Config)
}

// DeployConfig validates cfg, writes it under a WATCH/MULTI transaction
// on the config key, and swaps the in-process matcher on success.
func (s *Store) DeployConfig(ctx context.Context, cfg *matcher.Config) (*matcher.Config, error) {
	if err := configstore.Validate(cfg); err != nil {
		return nil, err
	}
	m, err := matcher.Build(cfg)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	key := s.configKey()
	txf := func(tx *goredis.Tx) error {
		// Read-then-write under WATCH: a concurrent deploy that commits
		// first invalidates this transaction and go-redis surfaces
		// goredis.TxFailedErr, which the caller can retry (§4.5/§13).
		if _, err := tx.Get(ctx, key).Result(); err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txf, key); err != nil {
		return nil, &types.InternalSystemError{Message: "kvstore: deploy CAS", Err: err}
	}

	s.live.Swap(m)
	return cfg, nil
}

