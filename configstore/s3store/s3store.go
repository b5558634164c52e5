// Package s3store implements configstore.Store over S3 (§12.1): the live
// config and each draft are objects under the same key layout kvstore
// uses (<prefix>/config, <prefix>/drafts/<draft_id>), and CAS-on-write is
// enforced with S3's conditional-write IfMatch/IfNoneMatch headers against
// the object's ETag rather than a Redis WATCH/MULTI transaction. Adapted
// from the teacher's lode/client_s3.go AWS SDK v2 wiring idiom.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/pithecene-io/tornado/matcher"
	tornadotypes "github.com/pithecene-io/tornado/types"

	"github.com/pithecene-io/tornado/configstore"
)

// Config configures the S3-backed store.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix namespaces this store's keys within the bucket (e.g. "tornado").
	Prefix string
	// Region is the AWS region (optional, uses the default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing, required by most
	// S3-compatible providers.
	UsePathStyle bool
}

func (c *Config) validate() error {
	if c.Bucket == "" {
		return errors.New("s3store: Bucket is required")
	}
	return nil
}

// Store is an S3-backed configstore.Store.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	live   *configstore.Live
}

// Open loads AWS credentials via the default chain, constructs the S3
// client, seeds an empty live config if none exists yet, and returns a
// ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "tornado"
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3store: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = &endpoint })
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	return newFromClient(ctx, s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.Prefix)
}

// newFromClient builds a Store around an already-constructed client;
// Open calls it once the client is configured.
func newFromClient(ctx context.Context, client *s3.Client, bucket, prefix string) (*Store, error) {
	s := &Store{client: client, bucket: bucket, prefix: prefix}

	cfg, _, err := s.readConfig(ctx)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		cfg = &matcher.Config{IsFilter: true, Name: "root", Active: true}
		if _, err := s.writeConfig(ctx, cfg, nil); err != nil {
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

func (s *Store) configKey() string         { return s.prefix + "/config" }
func (s *Store) draftKey(id string) string { return s.prefix + "/drafts/" + id }
func (s *Store) draftsPrefix() string      { return s.prefix + "/drafts/" }

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound"
	}
	return false
}

// isPreconditionFailed reports whether err is the HTTP 412 S3 returns when
// an IfMatch/IfNoneMatch conditional write loses a race.
func isPreconditionFailed(err error) bool {
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "PreconditionFailed"
	}
	return false
}

// getObject fetches an object's body and current ETag.
func (s *Store) getObject(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", err
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", &tornadotypes.InternalSystemError{Message: "s3store: read object " + key, Err: err}
	}
	etag := ""
	if out.ETag != nil {
		etag = *out.ETag
	}
	return data, etag, nil
}

// putObject writes an object. When ifMatch is non-nil, the write is
// conditioned on the object's current ETag equalling *ifMatch (CAS-on-
// update); when ifMatch is a pointer to an empty string, the write is
// conditioned on the object not existing yet (CAS-on-create).
func (s *Store) putObject(ctx context.Context, key string, data []byte, ifMatch *string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if ifMatch != nil {
		if *ifMatch == "" {
			in.IfNoneMatch = aws.String("*")
		} else {
			in.IfMatch = ifMatch
		}
	}
	out, err := s.client.PutObject(ctx, in)
	if err != nil {
		if isPreconditionFailed(err) {
			return "", &tornadotypes.InternalSystemError{Message: "s3store: conditional write conflict on " + key, Err: err}
		}
		return "", &tornadotypes.InternalSystemError{Message: "s3store: write object " + key, Err: err}
	}
	etag := ""
	if out.ETag != nil {
		etag = *out.ETag
	}
	return etag, nil
}

func (s *Store) readConfig(ctx context.Context) (*matcher.Config, string, error) {
	data, etag, err := s.getObject(ctx, s.configKey())
	if err != nil {
		return nil, "", err
	}
	var cfg matcher.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, "", &tornadotypes.JSONDeserializationError{Message: "s3store: live config", Err: err}
	}
	return &cfg, etag, nil
}

func (s *Store) writeConfig(ctx context.Context, cfg *matcher.Config, ifMatch *string) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return s.putObject(ctx, s.configKey(), data, ifMatch)
}

// GetConfig returns the live config currently stored.
func (s *Store) GetConfig(ctx context.Context) (*matcher.Config, error) {
	cfg, _, err := s.readConfig(ctx)
	return cfg, err
}

// GetDrafts lists draft ids by listing objects under the drafts prefix.
func (s *Store) GetDrafts(ctx context.Context) ([]string, error) {
	var ids []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.draftsPrefix()),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, &tornadotypes.InternalSystemError{Message: "s3store: list drafts", Err: err}
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			ids = append(ids, (*obj.Key)[len(s.draftsPrefix()):])
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return ids, nil
}

// GetDraft reads one draft by id.
func (s *Store) GetDraft(ctx context.Context, id string) (*configstore.Draft, error) {
	draft, _, err := s.readDraft(ctx, id)
	return draft, err
}

func (s *Store) readDraft(ctx context.Context, id string) (*configstore.Draft, string, error) {
	data, etag, err := s.getObject(ctx, s.draftKey(id))
	if err != nil {
		if isNotFound(err) {
			return nil, "", &tornadotypes.InternalSystemError{Message: fmt.Sprintf("s3store: draft %q not found", id)}
		}
		return nil, "", &tornadotypes.InternalSystemError{Message: "s3store: read draft", Err: err}
	}
	var draft configstore.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, "", &tornadotypes.JSONDeserializationError{Message: "s3store: draft " + id, Err: err}
	}
	return &draft, etag, nil
}

func (s *Store) writeDraft(ctx context.Context, draft *configstore.Draft, ifMatch *string) (string, error) {
	data, err := json.Marshal(draft)
	if err != nil {
		return "", err
	}
	return s.putObject(ctx, s.draftKey(draft.Data.DraftID), data, ifMatch)
}

// CreateDraft seeds a draft from the current live config.
func (s *Store) CreateDraft(ctx context.Context, user string) (string, error) {
	cfg, _, err := s.readConfig(ctx)
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
	empty := ""
	if _, err := s.writeDraft(ctx, draft, &empty); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateDraft validates cfg and replaces the draft's config, conditioned
// on the draft's ETag at read time (CAS-on-update, §13 property 8).
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

// casDraft reads a draft with its ETag, mutates it, and writes it back
// conditioned on that ETag; a concurrent writer that commits first makes
// this write lose the IfMatch race and return a conflict error.
func (s *Store) casDraft(ctx context.Context, id string, mutate func(*configstore.Draft)) error {
	draft, etag, err := s.readDraft(ctx, id)
	if err != nil {
		return err
	}
	mutate(draft)
	if _, err := s.writeDraft(ctx, draft, &etag); err != nil {
		return err
	}
	return nil
}

// DeleteDraft removes a draft object.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	if _, _, err := s.readDraft(ctx, id); err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.draftKey(id)),
	}); err != nil {
		return &tornadotypes.InternalSystemError{Message: "s3store: delete draft", Err: err}
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

// DeployConfig validates cfg, writes it conditioned on the live object's
// current ETag, and swaps the in-process matcher on success.
func (s *Store) DeployConfig(ctx context.Context, cfg *matcher.Config) (*matcher.Config, error) {
	if err := configstore.Validate(cfg); err != nil {
		return nil, err
	}
	m, err := matcher.Build(cfg)
	if err != nil {
		return nil, err
	}

	_, etag, err := s.readConfig(ctx)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	ifMatch := &etag
	if isNotFound(err) {
		empty := ""
		ifMatch = &empty
	}
	if _, err := s.writeConfig(ctx, cfg, ifMatch); err != nil {
		return nil, err
	}

	s.live.Swap(m)
	return cfg, nil
}
