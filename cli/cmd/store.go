package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/tornado/config"
	"github.com/pithecene-io/tornado/configstore"
	"github.com/pithecene-io/tornado/configstore/fsstore"
	"github.com/pithecene-io/tornado/configstore/kvstore"
	"github.com/pithecene-io/tornado/configstore/s3store"
)

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// configFlag is shared by every command that opens a configstore.
var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "Path to the tornado config file",
	Value:   "tornado.yaml",
}

// buildStore opens the configstore.Store selected by cfg.Store.Backend.
func buildStore(ctx context.Context, cfg config.StoreConfig) (configstore.Store, error) {
	switch cfg.Backend {
	case "fs", "":
		return fsstore.Open(cfg.Path, cfg.DraftsPath)
	case "redis":
		return kvstore.Open(ctx, kvstore.Config{URL: cfg.URL, Prefix: cfg.Prefix})
	case "s3":
		return s3store.Open(ctx, s3store.Config{
			Bucket:       cfg.Bucket,
			Prefix:       cfg.Prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported store backend: %s (must be fs, redis, or s3)", cfg.Backend)
	}
}

// loadStore loads the config file at the --config path and opens its
// configstore.Store, the shared first step of every command that reads
// or mutates live config or drafts.
func loadStore(c *cli.Context) (configstore.Store, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := buildStore(c.Context, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open configstore: %w", err)
	}
	return store, nil
}
