package fsstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pithecene-io/tornado/configstore"
	"github.com/pithecene-io/tornado/matcher"
	"github.com/pithecene-io/tornado/types"
)

func nowMs() uint64 { return uint64(time.Now().UnixMilli()) }

// readDraft loads a draft's meta.json and config.json from dir.
func readDraft(dir string) (*configstore.Draft, error) {
	metaData, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return nil, &types.InternalSystemError{Message: "fsstore: read draft meta " + dir, Err: err}
	}
	var meta configstore.DraftMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, &types.JSONDeserializationError{Message: "draft meta " + dir, Err: err}
	}

	cfgData, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, &types.InternalSystemError{Message: "fsstore: read draft config " + dir, Err: err}
	}
	var cfg matcher.Config
	if err := json.Unmarshal(cfgData, &cfg); err != nil {
		return nil, &types.JSONDeserializationError{Message: "draft config " + dir, Err: err}
	}

	return &configstore.Draft{Data: meta, Config: &cfg}, nil
}

// writeDraft serializes draft's meta and config into dir.
func writeDraft(dir string, draft *configstore.Draft) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.InternalSystemError{Message: "fsstore: create draft dir " + dir, Err: err}
	}

	metaData, err := json.MarshalIndent(draft.Data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), metaData, 0o644); err != nil {
		return &types.InternalSystemError{Message: "fsstore: write draft meta " + dir, Err: err}
	}

	cfgData, err := json.MarshalIndent(draft.Config, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), cfgData, 0o644); err != nil {
		return &types.InternalSystemError{Message: "fsstore: write draft config " + dir, Err: err}
	}
	return nil
}
