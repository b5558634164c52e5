package fsstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pithecene-io/tornado/matcher"
	"github.com/pithecene-io/tornado/types"
)

type filterFile struct {
	Description string          `json:"description"`
	Active      bool            `json:"active"`
	Filter      json.RawMessage `json:"filter"`
}

// loadNode reads the Filter-or-Ruleset rooted at dir (§6.3): a "rules.d"
// subdirectory marks dir as a Ruleset leaf; otherwise dir is a Filter
// whose own subdirectories are recursively loaded as children.
func loadNode(dir, name string) (*matcher.Config, error) {
	rulesDir := filepath.Join(dir, "rules.d")
	if info, err := os.Stat(rulesDir); err == nil && info.IsDir() {
		rules, err := loadRules(rulesDir)
		if err != nil {
			return nil, err
		}
		return &matcher.Config{IsFilter: false, Name: name, Rules: rules}, nil
	}

	var ff filterFile
	data, err := os.ReadFile(filepath.Join(dir, "filter.json"))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &ff); err != nil {
			return nil, &types.JSONDeserializationError{Message: dir + "/filter.json", Err: err}
		}
	case os.IsNotExist(err):
		// A directory with no filter.json yet (a freshly-opened, still
		// empty root) is an inactive filter with no description.
	default:
		return nil, &types.InternalSystemError{Message: fmt.Sprintf("fsstore: read %s/filter.json", dir), Err: err}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &types.InternalSystemError{Message: "fsstore: read dir " + dir, Err: err}
	}
	var children []*matcher.Config
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		child, err := loadNode(filepath.Join(dir, e.Name()), e.Name())
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return &matcher.Config{
		IsFilter:        true,
		Name:            name,
		Description:     ff.Description,
		Active:          ff.Active,
		FilterPredicate: ff.Filter,
		Nodes:           children,
	}, nil
}

// loadRules reads NNNNNN_name.json rule files from rulesDir in
// lexicographic (== declared) order.
func loadRules(rulesDir string) ([]*matcher.RuleConfig, error) {
	entries, err := os.ReadDir(rulesDir)
	if err != nil {
		return nil, &types.InternalSystemError{Message: "fsstore: read rules.d " + rulesDir, Err: err}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	rules := make([]*matcher.RuleConfig, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(rulesDir, name))
		if err != nil {
			return nil, &types.InternalSystemError{Message: "fsstore: read rule file " + name, Err: err}
		}
		var rule matcher.RuleConfig
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rule); err != nil {
			return nil, &types.JSONDeserializationError{Message: "rule file " + name, Err: err}
		}
		rules = append(rules, &rule)
	}
	return rules, nil
}

// writeNode renders cfg into dir using the same layout loadNode reads.
func writeNode(dir string, cfg *matcher.Config) error {
	if !cfg.IsFilter {
		rulesDir := filepath.Join(dir, "rules.d")
		if err := os.MkdirAll(rulesDir, 0o755); err != nil {
			return err
		}
		for i, rule := range cfg.Rules {
			data, err := json.MarshalIndent(rule, "", "  ")
			if err != nil {
				return err
			}
			fname := fmt.Sprintf("%06d_%s.json", i, rule.Name)
			if err := os.WriteFile(filepath.Join(rulesDir, fname), data, 0o644); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ff := filterFile{Description: cfg.Description, Active: cfg.Active, Filter: cfg.FilterPredicate}
	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "filter.json"), data, 0o644); err != nil {
		return err
	}
	for _, child := range cfg.Nodes {
		if err := writeNode(filepath.Join(dir, child.Name), child); err != nil {
			return err
		}
	}
	return nil
}
