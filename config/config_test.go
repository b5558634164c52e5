package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pithecene-io/tornado/retry"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `store:
  backend: s3
  bucket: my-bucket
  prefix: tornado
  region: us-east-1
  endpoint: https://example.com
  s3_path_style: true

dispatcher:
  pools:
    notify:
      kind: stateless
      concurrency: 8
    script_run:
      kind: stateful
      concurrency: 2

retry:
  policy: max_attempts
  attempts: 5
  backoff: fixed
  fixed_ms: 250

logger:
  level: debug

metrics:
  enabled: true
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "store.backend", cfg.Store.Backend, "s3")
	assertEqual(t, "store.bucket", cfg.Store.Bucket, "my-bucket")
	assertEqual(t, "store.prefix", cfg.Store.Prefix, "tornado")
	assertEqual(t, "store.region", cfg.Store.Region, "us-east-1")
	assertEqual(t, "store.endpoint", cfg.Store.Endpoint, "https://example.com")
	if !cfg.Store.S3PathStyle {
		t.Error("expected store.s3_path_style=true")
	}

	if len(cfg.Dispatcher.Pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(cfg.Dispatcher.Pools))
	}
	notify, ok := cfg.Dispatcher.Pools["notify"]
	if !ok {
		t.Fatal("expected notify pool")
	}
	assertEqual(t, "notify.kind", notify.Kind, "stateless")
	if notify.Concurrency != 8 {
		t.Errorf("expected notify concurrency=8, got %d", notify.Concurrency)
	}
	scriptRun, ok := cfg.Dispatcher.Pools["script_run"]
	if !ok {
		t.Fatal("expected script_run pool")
	}
	assertEqual(t, "script_run.kind", scriptRun.Kind, "stateful")

	assertEqual(t, "retry.policy", cfg.Retry.Policy, "max_attempts")
	if cfg.Retry.Attempts != 5 {
		t.Errorf("expected retry.attempts=5, got %d", cfg.Retry.Attempts)
	}
	assertEqual(t, "retry.backoff", cfg.Retry.Backoff, "fixed")
	if cfg.Retry.FixedMs != 250 {
		t.Errorf("expected retry.fixed_ms=250, got %d", cfg.Retry.FixedMs)
	}

	assertEqual(t, "logger.level", cfg.Logger.Level, "debug")
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics.enabled=true")
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Backend != "" {
		t.Errorf("expected empty backend, got %q", cfg.Store.Backend)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/tornado.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "{{invalid yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_BUCKET", "expanded-bucket")

	yaml := `store:
  backend: s3
  bucket: ${TEST_BUCKET}
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "store.bucket", cfg.Store.Bucket, "expanded-bucket")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	yaml := `store:
  backend: fs
bogus_key: should_fail
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	yaml := `store:
  backend: fs
  path: ./data
  unknown_field: bad
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown nested key, got nil")
	}
	if !strings.Contains(err.Error(), "unknown_field") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestRetryConfig_Strategy_None(t *testing.T) {
	c := RetryConfig{}
	s, err := c.Strategy()
	if err != nil {
		t.Fatalf("Strategy failed: %v", err)
	}
	if s.RetryPolicy.Kind != retry.RetryNone {
		t.Errorf("expected RetryNone, got %v", s.RetryPolicy.Kind)
	}
	if s.BackoffPolicy.Kind != retry.BackoffNone {
		t.Errorf("expected BackoffNone, got %v", s.BackoffPolicy.Kind)
	}
}

func TestRetryConfig_Strategy_MaxAttemptsFixed(t *testing.T) {
	c := RetryConfig{Policy: "max_attempts", Attempts: 3, Backoff: "fixed", FixedMs: 100}
	s, err := c.Strategy()
	if err != nil {
		t.Fatalf("Strategy failed: %v", err)
	}
	if s.RetryPolicy.Kind != retry.RetryMaxAttempts || s.RetryPolicy.Attempts != 3 {
		t.Errorf("expected RetryMaxAttempts(3), got %+v", s.RetryPolicy)
	}
	if s.BackoffPolicy.Kind != retry.BackoffFixed || s.BackoffPolicy.FixedMs != 100 {
		t.Errorf("expected BackoffFixed(100), got %+v", s.BackoffPolicy)
	}
}

func TestRetryConfig_Strategy_InfiniteVariable(t *testing.T) {
	c := RetryConfig{Policy: "infinite", Backoff: "variable", VariableMs: []uint32{10, 20, 30}}
	s, err := c.Strategy()
	if err != nil {
		t.Fatalf("Strategy failed: %v", err)
	}
	if s.RetryPolicy.Kind != retry.RetryInfinite {
		t.Errorf("expected RetryInfinite, got %v", s.RetryPolicy.Kind)
	}
	if s.BackoffPolicy.Kind != retry.BackoffVariable || len(s.BackoffPolicy.VariableMs) != 3 {
		t.Errorf("expected BackoffVariable(3 steps), got %+v", s.BackoffPolicy)
	}
}

func TestRetryConfig_Strategy_UnknownPolicy(t *testing.T) {
	c := RetryConfig{Policy: "bogus"}
	_, err := c.Strategy()
	if err == nil {
		t.Fatal("expected error for unknown retry policy")
	}
}

func TestRetryConfig_Strategy_UnknownBackoff(t *testing.T) {
	c := RetryConfig{Backoff: "bogus"}
	_, err := c.Strategy()
	if err == nil {
		t.Fatal("expected error for unknown backoff policy")
	}
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tornado.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
