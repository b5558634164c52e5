// Package config handles tornado.yaml configuration file loading.
package config

import (
	"fmt"

	"github.com/pithecene-io/tornado/retry"
)

// Config represents a tornado.yaml configuration file: backend
// selection for the config store, per-action dispatcher pool sizing,
// the default retry strategy, logger level, and the metrics enable
// flag.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Retry      RetryConfig      `yaml:"retry"`
	Logger     LoggerConfig     `yaml:"logger"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// StoreConfig selects and configures a configstore.Store backend.
type StoreConfig struct {
	// Backend is one of "fs", "redis", "s3".
	Backend string `yaml:"backend"`

	// fs backend.
	Path       string `yaml:"path"`
	DraftsPath string `yaml:"drafts_path"`

	// redis and s3 backends.
	Prefix string `yaml:"prefix"`

	// redis backend.
	URL string `yaml:"url"`

	// s3 backend.
	Bucket      string `yaml:"bucket"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// DispatcherConfig sizes one executor pool per routed action id.
type DispatcherConfig struct {
	Pools map[string]PoolConfig `yaml:"pools"`
}

// PoolConfig configures one action id's executor pool.
type PoolConfig struct {
	// Kind is "stateless" or "stateful".
	Kind string `yaml:"kind"`
	// Concurrency is the stateless pool's semaphore size, or the
	// stateful pool's worker count.
	Concurrency int `yaml:"concurrency"`

	// Executor selects and configures this pool's concrete executor.
	Executor ExecutorConfig `yaml:"executor"`
}

// ExecutorConfig selects and configures one pool's concrete executor
// (§12). Backend is one of "logger" (default), "http", "pubsub", or
// "script".
type ExecutorConfig struct {
	Backend string `yaml:"backend"`

	// http backend (executor/httpaction).
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`

	// pubsub backend (executor/pubsubaction).
	RedisURL string `yaml:"redis_url"`
	Channel  string `yaml:"channel"`

	// script backend (executor/script); always run behind a stateful
	// pool, whatever Kind says.
	InterpreterPath string `yaml:"interpreter_path"`
	ScriptPath      string `yaml:"script_path"`
}

// RetryConfig configures the default retry.Strategy every executor
// pool is wrapped with unless overridden.
type RetryConfig struct {
	// Policy is "none", "max_attempts", or "infinite".
	Policy   string `yaml:"policy"`
	Attempts uint32 `yaml:"attempts,omitempty"`

	// Backoff is "none", "fixed", or "variable".
	Backoff    string   `yaml:"backoff"`
	FixedMs    uint32   `yaml:"fixed_ms,omitempty"`
	VariableMs []uint32 `yaml:"variable_ms,omitempty"`
}

// Strategy builds the retry.Strategy this config describes.
func (c RetryConfig) Strategy() (retry.Strategy, error) {
	var s retry.Strategy

	switch c.Policy {
	case "", "none":
		s.RetryPolicy = retry.RetryPolicy{Kind: retry.RetryNone}
	case "max_attempts":
		s.RetryPolicy = retry.RetryPolicy{Kind: retry.RetryMaxAttempts, Attempts: c.Attempts}
	case "infinite":
		s.RetryPolicy = retry.RetryPolicy{Kind: retry.RetryInfinite}
	default:
		return retry.Strategy{}, fmt.Errorf("config: unknown retry policy %q", c.Policy)
	}

	switch c.Backoff {
	case "", "none":
		s.BackoffPolicy = retry.BackoffPolicy{Kind: retry.BackoffNone}
	case "fixed":
		s.BackoffPolicy = retry.BackoffPolicy{Kind: retry.BackoffFixed, FixedMs: c.FixedMs}
	case "variable":
		s.BackoffPolicy = retry.BackoffPolicy{Kind: retry.BackoffVariable, VariableMs: c.VariableMs}
	default:
		return retry.Strategy{}, fmt.Errorf("config: unknown backoff policy %q", c.Backoff)
	}

	return s, nil
}

// LoggerConfig configures the structured logger's minimum level.
type LoggerConfig struct {
	// Level is one of "debug", "info", "warn", "error" (default "info").
	Level string `yaml:"level"`
}

// MetricsConfig toggles metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}
