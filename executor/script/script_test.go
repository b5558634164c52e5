package script

import (
	"errors"
	"testing"

	"github.com/pithecene-io/tornado/executorpool"
	"github.com/pithecene-io/tornado/ipc"
)

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing interpreter", Config{ScriptPath: "a.lua"}, true},
		{"missing script", Config{InterpreterPath: "/usr/bin/lua"}, true},
		{"valid", Config{InterpreterPath: "/usr/bin/lua", ScriptPath: "a.lua"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if tc.wantErr != (err != nil) {
				t.Fatalf("validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewExecutor_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewExecutor(Config{}); err == nil {
		t.Fatalf("expected an error for an empty config")
	}
}

func TestClassifyReply_OK(t *testing.T) {
	if err := classifyReply(&ipc.ActionReply{OK: true}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestClassifyReply_FailureDefaultsRetriable(t *testing.T) {
	err := classifyReply(&ipc.ActionReply{OK: false, Message: "boom"})
	var execErr *executorpool.ExecutorError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected an *executorpool.ExecutorError, got %v", err)
	}
	if !execErr.CanRetry {
		t.Fatalf("expected a default failure to be retriable")
	}
	if execErr.Kind != executorpool.ActionExecutionError {
		t.Fatalf("expected ActionExecutionError, got %v", execErr.Kind)
	}
}

func TestClassifyReply_ExplicitRetryFalseIsNonRetriable(t *testing.T) {
	no := false
	err := classifyReply(&ipc.ActionReply{OK: false, Message: "permanent failure", Retry: &no})
	var execErr *executorpool.ExecutorError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected an *executorpool.ExecutorError, got %v", err)
	}
	if execErr.CanRetry {
		t.Fatalf("expected retry:false reply to be non-retriable")
	}
}

func TestClassifyReply_ExplicitRetryTrue(t *testing.T) {
	yes := true
	err := classifyReply(&ipc.ActionReply{OK: false, Message: "transient", Retry: &yes})
	var execErr *executorpool.ExecutorError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected an *executorpool.ExecutorError, got %v", err)
	}
	if !execErr.CanRetry {
		t.Fatalf("expected retry:true reply to be retriable")
	}
}
