package executorpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pithecene-io/tornado/retry"
	"github.com/pithecene-io/tornado/types"
)

type countingExecutor struct {
	calls atomic.Int64
	fn    func(n int64) error
}

func (e *countingExecutor) Execute(ctx context.Context, action *types.Action) error {
	n := e.calls.Add(1)
	if e.fn != nil {
		return e.fn(n)
	}
	return nil
}

func newAction(id string) *types.Action {
	return &types.Action{ID: id, Payload: types.Str("payload")}
}

func TestStatelessPool_BoundsConcurrency(t *testing.T) {
	var inFlight, maxInFlight atomic.Int64
	exec := &countingExecutor{}
	exec.fn = func(n int64) error {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if cur <= m || maxInFlight.CompareAndSwap(m, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return nil
	}

	pool := NewStatelessPool(exec, 2)
	ctx := context.Background()
	done := make(chan struct{})
	for i := 0; i < 6; i++ {
		go func() {
			_ = pool.Execute(ctx, newAction("a"))
			done <- struct{}{}
		}()
	}
	for i := 0; i < 6; i++ {
		<-done
	}
	if maxInFlight.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent executions, saw %d", maxInFlight.Load())
	}
}

func TestStatefulPool_ExactlyOneWorkerHandlesEachRequest(t *testing.T) {
	pool, err := NewStatefulPool(3, func() (StatefulExecutor, error) {
		return &countingExecutor{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if err := pool.Execute(ctx, newAction("a")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestStatefulPool_SenderErrorWhenFull(t *testing.T) {
	release := make(chan struct{})
	pool, err := NewStatefulPool(1, func() (StatefulExecutor, error) {
		return &countingExecutor{fn: func(n int64) error {
			<-release
			return nil
		}}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Occupy the single worker.
	errc := make(chan error, 1)
	go func() { errc <- pool.Execute(ctx, newAction("a")) }()
	time.Sleep(10 * time.Millisecond)

	// Fill the request channel (capacity 1) with a second in-flight call.
	blocked := make(chan error, 1)
	go func() { blocked <- pool.Execute(ctx, newAction("a")) }()
	time.Sleep(10 * time.Millisecond)

	// A third submission must observe the channel full.
	err = pool.Execute(ctx, newAction("a"))
	var execErr *ExecutorError
	if err == nil {
		t.Fatalf("expected SenderError, got nil")
	}
	if ee, ok := err.(*ExecutorError); !ok || ee.Kind != SenderError || !ee.CanRetry {
		t.Fatalf("expected retriable SenderError, got %v (%T)", err, err)
	}
	_ = execErr

	close(release)
	<-errc
	<-blocked
}

func TestRetryingPool_RetriesUntilPolicyRefuses(t *testing.T) {
	exec := &countingExecutor{}
	exec.fn = func(n int64) error {
		return &ExecutorError{Kind: ActionExecutionError, CanRetry: true, Message: "boom"}
	}
	pool := NewStatelessPool(exec, 1)
	strategy := retry.Strategy{
		RetryPolicy:   retry.RetryPolicy{Kind: retry.RetryMaxAttempts, Attempts: 2},
		BackoffPolicy: retry.BackoffPolicy{Kind: retry.BackoffFixed, FixedMs: 0},
	}
	retrying := NewRetryingPool(pool, strategy)

	err := retrying.Execute(context.Background(), newAction("a"))
	if err == nil {
		t.Fatalf("expected final error to propagate")
	}
	if exec.calls.Load() != 3 {
		t.Fatalf("expected executor invoked exactly 3 times, got %d", exec.calls.Load())
	}
}

func TestRetryingPool_SucceedsWithoutExhaustingRetries(t *testing.T) {
	exec := &countingExecutor{}
	exec.fn = func(n int64) error {
		if n < 2 {
			return &ExecutorError{Kind: ActionExecutionError, CanRetry: true, Message: "transient"}
		}
		return nil
	}
	pool := NewStatelessPool(exec, 1)
	strategy := retry.Strategy{
		RetryPolicy:   retry.RetryPolicy{Kind: retry.RetryInfinite},
		BackoffPolicy: retry.BackoffPolicy{Kind: retry.BackoffNone},
	}
	retrying := NewRetryingPool(pool, strategy)

	if err := retrying.Execute(context.Background(), newAction("a")); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if exec.calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", exec.calls.Load())
	}
}

func TestRetryingPool_NonRetriableErrorStopsImmediately(t *testing.T) {
	exec := &countingExecutor{}
	exec.fn = func(n int64) error {
		return &ExecutorError{Kind: ConfigurationError, CanRetry: false, Message: "bad config"}
	}
	pool := NewStatelessPool(exec, 1)
	strategy := retry.Strategy{
		RetryPolicy: retry.RetryPolicy{Kind: retry.RetryInfinite},
	}
	retrying := NewRetryingPool(pool, strategy)

	if err := retrying.Execute(context.Background(), newAction("a")); err == nil {
		t.Fatalf("expected error to propagate")
	}
	if exec.calls.Load() != 1 {
		t.Fatalf("expected exactly 1 call for a non-retriable error, got %d", exec.calls.Load())
	}
}
