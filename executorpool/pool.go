// Package executorpool implements the stateless/stateful executor
// contracts and their bounded pools (§4.6, component H): a stateless pool
// bounds concurrency on a single shared executor with a counting
// semaphore, a stateful pool allocates N independent executor instances
// behind a bounded request channel, and a retry decorator wraps either
// pool with a retry.Strategy.
package executorpool

import (
	"context"

	"github.com/pithecene-io/tornado/types"
)

// Pool is the common contract both pool shapes and the retry decorator
// satisfy, so the dispatcher can submit an action without caring whether
// the underlying executor is stateless or stateful.
type Pool interface {
	Execute(ctx context.Context, action *types.Action) error
}

// StatelessExecutor is concurrency-safe and may be shared across
// concurrent Execute calls (§4.6).
type StatelessExecutor interface {
	Execute(ctx context.Context, action *types.Action) error
}

// StatefulExecutor requires exclusive access per call. The pool
// enforces this by giving each worker goroutine its own instance,
// standing in for Rust's `&mut self`.
type StatefulExecutor interface {
	Execute(ctx context.Context, action *types.Action) error
}

// StatelessPool wraps one executor instance plus a counting semaphore of
// size N: at most N concurrent Execute calls (§4.6).
type StatelessPool struct {
	exec StatelessExecutor
	sem  chan struct{}
}

// NewStatelessPool returns a pool admitting at most concurrency
// concurrent calls into exec.
func NewStatelessPool(exec StatelessExecutor, concurrency int) *StatelessPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &StatelessPool{exec: exec, sem: make(chan struct{}, concurrency)}
}

// Execute blocks for a free semaphore slot, then runs the action.
func (p *StatelessPool) Execute(ctx context.Context, action *types.Action) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()
	return p.exec.Execute(ctx, action)
}

// statefulRequest is one (action, reply) pair submitted to a StatefulPool.
type statefulRequest struct {
	ctx    context.Context
	action *types.Action
	reply  chan error
}

// StatefulPool allocates N independent executor instances behind a
// bounded MPMC request channel of capacity N (§4.6). A caller submits a
// request; exactly one worker dequeues it, runs to completion, and
// replies. Submission fails with a retriable SenderError if the channel
// is full.
type StatefulPool struct {
	requests chan statefulRequest
	done     chan struct{}
}

// NewStatefulPool starts n worker goroutines, each owning the
// StatefulExecutor instance factory produces, and returns the pool that
// fans requests out to them. If factory fails for any instance, the
// pool stops the workers already started and returns the error.
func NewStatefulPool(n int, factory func() (StatefulExecutor, error)) (*StatefulPool, error) {
	if n < 1 {
		n = 1
	}
	p := &StatefulPool{
		requests: make(chan statefulRequest, n),
		done:     make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		exec, err := factory()
		if err != nil {
			close(p.requests)
			return nil, err
		}
		go p.worker(exec)
	}
	return p, nil
}

func (p *StatefulPool) worker(exec StatefulExecutor) {
	for req := range p.requests {
		err := exec.Execute(req.ctx, req.action)
		select {
		case req.reply <- err:
		default:
			// Caller dropped the reply channel (cancelled); the
			// completed execute is not interrupted, only its
			// reply is discarded (§5 cancellation semantics).
		}
	}
}

// Execute submits action to the worker pool and waits for a reply, or
// for ctx to be cancelled, whichever comes first.
func (p *StatefulPool) Execute(ctx context.Context, action *types.Action) error {
	reply := make(chan error, 1)
	req := statefulRequest{ctx: ctx, action: action, reply: reply}

	select {
	case p.requests <- req:
	default:
		return &ExecutorError{
			Kind:     SenderError,
			CanRetry: true,
			Message:  "stateful pool request channel is full",
		}
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new work and lets in-flight workers drain.
// Workers exit once the requests channel is closed and empty.
func (p *StatefulPool) Close() {
	close(p.requests)
}
