// Package metrics provides per-deployment metrics collection for the
// matcher, dispatcher, and executor pool stages (§10).
//
// The Collector accumulates counters across a live config deployment. It
// is a leaf package with no internal dependencies: callers absorb
// results from the matcher/dispatcher/executorpool packages via
// primitive-typed methods rather than the collector importing those
// packages directly.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all tracked metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Matcher
	EventsProcessed int64
	RulesEvaluated  int64
	RulesMatched    int64
	ActionsResolved int64

	// Dispatcher
	ActionsDispatched int64
	ActionsSubmitFail int64

	// Executor
	ExecutorSuccess  int64
	ExecutorFailure  int64
	FailuresByKind   map[string]int64
	RetriesAttempted int64
	RetriesExhausted int64

	// Dimensions (informational, set at construction)
	RulesetName string
	Deployment  string
}

// Collector accumulates metrics for one live deployment.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	// Matcher
	eventsProcessed int64
	rulesEvaluated  int64
	rulesMatched    int64
	actionsResolved int64

	// Dispatcher
	actionsDispatched int64
	actionsSubmitFail int64

	// Executor
	executorSuccess  int64
	executorFailure  int64
	failuresByKind   map[string]int64
	retriesAttempted int64
	retriesExhausted int64

	// Dimensions
	rulesetName string
	deployment  string
}

// NewCollector creates a Collector labeled with the ruleset name and
// deployment identifier it is measuring.
func NewCollector(rulesetName, deployment string) *Collector {
	return &Collector{
		failuresByKind: make(map[string]int64),
		rulesetName:    rulesetName,
		deployment:     deployment,
	}
}

// --- Matcher ---

// IncEventsProcessed records one event submitted to Process.
func (c *Collector) IncEventsProcessed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsProcessed++
	c.mu.Unlock()
}

// AddRulesEvaluated records n rules visited while processing an event,
// regardless of outcome.
func (c *Collector) AddRulesEvaluated(n int64) {
	if c == nil || n == 0 {
		return
	}
	c.mu.Lock()
	c.rulesEvaluated += n
	c.mu.Unlock()
}

// AddRulesMatched records n rules that reached RuleMatched.
func (c *Collector) AddRulesMatched(n int64) {
	if c == nil || n == 0 {
		return
	}
	c.mu.Lock()
	c.rulesMatched += n
	c.mu.Unlock()
}

// AddActionsResolved records n actions resolved from matched rules,
// before dispatch.
func (c *Collector) AddActionsResolved(n int64) {
	if c == nil || n == 0 {
		return
	}
	c.mu.Lock()
	c.actionsResolved += n
	c.mu.Unlock()
}

// --- Dispatcher ---

// IncActionDispatched records one action handed to a Sink.
func (c *Collector) IncActionDispatched() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.actionsDispatched++
	c.mu.Unlock()
}

// IncActionSubmitFailed records one action whose Submit call returned an
// error (no matching pool, or the sink itself failed).
func (c *Collector) IncActionSubmitFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.actionsSubmitFail++
	c.mu.Unlock()
}

// --- Executor ---

// IncExecutorSuccess records one action that an executor pool ran to
// completion without error (after any retries).
func (c *Collector) IncExecutorSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.executorSuccess++
	c.mu.Unlock()
}

// IncExecutorFailure records one action an executor pool gave up on,
// tagged by the ExecutorError's kind (the string form of
// executorpool.ErrorKind, keeping this package free of a dependency on
// executorpool).
func (c *Collector) IncExecutorFailure(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.executorFailure++
	c.failuresByKind[kind]++
	c.mu.Unlock()
}

// IncRetryAttempted records one retry attempt made by a RetryingPool.
func (c *Collector) IncRetryAttempted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.retriesAttempted++
	c.mu.Unlock()
}

// IncRetryExhausted records one action that ran out of retries without
// succeeding.
func (c *Collector) IncRetryExhausted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.retriesExhausted++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics. The
// returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.failuresByKind))
	for k, v := range c.failuresByKind {
		byKind[k] = v
	}

	return Snapshot{
		EventsProcessed: c.eventsProcessed,
		RulesEvaluated:  c.rulesEvaluated,
		RulesMatched:    c.rulesMatched,
		ActionsResolved: c.actionsResolved,

		ActionsDispatched: c.actionsDispatched,
		ActionsSubmitFail: c.actionsSubmitFail,

		ExecutorSuccess:  c.executorSuccess,
		ExecutorFailure:  c.executorFailure,
		FailuresByKind:   byKind,
		RetriesAttempted: c.retriesAttempted,
		RetriesExhausted: c.retriesExhausted,

		RulesetName: c.rulesetName,
		Deployment:  c.deployment,
	}
}
