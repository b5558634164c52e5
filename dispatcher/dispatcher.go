// Package dispatcher walks a processed matcher tree and submits every
// matched rule's actions, in declared order, to a downstream sink keyed
// by action id (§4.6, component G).
package dispatcher

import (
	"context"
	"sync"

	"github.com/pithecene-io/tornado/matcher"
	"github.com/pithecene-io/tornado/types"
)

// Sink accepts one resolved action for execution. A Router is the usual
// Sink: it looks the action up by id and forwards to the matching
// executor pool.
type Sink interface {
	Submit(ctx context.Context, action *types.Action) error
}

// ActionResult pairs a dispatched action with the outcome of submitting
// it. Errors here are purely informational (§4.6): the dispatcher does
// not re-route or retry them, it only reports them back to the caller
// for logging/metrics.
type ActionResult struct {
	Action *types.Action
	Err    error
}

// Dispatch submits every action belonging to a Matched rule in node, in
// declared order, concurrently to sink, and waits for all submissions to
// complete. The returned slice preserves declared order regardless of
// which submission finishes first.
func Dispatch(ctx context.Context, sink Sink, node *matcher.ProcessedNode) []ActionResult {
	actions := collectMatchedActions(node)
	results := make([]ActionResult, len(actions))

	var wg sync.WaitGroup
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action *types.Action) {
			defer wg.Done()
			err := sink.Submit(ctx, action)
			results[i] = ActionResult{Action: action, Err: err}
		}(i, action)
	}
	wg.Wait()

	return results
}

// collectMatchedActions walks node in declared order (preorder,
// recursing only through Filter children) and gathers the actions of
// every Matched rule it finds, in declared order.
func collectMatchedActions(node *matcher.ProcessedNode) []*types.Action {
	var out []*types.Action
	var walk func(n *matcher.ProcessedNode)
	walk = func(n *matcher.ProcessedNode) {
		if n.IsFilter {
			for _, child := range n.Children {
				walk(child)
			}
			return
		}
		for _, rule := range n.Rules {
			if rule.Status == matcher.RuleMatched {
				out = append(out, rule.Actions...)
			}
		}
	}
	walk(node)
	return out
}
