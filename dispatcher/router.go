package dispatcher

import (
	"context"

	"github.com/pithecene-io/tornado/executorpool"
	"github.com/pithecene-io/tornado/types"
)

// Router is the dispatcher's "single downstream sink" (§4.6): it routes
// an action to the executor pool registered under its id, falling back
// to a default pool when one is configured and no specific route
// matches.
type Router struct {
	pools    map[string]executorpool.Pool
	fallback executorpool.Pool
}

// NewRouter returns an empty Router. Register routes with Route and
// optionally a catch-all with SetFallback.
func NewRouter() *Router {
	return &Router{pools: make(map[string]executorpool.Pool)}
}

// Route registers pool as the destination for actions whose id is
// actionID.
func (r *Router) Route(actionID string, pool executorpool.Pool) {
	r.pools[actionID] = pool
}

// SetFallback registers pool as the destination for any action id with
// no explicit route.
func (r *Router) SetFallback(pool executorpool.Pool) {
	r.fallback = pool
}

// Submit looks action.ID up and forwards to the matching pool. An
// action id with neither a specific route nor a fallback is a
// configuration error, not a transient one.
func (r *Router) Submit(ctx context.Context, action *types.Action) error {
	pool, ok := r.pools[action.ID]
	if !ok {
		pool = r.fallback
	}
	if pool == nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ConfigurationError,
			CanRetry: false,
			Message:  "no executor pool registered for action id " + action.ID,
		}
	}
	return pool.Execute(ctx, action)
}
