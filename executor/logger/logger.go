// Package logger implements a stateless executor that logs an action's
// payload at info level instead of dispatching it to an external system
// (§12 domain stack) — useful for dry-run deployments and for exercising
// the dispatcher/pool wiring without a real collaborator.
package logger

import (
	"context"
	"encoding/json"

	"github.com/pithecene-io/tornado/executorpool"
	"github.com/pithecene-io/tornado/log"
	"github.com/pithecene-io/tornado/types"
)

// Executor logs each dispatched action. It holds no per-call state, so
// it satisfies executorpool.StatelessExecutor.
type Executor struct {
	logger *log.Logger
}

// NewExecutor returns an Executor writing through l.
func NewExecutor(l *log.Logger) *Executor {
	return &Executor{logger: l}
}

// Execute logs action.ID and its JSON-encoded payload. Logging never
// fails the action: a payload that cannot be encoded is logged with the
// encode error instead of returned as an ExecutorError.
func (e *Executor) Execute(ctx context.Context, action *types.Action) error {
	fields := map[string]any{"action_id": action.ID}
	payloadJSON, err := json.Marshal(action.Payload)
	if err != nil {
		fields["encode_error"] = err.Error()
	} else {
		fields["payload"] = string(payloadJSON)
	}
	if action.TraceID != nil {
		fields["trace_id"] = *action.TraceID
	}
	e.logger.Info("action dispatched", fields)
	return nil
}

var _ executorpool.StatelessExecutor = (*Executor)(nil)
