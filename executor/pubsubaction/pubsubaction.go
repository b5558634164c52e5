// Package pubsubaction implements a stateless Redis pub/sub executor
// (§12.3): each dispatched Action is PUBLISHed as JSON to a configured
// channel. Adapted from the teacher's adapter/redis publisher — a single
// publish per call rather than that adapter's own retry loop, since
// retrying is the executorpool.RetryingPool decorator's job here (§4.6).
package pubsubaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/tornado/executorpool"
	"github.com/pithecene-io/tornado/types"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "tornado:actions"

// Config configures the pub/sub action executor.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: tornado:actions).
	Channel string
}

// Executor publishes an action's JSON-encoded payload to a configured
// Redis channel. It holds no per-call state, so it satisfies
// executorpool.StatelessExecutor and may be shared behind a
// StatelessPool's semaphore.
type Executor struct {
	client  *goredis.Client
	channel string
}

// NewExecutor connects to Redis and returns an Executor.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.URL == "" {
		return nil, errors.New("pubsubaction: URL is required")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pubsubaction: invalid URL: %w", err)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	return &Executor{client: goredis.NewClient(opts), channel: cfg.Channel}, nil
}

// newFromClient builds an Executor around an already-constructed client,
// used directly by tests against a miniredis instance.
func newFromClient(client *goredis.Client, channel string) *Executor {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Executor{client: client, channel: channel}
}

// Execute publishes action to the configured channel. A connection or
// command error is treated as a retriable ActionExecutionError.
func (e *Executor) Execute(ctx context.Context, action *types.Action) error {
	body, err := json.Marshal(action.Payload)
	if err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.UnknownArgumentError,
			CanRetry: false,
			Message:  "pubsubaction: encode action payload",
			Err:      err,
		}
	}

	if err := e.client.Publish(ctx, e.channel, body).Err(); err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ActionExecutionError,
			CanRetry: true,
			Message:  "pubsubaction: publish failed",
			Err:      err,
		}
	}
	return nil
}

// Close releases the Redis client's connections.
func (e *Executor) Close() error {
	return e.client.Close()
}

var _ executorpool.StatelessExecutor = (*Executor)(nil)
