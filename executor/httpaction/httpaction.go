// Package httpaction implements a stateless HTTP executor (§12.3):
// each dispatched Action is POSTed as JSON to a configured URL. Adapted
// from the teacher's adapter/webhook publisher — a single request per
// call rather than webhook's own retry loop, since retrying is the
// executorpool.RetryingPool decorator's job here (§4.6).
package httpaction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pithecene-io/tornado/executorpool"
	"github.com/pithecene-io/tornado/iox"
	"github.com/pithecene-io/tornado/types"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 10 * time.Second

// Config configures the HTTP action executor.
type Config struct {
	// URL is the HTTP endpoint to POST each action to (required).
	URL string
	// Headers are custom HTTP headers added to each request.
	Headers map[string]string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
}

// Executor POSTs an action's JSON-encoded payload to a configured URL.
// It holds no per-call state, so it satisfies executorpool.StatelessExecutor
// and may be shared behind a StatelessPool's semaphore.
type Executor struct {
	cfg    Config
	client *http.Client
}

// NewExecutor validates cfg and returns an Executor.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.URL == "" {
		return nil, errors.New("httpaction: URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Executor{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Execute POSTs action to the configured URL. A 2xx response is success;
// 4xx is a non-retriable ActionExecutionError; 5xx and transport errors
// are retriable.
func (e *Executor) Execute(ctx context.Context, action *types.Action) error {
	body, err := json.Marshal(action.Payload)
	if err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.UnknownArgumentError,
			CanRetry: false,
			Message:  "httpaction: encode action payload",
			Err:      err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ConfigurationError,
			CanRetry: false,
			Message:  "httpaction: create request",
			Err:      err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range e.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return &executorpool.ExecutorError{
			Kind:     executorpool.ActionExecutionError,
			CanRetry: true,
			Message:  "httpaction: request failed",
			Err:      err,
		}
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	canRetry := resp.StatusCode >= 500
	return &executorpool.ExecutorError{
		Kind:     executorpool.ActionExecutionError,
		CanRetry: canRetry,
		Message:  fmt.Sprintf("httpaction: unexpected status %d", resp.StatusCode),
	}
}

// Close releases idle HTTP connections.
func (e *Executor) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

var _ executorpool.StatelessExecutor = (*Executor)(nil)
