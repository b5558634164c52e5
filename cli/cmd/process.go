package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/tornado/cli/render"
	"github.com/pithecene-io/tornado/config"
	"github.com/pithecene-io/tornado/dispatcher"
	"github.com/pithecene-io/tornado/executor/httpaction"
	"github.com/pithecene-io/tornado/executor/logger"
	"github.com/pithecene-io/tornado/executor/pubsubaction"
	"github.com/pithecene-io/tornado/executor/script"
	"github.com/pithecene-io/tornado/executorpool"
	"github.com/pithecene-io/tornado/log"
	"github.com/pithecene-io/tornado/matcher"
	"github.com/pithecene-io/tornado/metrics"
	"github.com/pithecene-io/tornado/retry"
	"github.com/pithecene-io/tornado/types"
)

// ProcessResult is the combined output of one event processed against the
// live config: the matcher's tree walk plus every dispatched action's
// outcome.
type ProcessResult struct {
	Tree    *matcher.ProcessedNode    `json:"tree"`
	Actions []dispatcher.ActionResult `json:"actions"`
}

// ProcessCommand returns the process command: evaluates one event
// against the live config and dispatches any matched rule's actions
// through each configured pool's executor backend (§12: logger, http,
// pubsub, or script).
func ProcessCommand() *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "Evaluate one event against the live config and dispatch its matched actions",
		Flags: append(ReadOnlyFlags(),
			configFlag,
			&cli.StringFlag{Name: "event", Usage: "Path to the event JSON (- for stdin)", Required: true},
			&cli.BoolFlag{Name: "stats", Usage: "Print the resulting metrics snapshot instead of the tree/actions"},
			&cli.StringFlag{Name: "deployment", Usage: "Deployment label for metrics dimensions", Value: "default"},
		),
		Action: processAction,
	}
}

func processAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for process command, use stats --tui", 1)
	}

	result, collector, err := runProcessPipeline(c)
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("stats") {
		return r.Render(collector.Snapshot())
	}
	return r.Render(result)
}

// runProcessPipeline loads the config/store, reads and decodes the event
// at --event, evaluates it against the live matcher snapshot, and
// dispatches matched actions through a per-invocation Router built from
// cfg.Dispatcher.Pools. It is shared by the process and stats commands.
func runProcessPipeline(c *cli.Context) (*ProcessResult, *metrics.Collector, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := buildStore(c.Context, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open configstore: %w", err)
	}

	event, err := readEvent(c.String("event"))
	if err != nil {
		return nil, nil, err
	}

	collector := metrics.NewCollector(event.EventType, c.String("deployment"))

	m := store.Live().Snapshot()
	if m == nil {
		return nil, nil, fmt.Errorf("live config has not been compiled yet")
	}

	node := matcher.Process(m, event, true)
	collector.IncEventsProcessed()
	evaluated, matched := countRules(node)
	collector.AddRulesEvaluated(evaluated)
	collector.AddRulesMatched(matched)

	router, err := buildRouter(cfg, collector)
	if err != nil {
		return nil, nil, err
	}
	results := dispatcher.Dispatch(c.Context, router, node)
	for _, res := range results {
		collector.IncActionDispatched()
		if res.Err != nil {
			collector.IncActionSubmitFailed()
		}
	}
	collector.AddActionsResolved(int64(len(results)))

	return &ProcessResult{Tree: node, Actions: results}, collector, nil
}

// buildRouter wires every configured pool name to a retrying pool built
// from its configured executor backend, and registers one configured
// pool (or, absent any, a single default logging pool) as the fallback
// so every action id has somewhere to go. Which configured pool becomes
// the fallback follows Go's map iteration order, so it is not fixed
// across runs when several pools are configured.
func buildRouter(cfg *config.Config, collector *metrics.Collector) (*dispatcher.Router, error) {
	strategy, err := cfg.Retry.Strategy()
	if err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	router := dispatcher.NewRouter()
	l := log.NewLogger(log.Context{})

	var fallback executorpool.Pool
	for name, pool := range cfg.Dispatcher.Pools {
		wrapped, err := buildPool(l, pool, strategy, collector)
		if err != nil {
			return nil, fmt.Errorf("dispatcher pool %q: %w", name, err)
		}
		router.Route(name, wrapped)
		if fallback == nil {
			fallback = wrapped
		}
	}
	if fallback == nil {
		fallback, err = buildPool(l, config.PoolConfig{Concurrency: 1}, strategy, collector)
		if err != nil {
			return nil, err
		}
	}
	router.SetFallback(fallback)

	return router, nil
}

// buildPool constructs one pool's concrete executor per
// pool.Executor.Backend ("logger" (default), "http", "pubsub", or
// "script"), wraps it in a stateful executorpool.Pool for "script" and
// a stateless one for every other backend, and decorates it with retry
// and metrics counting. pool.Kind is not read.
func buildPool(l *log.Logger, pool config.PoolConfig, strategy retry.Strategy, collector *metrics.Collector) (executorpool.Pool, error) {
	concurrency := pool.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var inner executorpool.Pool
	switch pool.Executor.Backend {
	case "script":
		factory := func() (executorpool.StatefulExecutor, error) {
			return script.NewExecutor(script.Config{
				InterpreterPath: pool.Executor.InterpreterPath,
				ScriptPath:      pool.Executor.ScriptPath,
			})
		}
		statefulPool, err := executorpool.NewStatefulPool(concurrency, factory)
		if err != nil {
			return nil, fmt.Errorf("script executor: %w", err)
		}
		inner = statefulPool
	case "http":
		exec, err := httpaction.NewExecutor(httpaction.Config{
			URL:     pool.Executor.URL,
			Headers: pool.Executor.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("http executor: %w", err)
		}
		inner = executorpool.NewStatelessPool(exec, concurrency)
	case "pubsub":
		exec, err := pubsubaction.NewExecutor(pubsubaction.Config{
			URL:     pool.Executor.RedisURL,
			Channel: pool.Executor.Channel,
		})
		if err != nil {
			return nil, fmt.Errorf("pubsub executor: %w", err)
		}
		inner = executorpool.NewStatelessPool(exec, concurrency)
	case "", "logger":
		inner = executorpool.NewStatelessPool(logger.NewExecutor(l), concurrency)
	default:
		return nil, fmt.Errorf("unknown executor backend %q (must be logger, http, pubsub, or script)", pool.Executor.Backend)
	}

	wrapped := executorpool.NewRetryingPool(inner, strategy)
	return countingPool{inner: wrapped, collector: collector}, nil
}

// countingPool decorates a Pool with executor success/failure counters.
type countingPool struct {
	inner     executorpool.Pool
	collector *metrics.Collector
}

func (p countingPool) Execute(ctx context.Context, action *types.Action) error {
	err := p.inner.Execute(ctx, action)
	if err != nil {
		kind := "unknown"
		var execErr *executorpool.ExecutorError
		if errors.As(err, &execErr) {
			kind = execErr.Kind.String()
		}
		p.collector.IncExecutorFailure(kind)
	} else {
		p.collector.IncExecutorSuccess()
	}
	return err
}

func countRules(node *matcher.ProcessedNode) (evaluated, matched int64) {
	if node == nil {
		return 0, 0
	}
	for _, rule := range node.Rules {
		evaluated++
		if rule.Status == matcher.RuleMatched {
			matched++
		}
	}
	for _, child := range node.Children {
		e, m := countRules(child)
		evaluated += e
		matched += m
	}
	return evaluated, matched
}

func readEvent(path string) (*types.Event, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}
	var event types.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("invalid event JSON: %w", err)
	}
	return &event, nil
}
