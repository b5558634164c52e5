package dispatcher

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/pithecene-io/tornado/matcher"
	"github.com/pithecene-io/tornado/types"
)

func buildMatcher(t *testing.T, raw string) *matcher.Matcher {
	t.Helper()
	var cfg matcher.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unexpected config decode error: %v", err)
	}
	m, err := matcher.Build(&cfg)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return m
}

type recordingSink struct {
	mu      sync.Mutex
	seen    []string
	failIDs map[string]bool
}

func (s *recordingSink) Submit(ctx context.Context, action *types.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, action.ID)
	if s.failIDs[action.ID] {
		return errBoom
	}
	return nil
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestDispatch_SubmitsMatchedRuleActions(t *testing.T) {
	m := buildMatcher(t, `{
		"type":"filter","name":"root","description":"","active":true,"filter":null,
		"nodes":[{
			"type":"ruleset","name":"emails","rules":[{
				"name":"rule1","description":"","active":true,"continue":true,
				"constraint":{"WHERE":{"type":"equals","first":"${event.type}","second":"email"},"WITH":{}},
				"actions":[
					{"id":"notify","payload":{"msg":"hi"}},
					{"id":"log","payload":{"msg":"hi"}}
				]
			}]
		}]
	}`)

	event := &types.Event{TraceID: "t1", EventType: "email", Payload: types.NewObject()}
	processed := matcher.Process(m, event, false)

	sink := &recordingSink{failIDs: map[string]bool{}}
	results := Dispatch(context.Background(), sink, processed)

	if len(results) != 2 {
		t.Fatalf("expected 2 dispatched actions, got %d", len(results))
	}
	if results[0].Action.ID != "notify" || results[1].Action.ID != "log" {
		t.Fatalf("expected declared order notify,log; got %s,%s", results[0].Action.ID, results[1].Action.ID)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected error for %s: %v", r.Action.ID, r.Err)
		}
	}
}

func TestDispatch_SkipsUnmatchedRules(t *testing.T) {
	m := buildMatcher(t, `{
		"type":"filter","name":"root","description":"","active":true,
		"filter":{"type":"equals","first":"${event.type}","second":"sms"},
		"nodes":[{
			"type":"ruleset","name":"emails","rules":[{
				"name":"rule1","description":"","active":true,"continue":true,
				"constraint":{"WHERE":null,"WITH":{}},
				"actions":[{"id":"notify","payload":{"msg":"hi"}}]
			}]
		}]
	}`)

	event := &types.Event{TraceID: "t1", EventType: "email", Payload: types.NewObject()}
	processed := matcher.Process(m, event, false)

	sink := &recordingSink{failIDs: map[string]bool{}}
	results := Dispatch(context.Background(), sink, processed)

	if len(results) != 0 {
		t.Fatalf("expected no actions dispatched, got %d", len(results))
	}
}

func TestDispatch_ReportsPerActionErrorsWithoutAbortingSiblings(t *testing.T) {
	m := buildMatcher(t, `{
		"type":"filter","name":"root","description":"","active":true,"filter":null,
		"nodes":[{
			"type":"ruleset","name":"emails","rules":[{
				"name":"rule1","description":"","active":true,"continue":true,
				"constraint":{"WHERE":null,"WITH":{}},
				"actions":[
					{"id":"notify","payload":{"msg":"hi"}},
					{"id":"log","payload":{"msg":"hi"}}
				]
			}]
		}]
	}`)

	event := &types.Event{TraceID: "t1", EventType: "email", Payload: types.NewObject()}
	processed := matcher.Process(m, event, false)

	sink := &recordingSink{failIDs: map[string]bool{"notify": true}}
	results := Dispatch(context.Background(), sink, processed)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Fatalf("expected notify to report its error")
	}
	if results[1].Err != nil {
		t.Fatalf("expected log to succeed despite notify's failure, got %v", results[1].Err)
	}
}

func TestRouter_RoutesByActionID(t *testing.T) {
	router := NewRouter()
	notifyCalls := 0
	router.Route("notify", poolFunc(func(ctx context.Context, action *types.Action) error {
		notifyCalls++
		return nil
	}))

	if err := router.Submit(context.Background(), &types.Action{ID: "notify"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifyCalls != 1 {
		t.Fatalf("expected notify pool invoked once, got %d", notifyCalls)
	}
}

func TestRouter_UnknownActionIDIsConfigurationError(t *testing.T) {
	router := NewRouter()
	err := router.Submit(context.Background(), &types.Action{ID: "mystery"})
	if err == nil {
		t.Fatalf("expected an error for an unrouted action id")
	}
}

// poolFunc adapts a plain function to executorpool.Pool for tests.
type poolFunc func(ctx context.Context, action *types.Action) error

func (f poolFunc) Execute(ctx context.Context, action *types.Action) error { return f(ctx, action) }
