package matcher

import (
	"encoding/json"
	"testing"

	"github.com/pithecene-io/tornado/types"
)

func buildMatcher(t *testing.T, raw string) *Matcher {
	t.Helper()
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unexpected config decode error: %v", err)
	}
	m, err := Build(&cfg)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return m
}

func eventOf(eventType string, payload *types.Object) *types.Event {
	return &types.Event{TraceID: "t1", EventType: eventType, Payload: payload}
}

func TestProcess_SimpleMatch(t *testing.T) {
	m := buildMatcher(t, `{
		"type":"filter","name":"root","description":"","active":true,"filter":null,
		"nodes":[{
			"type":"ruleset","name":"emails","rules":[{
				"name":"rule1","description":"","active":true,"continue":true,
				"constraint":{"WHERE":{"type":"equals","first":"${event.type}","second":"email"},"WITH":{}},
				"actions":[{"id":"notify","payload":{"msg":"hi"}}]
			}]
		}]
	}`)

	out := Process(m, eventOf("email", types.NewObject()), false)
	if out.Status != FilterMatched {
		t.Fatalf("expected root filter matched")
	}
	ruleset := out.Children[0]
	if len(ruleset.Rules) != 1 {
		t.Fatalf("expected 1 rule result")
	}
	rr := ruleset.Rules[0]
	if rr.Status != RuleMatched {
		t.Fatalf("expected rule matched, got %v", rr.Status)
	}
	if len(rr.Actions) != 1 || rr.Actions[0].ID != "notify" {
		t.Fatalf("expected notify action, got %v", rr.Actions)
	}
}

func TestProcess_FilterFalsePrunesSubtree(t *testing.T) {
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

	out := Process(m, eventOf("email", types.NewObject()), false)
	if out.Status != FilterNotMatched {
		t.Fatalf("expected root filter not matched")
	}
	ruleset := out.Children[0]
	if ruleset.Rules[0].Status != RuleNotMatched {
		t.Fatalf("expected rule not matched when ancestor filter failed, got %v", ruleset.Rules[0].Status)
	}
}

func TestProcess_DoContinueStopsRuleset(t *testing.T) {
	m := buildMatcher(t, `{
		"type":"ruleset","name":"rs","rules":[
			{"name":"r1","description":"","active":true,"continue":false,
			 "constraint":{"WHERE":null,"WITH":{}},"actions":[]},
			{"name":"r2","description":"","active":true,"continue":true,
			 "constraint":{"WHERE":null,"WITH":{}},"actions":[]}
		]
	}`)
	out := Process(m, eventOf("x", types.NewObject()), false)
	if out.Rules[0].Status != RuleMatched {
		t.Fatalf("expected r1 matched")
	}
	if out.Rules[1].Status != RuleNotProcessed {
		t.Fatalf("expected r2 not processed after do_continue=false match, got %v", out.Rules[1].Status)
	}
}

func TestProcess_PartiallyMatchedOnAbsentActionVariable(t *testing.T) {
	m := buildMatcher(t, `{
		"type":"ruleset","name":"rs","rules":[
			{"name":"r1","description":"","active":true,"continue":true,
			 "constraint":{"WHERE":null,"WITH":{}},
			 "actions":[{"id":"a","payload":{"v":"${event.payload.missing}"}}]}
		]
	}`)
	out := Process(m, eventOf("x", types.NewObject()), false)
	if out.Rules[0].Status != RulePartiallyMatched {
		t.Fatalf("expected partially matched, got %v", out.Rules[0].Status)
	}
	if len(out.Rules[0].Actions) != 0 {
		t.Fatalf("expected no actions emitted for partially matched rule")
	}
}

func TestProcess_InactiveRuleDroppedAtCompile(t *testing.T) {
	m := buildMatcher(t, `{
		"type":"ruleset","name":"rs","rules":[
			{"name":"r1","description":"","active":false,"continue":true,
			 "constraint":{"WHERE":null,"WITH":{}},"actions":[]}
		]
	}`)
	out := Process(m, eventOf("x", types.NewObject()), false)
	if len(out.Rules) != 0 {
		t.Fatalf("expected inactive rule to be dropped at compile time, got %d results", len(out.Rules))
	}
}

func TestProcess_FilterInactiveBlocksMatches(t *testing.T) {
	m := buildMatcher(t, `{
		"type":"filter","name":"root","description":"","active":false,"filter":null,
		"nodes":[{
			"type":"ruleset","name":"emails","rules":[{
				"name":"rule1","description":"","active":true,"continue":true,
				"constraint":{"WHERE":null,"WITH":{}},
				"actions":[{"id":"notify","payload":{"msg":"hi"}}]
			}]
		}]
	}`)

	out := Process(m, eventOf("email", types.NewObject()), false)
	if out.Status != FilterInactive {
		t.Fatalf("expected root filter inactive, got %v", out.Status)
	}
	ruleset := out.Children[0]
	if ruleset.Rules[0].Status != RuleNotMatched {
		t.Fatalf("expected rule not matched under inactive filter, got %v", ruleset.Rules[0].Status)
	}
}

func TestBuild_DuplicateSiblingNameRejected(t *testing.T) {
	var cfg Config
	raw := `{
		"type":"filter","name":"root","description":"","active":true,"filter":null,
		"nodes":[
			{"type":"ruleset","name":"dup","rules":[]},
			{"type":"ruleset","name":"dup","rules":[]}
		]
	}`
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if _, err := Build(&cfg); err == nil {
		t.Fatalf("expected error for duplicate sibling names")
	}
}

func TestBuild_InvalidNameRejected(t *testing.T) {
	var cfg Config
	raw := `{"type":"ruleset","name":"bad name","rules":[]}`
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if _, err := Build(&cfg); err == nil {
		t.Fatalf("expected error for invalid name")
	}
}

func TestProcess_ExtractedVariableVisibleToWhere(t *testing.T) {
	m := buildMatcher(t, `{
		"type":"ruleset","name":"rs","rules":[
			{"name":"r1","description":"","active":true,"continue":true,
			 "constraint":{
			   "WHERE":{"type":"equals","first":"${_variables.ip}","second":"10.0.0.1"},
			   "WITH":{"ip":{"from":"${event.payload.msg}","regex":{"type":"regex","pattern":"ip=([0-9.]+)","group_match_idx":1}}}
			 },
			 "actions":[]}
		]
	}`)
	payload := types.NewObject()
	payload.Set("msg", types.Str("ip=10.0.0.1"))
	out := Process(m, eventOf("x", payload), false)
	if out.Rules[0].Status != RuleMatched {
		t.Fatalf("expected rule matched via extracted variable, got %v", out.Rules[0].Status)
	}
}
