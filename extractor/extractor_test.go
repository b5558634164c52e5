package extractor

import (
	"encoding/json"
	"testing"

	"github.com/pithecene-io/tornado/types"
)

func buildExtractor(t *testing.T, name, raw string) *Extractor {
	t.Helper()
	ex, err := Build(name, json.RawMessage(raw), "root")
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return ex
}

func eventWith(key string, v types.Value) *types.Event {
	payload := types.NewObject()
	payload.Set(key, v)
	return &types.Event{EventType: "test", Payload: payload}
}

func TestExtract_RegexSingleGroup(t *testing.T) {
	ex := buildExtractor(t, "ip", `{
		"from": "${event.payload.msg}",
		"regex": {"type":"regex","pattern":"ip=([0-9.]+)","group_match_idx":1}
	}`)
	ev := eventWith("msg", types.Str("request ip=10.0.0.1 done"))
	v, ok := ex.Extract(ev, types.NewExtractedVars())
	s, _ := v.AsString()
	if !ok || s != "10.0.0.1" {
		t.Fatalf("expected extracted ip, got %v ok=%v", v, ok)
	}
}

func TestExtract_RegexNoMatchIsAbsent(t *testing.T) {
	ex := buildExtractor(t, "ip", `{
		"from": "${event.payload.msg}",
		"regex": {"type":"regex","pattern":"ip=([0-9.]+)","group_match_idx":1}
	}`)
	ev := eventWith("msg", types.Str("no match here"))
	_, ok := ex.Extract(ev, types.NewExtractedVars())
	if ok {
		t.Fatalf("expected absent on no match")
	}
}

func TestExtract_RegexAllMatches(t *testing.T) {
	ex := buildExtractor(t, "nums", `{
		"from": "${event.payload.msg}",
		"regex": {"type":"regex","pattern":"[0-9]+","all_matches":true}
	}`)
	ev := eventWith("msg", types.Str("a1 b22 c333"))
	v, ok := ex.Extract(ev, types.NewExtractedVars())
	if !ok {
		t.Fatalf("expected match")
	}
	arr, _ := v.AsArray()
	if len(arr) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(arr))
	}
}

func TestExtract_NamedGroups(t *testing.T) {
	ex := buildExtractor(t, "fields", `{
		"from": "${event.payload.msg}",
		"regex": {"type":"namedGroups","pattern":"user=(?P<user>\\w+) host=(?P<host>\\w+)"}
	}`)
	ev := eventWith("msg", types.Str("user=alice host=web1"))
	v, ok := ex.Extract(ev, types.NewExtractedVars())
	if !ok {
		t.Fatalf("expected match")
	}
	obj, _ := v.AsObject()
	user, _ := obj.Get("user")
	us, _ := user.AsString()
	if us != "alice" {
		t.Fatalf("expected user=alice, got %v", user)
	}
}

func TestExtract_SingleKeyMap(t *testing.T) {
	ex := buildExtractor(t, "headers", `{
		"from": "${event.payload.headers}",
		"regex": {"type":"singleKeyMap","pattern":"^x_"}
	}`)
	headers := types.NewObject()
	headers.Set("x_trace", types.Str("abc"))
	headers.Set("content_type", types.Str("json"))
	ev := eventWith("headers", types.Obj(headers))
	v, ok := ex.Extract(ev, types.NewExtractedVars())
	if !ok {
		t.Fatalf("expected match")
	}
	obj, _ := v.AsObject()
	if obj.Len() != 1 {
		t.Fatalf("expected single matching key, got %d", obj.Len())
	}
	if _, present := obj.Get("x_trace"); !present {
		t.Fatalf("expected x_trace present")
	}
}

func TestExtract_ModifiersLowercaseTrim(t *testing.T) {
	ex := buildExtractor(t, "name", `{
		"from": "${event.payload.name}",
		"regex": {"type":"regex","pattern":"^(.*)$","group_match_idx":1},
		"modifiers_post": [{"type":"trim"},{"type":"lowercase"}]
	}`)
	ev := eventWith("name", types.Str("  BOB  "))
	v, ok := ex.Extract(ev, types.NewExtractedVars())
	s, _ := v.AsString()
	if !ok || s != "bob" {
		t.Fatalf("expected trimmed lowercase, got %q ok=%v", s, ok)
	}
}

func TestExtract_ModifierToNumberFailure(t *testing.T) {
	ex := buildExtractor(t, "n", `{
		"from": "${event.payload.n}",
		"regex": {"type":"regex","pattern":"^(.*)$","group_match_idx":1},
		"modifiers_post": [{"type":"toNumber"}]
	}`)
	ev := eventWith("n", types.Str("not-a-number"))
	_, ok := ex.Extract(ev, types.NewExtractedVars())
	if ok {
		t.Fatalf("expected toNumber failure to make extraction absent")
	}
}

func TestExtract_ModifierMapWithDefault(t *testing.T) {
	ex := buildExtractor(t, "severity", `{
		"from": "${event.payload.level}",
		"regex": {"type":"regex","pattern":"^(.*)$","group_match_idx":1},
		"modifiers_post": [{"type":"map","mapping":{"err":"high"},"default_value":"low"}]
	}`)
	ev := eventWith("level", types.Str("err"))
	v, ok := ex.Extract(ev, types.NewExtractedVars())
	s, _ := v.AsString()
	if !ok || s != "high" {
		t.Fatalf("expected mapped value, got %q ok=%v", s, ok)
	}

	ev2 := eventWith("level", types.Str("unknown"))
	v2, ok2 := ex.Extract(ev2, types.NewExtractedVars())
	s2, _ := v2.AsString()
	if !ok2 || s2 != "low" {
		t.Fatalf("expected default value, got %q ok=%v", s2, ok2)
	}
}

func TestExtract_AbsentSourceIsAbsent(t *testing.T) {
	ex := buildExtractor(t, "x", `{
		"from": "${event.payload.missing}",
		"regex": {"type":"regex","pattern":"(.*)","group_match_idx":1}
	}`)
	_, ok := ex.Extract(eventWith("other", types.Str("v")), types.NewExtractedVars())
	if ok {
		t.Fatalf("expected absent source to yield absent extraction")
	}
}
