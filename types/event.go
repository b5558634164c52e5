package types

import "encoding/json"

// Event is the immutable record produced by a collector and consumed by the
// matcher (3.2). Once constructed it must never be mutated; InternalEvent
// wraps it with the per-rule-evaluation extracted-variables slot instead of
// mutating the Event itself.
type Event struct {
	TraceID   string  `json:"trace_id"`
	CreatedMs uint64  `json:"created_ms"`
	EventType string  `json:"event_type"`
	Payload   *Object `json:"payload"`
	Metadata  *Object `json:"metadata,omitempty"`
}

// MarshalJSON renders payload/metadata with the ordered-Object encoding.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	payload := e.Payload
	if payload == nil {
		payload = NewObject()
	}
	a := alias(e)
	a.Payload = payload
	return json.Marshal(a)
}

// InternalEvent is the read view the matcher passes to operators during one
// rule evaluation (3.3): the underlying Event plus a mutable slot for
// extracted variables. Its lifetime is exactly one rule evaluation; it must
// never be shared across events or retained past that evaluation.
type InternalEvent struct {
	Event   *Event
	Extract *ExtractedVars
}

// NewInternalEvent builds an InternalEvent over ev with an empty extracted
// variable set.
func NewInternalEvent(ev *Event) *InternalEvent {
	return &InternalEvent{Event: ev, Extract: NewExtractedVars()}
}

// ExtractedVars is an Object keyed by extractor name, populated by the
// Extractor component before a rule's WHERE operator runs (3.5). Its
// lifetime is one event's journey through one ruleset.
type ExtractedVars struct {
	obj *Object
}

// NewExtractedVars returns an empty ExtractedVars.
func NewExtractedVars() *ExtractedVars {
	return &ExtractedVars{obj: NewObject()}
}

// Set records the value extracted for name. A name never set is "absent",
// distinct from an explicitly-Null value.
func (ev *ExtractedVars) Set(name string, v Value) {
	ev.obj.Set(name, v)
}

// Get returns the value extracted for name and whether it was set.
func (ev *ExtractedVars) Get(name string) (Value, bool) {
	if ev == nil || ev.obj == nil {
		return Value{}, false
	}
	return ev.obj.Get(name)
}

// AsValue exposes the extracted variables as an Object Value, for the
// `_variables` accessor root and for inclusion in processed output.
func (ev *ExtractedVars) AsValue() Value {
	if ev == nil || ev.obj == nil {
		return Obj(NewObject())
	}
	return Obj(ev.obj)
}

// Action is a side-effect request produced by a matched rule's action
// template after expression resolution, consumed by the dispatcher (3.4).
type Action struct {
	ID      string  `json:"id"`
	Payload Value   `json:"payload"`
	TraceID *string `json:"trace_id,omitempty"`
}
