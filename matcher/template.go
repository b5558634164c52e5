package matcher

import (
	"encoding/json"

	"github.com/pithecene-io/tornado/accessor"
	"github.com/pithecene-io/tornado/types"
)

// template is a compiled ActionTemplate payload (§3.7): a Value-shaped
// tree where every String leaf carries a precompiled accessor, so
// resolution at match time never re-parses an expression string. Compound
// nodes mirror the Value shape; scalar non-string leaves carry their
// literal value directly.
type template struct {
	kind types.Kind

	str     *accessor.Accessor // KindString
	literal types.Value        // KindNull, KindBool, KindNumber
	arr     []*template        // KindArray
	objKeys []string           // KindObject, insertion order
	objVals []*template        // KindObject
}

// compileTemplate parses a JSON-encoded payload into a template tree,
// precompiling every string leaf as an accessor (literal or ${...}
// expression).
func compileTemplate(raw json.RawMessage) (*template, error) {
	var v types.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return compileTemplateValue(v)
}

func compileTemplateValue(v types.Value) (*template, error) {
	switch v.Kind() {
	case types.KindString:
		s, _ := v.AsString()
		a, err := accessor.Compile(s)
		if err != nil {
			return nil, err
		}
		return &template{kind: types.KindString, str: a}, nil
	case types.KindArray:
		arr, _ := v.AsArray()
		children := make([]*template, len(arr))
		for i, el := range arr {
			c, err := compileTemplateValue(el)
			if err != nil {
				return nil, err
			}
			children[i] = c
		}
		return &template{kind: types.KindArray, arr: children}, nil
	case types.KindObject:
		obj, _ := v.AsObject()
		keys := obj.Keys()
		vals := make([]*template, len(keys))
		for i, k := range keys {
			val, _ := obj.Get(k)
			c, err := compileTemplateValue(val)
			if err != nil {
				return nil, err
			}
			vals[i] = c
		}
		return &template{kind: types.KindObject, objKeys: keys, objVals: vals}, nil
	default:
		return &template{kind: v.Kind(), literal: v}, nil
	}
}

// resolve walks the template against event/extracted, substituting every
// String leaf's accessor with its resolved value. Returns ok=false the
// moment any accessor resolves to absent, aborting the whole template
// (§4.4: this makes the owning rule PartiallyMatched).
func (t *template) resolve(event *types.Event, extracted *types.ExtractedVars) (types.Value, bool) {
	switch t.kind {
	case types.KindString:
		return t.str.Get(event, extracted)
	case types.KindArray:
		vals := make([]types.Value, len(t.arr))
		for i, c := range t.arr {
			v, ok := c.resolve(event, extracted)
			if !ok {
				return types.Value{}, false
			}
			vals[i] = v
		}
		return types.Arr(vals...), true
	case types.KindObject:
		out := types.NewObject()
		for i, k := range t.objKeys {
			v, ok := t.objVals[i].resolve(event, extracted)
			if !ok {
				return types.Value{}, false
			}
			out.Set(k, v)
		}
		return types.Obj(out), true
	default:
		return t.literal, true
	}
}
