package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the variant carried by a Value.
type Kind int

// Value variants per the data model: Null, Bool, Number, String, Array, Object.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// NumberKind discriminates the three numeric representations a Number may
// carry. Equality and ordering between numbers are numeric across all three,
// never kind-sensitive.
type NumberKind int

const (
	// NumberI64 is a signed 64-bit integer.
	NumberI64 NumberKind = iota
	// NumberU64 is an unsigned 64-bit integer.
	NumberU64
	// NumberF64 is an IEEE-754 double.
	NumberF64
)

// Value is a dynamically typed, JSON-shaped value: the universal currency
// of event payloads, extracted variables, and rule action templates.
//
// The zero Value is Null. Value is an immutable value type; Array and
// Object variants own their backing storage and must not be mutated by a
// caller holding only a Value returned from an accessor (see accessor
// package) — copy before mutating if a distinct value is needed.
type Value struct {
	kind    Kind
	b       bool
	numKind NumberKind
	i64     int64
	u64     uint64
	f64     float64
	str     string
	arr     []Value
	obj     *Object
}

// Null is the singular Null value.
var Null = Value{kind: KindNull}

// Bool constructs a Bool value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int constructs a signed-64-bit Number value.
func Int(i int64) Value { return Value{kind: KindNumber, numKind: NumberI64, i64: i} }

// Uint constructs an unsigned-64-bit Number value.
func Uint(u uint64) Value { return Value{kind: KindNumber, numKind: NumberU64, u64: u} }

// Float constructs a double Number value.
func Float(f float64) Value { return Value{kind: KindNumber, numKind: NumberF64, f64: f} }

// Str constructs a String value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Arr constructs an Array value from a slice of Values, copying the slice
// header but not the elements (elements are themselves immutable).
func Arr(vs ...Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindArray, arr: cp}
}

// Obj constructs an Object value from an already-built *Object.
func Obj(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant carried by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload and whether v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the string payload and whether v is a String.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsArray returns the backing slice and whether v is an Array. The returned
// slice must not be mutated.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the backing *Object and whether v is an Object. The
// returned Object must not be mutated by the caller.
func (v Value) AsObject() (*Object, bool) { return v.obj, v.kind == KindObject }

// Float64 converts any Number variant to float64. Returns (0, false) for
// non-Number values.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindNumber:
		switch v.numKind {
		case NumberI64:
			return float64(v.i64), true
		case NumberU64:
			return float64(v.u64), true
		default:
			return v.f64, true
		}
	default:
		return 0, false
	}
}

// NumberKind returns the numeric representation of a Number value. Only
// meaningful when Kind() == KindNumber.
func (v Value) NumberKind() NumberKind { return v.numKind }

// GetFromMap implements 3.1's get_from_map(key): returns the value stored
// at key in an Object, or (Value{}, false) for "absent" — including when v
// is not an Object.
func (v Value) GetFromMap(key string) (Value, bool) {
	if v.kind != KindObject || v.obj == nil {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// GetFromArray implements 3.1's get_from_array(i): returns the element at
// index i (0 <= i < len), or (Value{}, false) for "absent" — including when
// v is not an Array or i is out of range.
func (v Value) GetFromArray(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Equals implements the structural, type-sensitive equality of 3.1:
// String("1.2") != Number(1.2); numbers compare numerically across the
// three representations; arrays/objects compare elementwise/keywise.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return numbersEqual(v, other)
	case KindString:
		return v.str == other.str
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equals(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return objectsEqual(v.obj, other.obj)
	default:
		return false
	}
}

func numbersEqual(a, b Value) bool {
	// Integers compare exactly when both sides are integral; otherwise fall
	// back to float comparison. This avoids float64 precision loss for the
	// common int-vs-int case while still handling int-vs-float per 3.1
	// ("equality is numeric across the three").
	if a.numKind != NumberF64 && b.numKind != NumberF64 {
		return intsEqual(a, b)
	}
	af, _ := a.Float64()
	bf, _ := b.Float64()
	return af == bf
}

// intsEqual compares two integral Values (NumberI64/NumberU64 in any
// combination) exactly, in their native int64/uint64 representation. A
// negative signed value never equals an unsigned one.
func intsEqual(a, b Value) bool {
	switch {
	case a.numKind == NumberI64 && b.numKind == NumberI64:
		return a.i64 == b.i64
	case a.numKind == NumberU64 && b.numKind == NumberU64:
		return a.u64 == b.u64
	case a.numKind == NumberI64:
		return a.i64 >= 0 && uint64(a.i64) == b.u64
	default:
		return b.i64 >= 0 && a.u64 == uint64(b.i64)
	}
}

// intsCompare orders two integral Values exactly, without routing through
// float64 (which loses precision above 2^53).
func intsCompare(a, b Value) Ordering {
	switch {
	case a.numKind == NumberI64 && b.numKind == NumberI64:
		switch {
		case a.i64 < b.i64:
			return Less
		case a.i64 > b.i64:
			return Greater
		default:
			return EqualOrder
		}
	case a.numKind == NumberU64 && b.numKind == NumberU64:
		switch {
		case a.u64 < b.u64:
			return Less
		case a.u64 > b.u64:
			return Greater
		default:
			return EqualOrder
		}
	case a.numKind == NumberI64:
		if a.i64 < 0 {
			return Less
		}
		au := uint64(a.i64)
		switch {
		case au < b.u64:
			return Less
		case au > b.u64:
			return Greater
		default:
			return EqualOrder
		}
	default:
		if b.i64 < 0 {
			return Greater
		}
		bu := uint64(b.i64)
		switch {
		case a.u64 < bu:
			return Less
		case a.u64 > bu:
			return Greater
		default:
			return EqualOrder
		}
	}
}

func objectsEqual(a, b *Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.keys) != len(b.keys) {
		return false
	}
	for _, k := range a.keys {
		av, _ := a.Get(k)
		bv, ok := b.Get(k)
		if !ok || !av.Equals(bv) {
			return false
		}
	}
	return true
}

// Ordering is the result of a comparison: Less, Equal, Greater, or
// Incomparable (different families per 3.1).
type Ordering int

const (
	// Incomparable means the two values cannot be ordered.
	Incomparable Ordering = iota
	// Less means v < other.
	Less
	// EqualOrder means v == other under ordering.
	EqualOrder
	// Greater means v > other.
	Greater
)

// Compare implements the ordering of 3.1: defined only within compatible
// families (number<->number, string<->string lexicographic, bool<->bool
// with false < true, and elementwise over equal-length arrays). All other
// combinations, including differing-length arrays, are Incomparable.
func (v Value) Compare(other Value) Ordering {
	if v.kind != other.kind {
		return Incomparable
	}
	switch v.kind {
	case KindNumber:
		if v.numKind != NumberF64 && other.numKind != NumberF64 {
			return intsCompare(v, other)
		}
		af, _ := v.Float64()
		bf, _ := other.Float64()
		switch {
		case af < bf:
			return Less
		case af > bf:
			return Greater
		default:
			return EqualOrder
		}
	case KindString:
		switch {
		case v.str < other.str:
			return Less
		case v.str > other.str:
			return Greater
		default:
			return EqualOrder
		}
	case KindBool:
		switch {
		case v.b == other.b:
			return EqualOrder
		case !v.b && other.b:
			return Less
		default:
			return Greater
		}
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return Incomparable
		}
		for i := range v.arr {
			switch v.arr[i].Compare(other.arr[i]) {
			case Less:
				return Less
			case Greater:
				return Greater
			case Incomparable:
				return Incomparable
			}
		}
		return EqualOrder
	default:
		return Incomparable
	}
}

// Object is an ordered mapping from String to Value. Insertion order is
// preserved for stable JSON serialization per 3.1.
type Object struct {
	keys  []string
	index map[string]int
	vals  []Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Get returns the value stored at key and whether it is present.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.vals[i], true
}

// Set inserts or overwrites the value at key, preserving the original
// insertion position on overwrite.
func (o *Object) Set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.vals[i] = v
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

// Keys returns the keys in insertion order. The returned slice must not be
// mutated.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Range calls fn for each entry in insertion order, stopping early if fn
// returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		v, _ := o.Get(k)
		if !fn(k, v) {
			return
		}
	}
}

// Clone returns a shallow copy of o (values are immutable, so this is a
// deep copy for all practical purposes).
func (o *Object) Clone() *Object {
	if o == nil {
		return NewObject()
	}
	c := &Object{
		keys:  append([]string(nil), o.keys...),
		vals:  append([]Value(nil), o.vals...),
		index: make(map[string]int, len(o.index)),
	}
	for k, i := range o.index {
		c.index[k] = i
	}
	return c
}

// MarshalJSON writes the object's entries in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range o.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		v, _ := o.Get(k)
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON decodes a JSON object, preserving source key order via
// json.Decoder token scanning (encoding/json's map decoding does not
// preserve order, so the raw token stream is walked directly).
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	order, err := jsonObjectKeyOrder(data)
	if err != nil {
		return err
	}
	*o = *NewObject()
	for _, k := range order {
		var v Value
		if err := json.Unmarshal(raw[k], &v); err != nil {
			return fmt.Errorf("object key %q: %w", k, err)
		}
		o.Set(k, v)
	}
	return nil
}

// jsonObjectKeyOrder returns the top-level key order of a JSON object by
// walking its token stream.
func jsonObjectKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("types: expected JSON object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("types: expected string object key")
		}
		keys = append(keys, key)
		// Skip the value token tree.
		if err := skipJSONValue(dec); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// skipJSONValue consumes one JSON value (scalar or balanced
// array/object) from dec.
func skipJSONValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch delim {
	case '{':
		for dec.More() {
			if _, err := dec.Token(); err != nil { // key
				return err
			}
			if err := skipJSONValue(dec); err != nil {
				return err
			}
		}
		_, err := dec.Token() // closing '}'
		return err
	case '[':
		for dec.More() {
			if err := skipJSONValue(dec); err != nil {
				return err
			}
		}
		_, err := dec.Token() // closing ']'
		return err
	}
	return nil
}

// MarshalJSON renders v as standard JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindNumber:
		switch v.numKind {
		case NumberI64:
			return json.Marshal(v.i64)
		case NumberU64:
			return json.Marshal(v.u64)
		default:
			return json.Marshal(v.f64)
		}
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return v.obj.MarshalJSON()
	default:
		return nil, fmt.Errorf("types: unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON decodes JSON into v, preferring the narrowest integer
// representation for Number literals: unsigned when the literal has no
// leading '-', signed otherwise, falling back to float64 when the literal
// does not fit in 64 bits or carries a fraction/exponent.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Null
		return nil
	}
	switch trimmed[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Str(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		arr := make([]Value, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &arr[i]); err != nil {
				return err
			}
		}
		*v = Arr(arr...)
		return nil
	case '{':
		o := NewObject()
		if err := o.UnmarshalJSON(data); err != nil {
			return err
		}
		*v = Obj(o)
		return nil
	default:
		return unmarshalJSONNumber(trimmed, v)
	}
}

func unmarshalJSONNumber(trimmed string, v *Value) error {
	if !strings.ContainsAny(trimmed, ".eE") {
		if !strings.HasPrefix(trimmed, "-") {
			var u uint64
			if _, err := fmt.Sscanf(trimmed, "%d", &u); err == nil {
				*v = Uint(u)
				return nil
			}
		} else {
			var i int64
			if _, err := fmt.Sscanf(trimmed, "%d", &i); err == nil {
				*v = Int(i)
				return nil
			}
		}
	}
	var f float64
	if err := json.Unmarshal([]byte(trimmed), &f); err != nil {
		return fmt.Errorf("types: invalid number literal %q: %w", trimmed, err)
	}
	*v = Float(f)
	return nil
}

// String renders a human-readable form, primarily for error messages and
// debug logging — not a serialization format.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindNumber:
		f, _ := v.Float64()
		return fmt.Sprintf("%v", f)
	case KindString:
		return v.str
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindObject:
		keys := append([]string(nil), v.obj.Keys()...)
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			val, _ := v.obj.Get(k)
			parts[i] = fmt.Sprintf("%s:%s", k, val.String())
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return "<invalid>"
	}
}
