// Package operator implements the closed boolean operator tree (§4.2):
// leaf predicates over two accessor-built operands, plus the And/Or/Not
// combinators. Operators are a tagged variant rather than a class
// hierarchy, so the operator set is exhaustively known at compile time and
// evaluation can never panic or fail — every leaf returns a plain bool.
package operator

import (
	"regexp"
	"strings"

	"github.com/pithecene-io/tornado/accessor"
	"github.com/pithecene-io/tornado/types"
)

// Kind enumerates the closed operator set.
type Kind int

const (
	KindEquals Kind = iota
	KindEqualsIgnoreCase
	KindNotEquals
	KindContains
	KindContainsIgnoreCase
	KindGreaterThan
	KindGreaterEqual
	KindLessThan
	KindLessEqual
	KindRegex
	KindAnd
	KindOr
	KindNot
)

// Operator is a compiled node of the tree. Exactly one operand group is
// populated depending on kind: first/second for the two-operand leaves,
// pattern+target for Regex, children for And/Or, child for Not.
type Operator struct {
	kind Kind

	first  *accessor.Accessor
	second *accessor.Accessor

	pattern *regexp.Regexp
	target  *accessor.Accessor

	children []*Operator
	child    *Operator
}

// Kind reports the operator's tag.
func (o *Operator) Kind() Kind { return o.kind }

// Evaluate walks the operator tree against one event's InternalEvent,
// returning the leaf/combinator result. Never panics, always terminates
// (§8 operator totality): an absent operand cascades to false rather than
// propagating an error.
func (o *Operator) Evaluate(ev *types.InternalEvent) bool {
	switch o.kind {
	case KindEquals:
		a, aok := o.first.Get(ev.Event, ev.Extract)
		b, bok := o.second.Get(ev.Event, ev.Extract)
		if !aok || !bok {
			return !aok && !bok
		}
		return a.Equals(b)
	case KindEqualsIgnoreCase:
		return stringCompare(o.first, o.second, ev, func(a, b string) bool {
			return strings.EqualFold(a, b)
		})
	case KindNotEquals:
		a, aok := o.first.Get(ev.Event, ev.Extract)
		b, bok := o.second.Get(ev.Event, ev.Extract)
		if !aok || !bok {
			return !(!aok && !bok)
		}
		return !a.Equals(b)
	case KindContains:
		return evalContains(o.first, o.second, ev, false)
	case KindContainsIgnoreCase:
		return evalContains(o.first, o.second, ev, true)
	case KindGreaterThan:
		return evalOrdering(o.first, o.second, ev, func(ord types.Ordering) bool { return ord == types.Greater })
	case KindGreaterEqual:
		return evalOrdering(o.first, o.second, ev, func(ord types.Ordering) bool {
			return ord == types.Greater || ord == types.EqualOrder
		})
	case KindLessThan:
		return evalOrdering(o.first, o.second, ev, func(ord types.Ordering) bool { return ord == types.Less })
	case KindLessEqual:
		return evalOrdering(o.first, o.second, ev, func(ord types.Ordering) bool {
			return ord == types.Less || ord == types.EqualOrder
		})
	case KindRegex:
		v, ok := o.target.Get(ev.Event, ev.Extract)
		if !ok {
			return false
		}
		s, isStr := v.AsString()
		if !isStr {
			return false
		}
		return o.pattern.MatchString(s)
	case KindAnd:
		for _, c := range o.children {
			if !c.Evaluate(ev) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range o.children {
			if c.Evaluate(ev) {
				return true
			}
		}
		return false
	case KindNot:
		return !o.child.Evaluate(ev)
	default:
		return false
	}
}

func stringCompare(first, second *accessor.Accessor, ev *types.InternalEvent, cmp func(a, b string) bool) bool {
	a, aok := first.Get(ev.Event, ev.Extract)
	b, bok := second.Get(ev.Event, ev.Extract)
	if !aok || !bok {
		return false
	}
	as, aIsStr := a.AsString()
	bs, bIsStr := b.AsString()
	if !aIsStr || !bIsStr {
		return false
	}
	return cmp(as, bs)
}

func evalOrdering(first, second *accessor.Accessor, ev *types.InternalEvent, test func(types.Ordering) bool) bool {
	a, aok := first.Get(ev.Event, ev.Extract)
	b, bok := second.Get(ev.Event, ev.Extract)
	if !aok || !bok {
		return false
	}
	return test(a.Compare(b))
}

// evalContains implements §4.2's contains/containsIgnoreCase: string
// substring, array element equality, or object key membership, depending
// on the resolved kind of the first (haystack) operand.
func evalContains(first, second *accessor.Accessor, ev *types.InternalEvent, ignoreCase bool) bool {
	a, aok := first.Get(ev.Event, ev.Extract)
	b, bok := second.Get(ev.Event, ev.Extract)
	if !aok || !bok {
		return false
	}

	switch a.Kind() {
	case types.KindString:
		if ignoreCase {
			bs, ok := b.AsString()
			if !ok {
				return false
			}
			as, _ := a.AsString()
			return strings.Contains(strings.ToLower(as), strings.ToLower(bs))
		}
		bs, ok := b.AsString()
		if !ok {
			return false
		}
		as, _ := a.AsString()
		return strings.Contains(as, bs)
	case types.KindArray:
		arr, _ := a.AsArray()
		for _, el := range arr {
			if ignoreCase {
				if elementContainsIgnoreCase(el, b) {
					return true
				}
				continue
			}
			if el.Equals(b) {
				return true
			}
		}
		return false
	case types.KindObject:
		obj, _ := a.AsObject()
		bs, ok := b.AsString()
		if !ok {
			return false
		}
		if ignoreCase {
			for _, k := range obj.Keys() {
				if strings.EqualFold(k, bs) {
					return true
				}
			}
			return false
		}
		_, present := obj.Get(bs)
		return present
	default:
		return false
	}
}

func elementContainsIgnoreCase(el, b types.Value) bool {
	es, eIsStr := el.AsString()
	bs, bIsStr := b.AsString()
	if eIsStr && bIsStr {
		return strings.EqualFold(es, bs)
	}
	return el.Equals(b)
}
