// Package extractor implements the named post-processing stage attached to
// a rule's "with" map (§4.3): pull a value out of the event via an
// accessor, run it through a regex/named-groups/single-key-map extraction,
// then apply an ordered chain of modifiers.
package extractor

import (
	"regexp"

	"github.com/pithecene-io/tornado/accessor"
	"github.com/pithecene-io/tornado/types"
)

// Kind discriminates the three extraction strategies of §4.3.
type Kind int

const (
	KindRegex Kind = iota
	KindNamedGroups
	KindSingleKeyMap
)

// Extractor is a compiled `name -> Extractor` entry from a rule's `with`
// map.
type Extractor struct {
	Name string

	from *accessor.Accessor

	kind          Kind
	pattern       *regexp.Regexp
	groupMatchIdx int
	allMatches    bool

	modifiers []Modifier
}

// Extract resolves the extractor's source value from the event, applies
// the regex/named-groups/single-key-map rule, then runs the modifier
// chain in order. Returns the resolved value and whether extraction
// succeeded; a failed extraction (missing match, unparseable toNumber,
// absent source) leaves the variable unset rather than erroring — the
// matcher surfaces this as the rule's variable being absent (§4.3, §7).
func (e *Extractor) Extract(event *types.Event, extracted *types.ExtractedVars) (types.Value, bool) {
	src, ok := e.from.Get(event, extracted)
	if !ok {
		return types.Value{}, false
	}

	var out types.Value
	switch e.kind {
	case KindRegex:
		out, ok = e.extractRegex(src)
	case KindNamedGroups:
		out, ok = e.extractNamedGroups(src)
	case KindSingleKeyMap:
		out, ok = e.extractSingleKeyMap(src)
	}
	if !ok {
		return types.Value{}, false
	}

	for _, m := range e.modifiers {
		out, ok = m.Apply(out)
		if !ok {
			return types.Value{}, false
		}
	}
	return out, true
}

func sourceString(v types.Value) (string, bool) {
	return v.AsString()
}

func (e *Extractor) extractRegex(src types.Value) (types.Value, bool) {
	s, ok := sourceString(src)
	if !ok {
		return types.Value{}, false
	}

	if e.allMatches {
		matches := e.pattern.FindAllStringSubmatch(s, -1)
		if matches == nil {
			return types.Value{}, false
		}
		vals := make([]types.Value, 0, len(matches))
		for _, m := range matches {
			if e.groupMatchIdx >= len(m) {
				continue
			}
			vals = append(vals, types.Str(m[e.groupMatchIdx]))
		}
		if len(vals) == 0 {
			return types.Value{}, false
		}
		return types.Arr(vals...), true
	}

	m := e.pattern.FindStringSubmatch(s)
	if m == nil || e.groupMatchIdx >= len(m) {
		return types.Value{}, false
	}
	return types.Str(m[e.groupMatchIdx]), true
}

func (e *Extractor) extractNamedGroups(src types.Value) (types.Value, bool) {
	s, ok := sourceString(src)
	if !ok {
		return types.Value{}, false
	}
	names := e.pattern.SubexpNames()

	buildObject := func(m []string) *types.Object {
		o := types.NewObject()
		for i, name := range names {
			if i == 0 || name == "" {
				continue
			}
			o.Set(name, types.Str(m[i]))
		}
		return o
	}

	if e.allMatches {
		matches := e.pattern.FindAllStringSubmatch(s, -1)
		if matches == nil {
			return types.Value{}, false
		}
		vals := make([]types.Value, 0, len(matches))
		for _, m := range matches {
			vals = append(vals, types.Obj(buildObject(m)))
		}
		return types.Arr(vals...), true
	}

	m := e.pattern.FindStringSubmatch(s)
	if m == nil {
		return types.Value{}, false
	}
	return types.Obj(buildObject(m)), true
}

func (e *Extractor) extractSingleKeyMap(src types.Value) (types.Value, bool) {
	obj, ok := src.AsObject()
	if !ok {
		return types.Value{}, false
	}
	out := types.NewObject()
	obj.Range(func(key string, v types.Value) bool {
		if e.pattern.MatchString(key) {
			out.Set(key, v)
		}
		return true
	})
	return types.Obj(out), true
}
