// Package accessor compiles the ${...} value-expression language (§4.1)
// into a small opcode vector that is walked against an event on every
// evaluation, rather than re-parsing the source string each time (§9).
package accessor

import (
	"strconv"
	"strings"

	"github.com/pithecene-io/tornado/types"
)

// Root identifies the well-formed accessor roots understood by the
// matcher. RootUnknown covers any other root: it compiles successfully and
// always resolves to absent at runtime (§4.1: "Unknown roots yield absent
// at evaluation time; they do not fail at compile time").
type Root int

const (
	RootUnknown Root = iota
	RootEventType
	RootEventCreatedMs
	RootEventPayload
	RootEventMetadata
	RootVariables
)

type opKind int

const (
	opMap opKind = iota
	opIndex
)

type op struct {
	kind opKind
	key  string
	idx  int
}

// Accessor is a compiled ${...} expression, or a literal constant.
type Accessor struct {
	source string

	isConstant bool
	constant   types.Value

	root Root
	ops  []op
}

// Source returns the original accessor expression this Accessor was
// compiled from, for round-tripping through JSON (§6.1).
func (a *Accessor) Source() string { return a.source }

// Constant returns an Accessor that always resolves to v, regardless of the
// event passed to Get, independent of any accessor source text.
func Constant(v types.Value) *Accessor {
	return &Accessor{isConstant: true, constant: v}
}

// Compile builds an Accessor from an accessor source string. A source with
// no "${"..."}" delimiters is a literal, used verbatim as a String
// constant. Otherwise the interior path is parsed into segments per §4.1
// and compiled to an opcode vector. Returns a *types.ConfigurationError on
// any malformed segment.
func Compile(source string) (*Accessor, error) {
	trimmed := strings.TrimSpace(source)
	if !strings.HasPrefix(trimmed, "${") || !strings.HasSuffix(trimmed, "}") || len(trimmed) < 3 {
		return &Accessor{source: source, isConstant: true, constant: types.Str(source)}, nil
	}

	path := strings.TrimSpace(trimmed[2 : len(trimmed)-1])
	segs, err := splitSegments(path)
	if err != nil {
		return nil, types.NewConfigurationError("invalid accessor %q: %v", source, err)
	}
	if len(segs) == 0 {
		return nil, types.NewConfigurationError("invalid accessor %q: empty path", source)
	}

	parsed := make([]parsedSegment, len(segs))
	for i, s := range segs {
		ps, err := classifySegment(s)
		if err != nil {
			return nil, types.NewConfigurationError("invalid accessor %q: %v", source, err)
		}
		parsed[i] = ps
	}

	root, rest, err := resolveRoot(parsed)
	if err != nil {
		return nil, types.NewConfigurationError("invalid accessor %q: %v", source, err)
	}

	ops := make([]op, len(rest))
	for i, ps := range rest {
		if ps.isIndex {
			ops[i] = op{kind: opIndex, idx: ps.idx}
		} else {
			ops[i] = op{kind: opMap, key: ps.key}
		}
	}

	return &Accessor{source: source, root: root, ops: ops}, nil
}

type parsedSegment struct {
	isIndex bool
	key     string
	idx     int
}

// resolveRoot classifies the leading segment(s) against the well-formed
// roots of §4.1 and returns the remaining path segments to walk at
// runtime. Any root not matching a known prefix compiles to RootUnknown
// with the full segment list discarded (an unknown root never resolves).
func resolveRoot(segs []parsedSegment) (Root, []parsedSegment, error) {
	if len(segs) == 0 || segs[0].isIndex {
		return RootUnknown, nil, nil
	}
	switch segs[0].key {
	case "event":
		if len(segs) < 2 || segs[1].isIndex {
			return RootUnknown, nil, nil
		}
		switch segs[1].key {
		case "type":
			if len(segs) != 2 {
				return 0, nil, errUnexpectedTail("event.type")
			}
			return RootEventType, nil, nil
		case "created_ms":
			if len(segs) != 2 {
				return 0, nil, errUnexpectedTail("event.created_ms")
			}
			return RootEventCreatedMs, nil, nil
		case "payload":
			return RootEventPayload, segs[2:], nil
		case "metadata":
			return RootEventMetadata, segs[2:], nil
		default:
			return RootUnknown, nil, nil
		}
	case "_variables":
		return RootVariables, segs[1:], nil
	default:
		return RootUnknown, nil, nil
	}
}

func errUnexpectedTail(root string) error {
	return &tailError{root: root}
}

type tailError struct{ root string }

func (e *tailError) Error() string {
	return e.root + " does not accept further path segments"
}

// splitSegments splits path on top-level '.' characters, treating a
// "..."-quoted run as a single segment whose interior dots are not
// separators. A '[' inside a bare run ends that run and starts a
// "[...]" index segment, so "tags[1]" yields "tags" and "[1]".
func splitSegments(path string) ([]string, error) {
	var segs []string
	i, n := 0, len(path)
	for i < n {
		if path[i] == '"' {
			j := i + 1
			for j < n && path[j] != '"' {
				j++
			}
			if j >= n {
				return nil, errUnterminatedQuote
			}
			segs = append(segs, path[i:j+1])
			i = j + 1
			if i < n {
				if path[i] != '.' {
					return nil, errQuoteNotDelimiter
				}
				i++
			}
			continue
		}
		j := i
		for j < n && path[j] != '.' && path[j] != '[' {
			if path[j] == '"' {
				return nil, errQuoteNotDelimiter
			}
			j++
		}
		if j < n && path[j] == '[' {
			k := strings.IndexByte(path[j:], ']')
			if k < 0 {
				return nil, errBadIndex
			}
			if j > i {
				segs = append(segs, path[i:j])
			}
			segs = append(segs, path[j:j+k+1])
			i = j + k + 1
			if i < n && path[i] == '.' {
				i++
			}
			continue
		}
		segs = append(segs, path[i:j])
		i = j
		if i < n {
			i++
		}
	}
	return segs, nil
}

var (
	errUnterminatedQuote = &simpleErr{"unterminated quoted segment"}
	errQuoteNotDelimiter = &simpleErr{"double quote used other than as a matching outer delimiter"}
	errBadIndex          = &simpleErr{"array index must be a non-negative integer"}
	errEmptySegment      = &simpleErr{"empty path segment"}
)

type simpleErr struct{ msg string }

func (e *simpleErr) Error() string { return e.msg }

// classifySegment determines whether a raw segment is a quoted key, an
// array index, or a bare identifier.
func classifySegment(seg string) (parsedSegment, error) {
	switch {
	case len(seg) >= 2 && seg[0] == '"' && seg[len(seg)-1] == '"':
		return parsedSegment{key: seg[1 : len(seg)-1]}, nil
	case strings.HasPrefix(seg, "["):
		if !strings.HasSuffix(seg, "]") {
			return parsedSegment{}, errBadIndex
		}
		inner := seg[1 : len(seg)-1]
		n, err := strconv.Atoi(inner)
		if err != nil || n < 0 {
			return parsedSegment{}, errBadIndex
		}
		return parsedSegment{isIndex: true, idx: n}, nil
	case seg == "":
		return parsedSegment{}, errEmptySegment
	default:
		return parsedSegment{key: seg}, nil
	}
}

// Get walks the compiled accessor against event and the extracted
// variables, returning the resolved value and whether it was present.
// Never panics, never copies leaf values (Value is itself immutable so
// returning it by value carries no copy cost beyond the struct header).
func (a *Accessor) Get(event *types.Event, extracted *types.ExtractedVars) (types.Value, bool) {
	if a.isConstant {
		return a.constant, true
	}

	cur, ok := a.base(event, extracted)
	if !ok {
		return types.Value{}, false
	}
	for _, o := range a.ops {
		switch o.kind {
		case opMap:
			cur, ok = cur.GetFromMap(o.key)
		case opIndex:
			cur, ok = cur.GetFromArray(o.idx)
		}
		if !ok {
			return types.Value{}, false
		}
	}
	return cur, true
}

func (a *Accessor) base(event *types.Event, extracted *types.ExtractedVars) (types.Value, bool) {
	switch a.root {
	case RootEventType:
		return types.Str(event.EventType), true
	case RootEventCreatedMs:
		return types.Uint(event.CreatedMs), true
	case RootEventPayload:
		if event.Payload == nil {
			return types.Value{}, false
		}
		return types.Obj(event.Payload), true
	case RootEventMetadata:
		if event.Metadata == nil {
			return types.Value{}, false
		}
		return types.Obj(event.Metadata), true
	case RootVariables:
		return extracted.AsValue(), true
	default:
		return types.Value{}, false
	}
}
