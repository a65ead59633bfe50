// Package proppath walks and mutates nested property values addressed by
// a path of array-index and dict-key levels, the mechanism PropertyUpdate
// and NestedProperty packets use to patch part of a replicated structure
// in place (spec §3/§4.5). It operates on wirecodec.PickleValue, since
// every addressable nested structure (state.controlPoints[N], a mission's
// teamsScore) lives inside a property decoded as PICKLED.
package proppath

import (
	"errors"
	"fmt"

	"github.com/landaire/wows-replay-go/internal/wirecodec"
)

// ErrPathInvalid is returned when a path level cannot be applied to the
// value it addresses — an array index out of range, a dict key absent, or
// a level kind that doesn't match the value's shape (spec §7).
var ErrPathInvalid = errors.New("proppath: invalid path")

// LevelKind distinguishes the two ways a path can step into a value.
type LevelKind int

const (
	LevelArrayIndex LevelKind = iota
	LevelDictKey
)

// Level is one step of a property path.
type Level struct {
	Kind  LevelKind
	Index int    // ArrayIndex
	Key   string // DictKey
}

// ActionKind distinguishes the mutation a path terminates in.
type ActionKind int

const (
	ActionSetKey ActionKind = iota
	ActionSetElement
	ActionSetRange
	ActionRemoveRange
)

// Action is the terminal mutation carried by a PropertyUpdate, applied to
// the value reached by walking Path.
type Action struct {
	Kind ActionKind

	Key   string             // SetKey
	Value wirecodec.PickleValue // SetKey / SetElement

	Index int // SetElement

	Begin, End int                     // SetRange / RemoveRange
	Values     []wirecodec.PickleValue // SetRange
}

// Walk descends into root following path, returning the addressed
// sub-value. It never mutates root.
func Walk(root wirecodec.PickleValue, path []Level) (wirecodec.PickleValue, error) {
	cur := root
	for i, lvl := range path {
		next, err := step(cur, lvl)
		if err != nil {
			return wirecodec.PickleValue{}, fmt.Errorf("%w: at path level %d: %v", ErrPathInvalid, i, err)
		}
		cur = next
	}
	return cur, nil
}

func step(v wirecodec.PickleValue, lvl Level) (wirecodec.PickleValue, error) {
	switch lvl.Kind {
	case LevelArrayIndex:
		if lvl.Index < 0 || lvl.Index >= len(v.Items) {
			return wirecodec.PickleValue{}, fmt.Errorf("index %d out of range (len %d)", lvl.Index, len(v.Items))
		}
		return v.Items[lvl.Index], nil
	case LevelDictKey:
		child, ok := v.StringKey(lvl.Key)
		if !ok {
			return wirecodec.PickleValue{}, fmt.Errorf("key %q not found", lvl.Key)
		}
		return child, nil
	default:
		return wirecodec.PickleValue{}, fmt.Errorf("unknown path level kind %d", lvl.Kind)
	}
}

// Apply walks root along path and applies action, returning a new root
// value with the mutation applied. root is never mutated in place — every
// container on the path down to the mutation point is shallow-copied, so
// callers retain a valid reference to the pre-mutation value.
func Apply(root wirecodec.PickleValue, path []Level, action Action) (wirecodec.PickleValue, error) {
	if len(path) == 0 {
		return applyAction(root, action)
	}

	lvl := path[0]
	switch lvl.Kind {
	case LevelArrayIndex:
		if lvl.Index < 0 || lvl.Index >= len(root.Items) {
			return wirecodec.PickleValue{}, fmt.Errorf("%w: index %d out of range (len %d)", ErrPathInvalid, lvl.Index, len(root.Items))
		}
		out := root
		out.Items = append([]wirecodec.PickleValue(nil), root.Items...)
		child, err := Apply(out.Items[lvl.Index], path[1:], action)
		if err != nil {
			return wirecodec.PickleValue{}, err
		}
		out.Items[lvl.Index] = child
		return out, nil

	case LevelDictKey:
		idx, ok := findKey(root.DictEntries, lvl.Key)
		if !ok {
			return wirecodec.PickleValue{}, fmt.Errorf("%w: key %q not found", ErrPathInvalid, lvl.Key)
		}
		entries := append([]wirecodec.PickleEntry(nil), root.DictEntries...)
		child, err := Apply(entries[idx].Value, path[1:], action)
		if err != nil {
			return wirecodec.PickleValue{}, err
		}
		entries[idx].Value = child
		out := root
		out.DictEntries = entries
		return out, nil

	default:
		return wirecodec.PickleValue{}, fmt.Errorf("%w: unknown path level kind %d", ErrPathInvalid, lvl.Kind)
	}
}

func findKey(entries []wirecodec.PickleEntry, key string) (int, bool) {
	for i, e := range entries {
		if e.Key.Kind == wirecodec.PickleString && e.Key.String == key {
			return i, true
		}
	}
	return -1, false
}

func applyAction(v wirecodec.PickleValue, action Action) (wirecodec.PickleValue, error) {
	switch action.Kind {
	case ActionSetKey:
		entries := append([]wirecodec.PickleEntry(nil), v.DictEntries...)
		if idx, ok := findKey(entries, action.Key); ok {
			entries[idx].Value = action.Value
		} else {
			entries = append(entries, wirecodec.PickleEntry{
				Key:   wirecodec.PickleValue{Kind: wirecodec.PickleString, String: action.Key},
				Value: action.Value,
			})
		}
		out := v
		out.DictEntries = entries
		return out, nil

	case ActionSetElement:
		if action.Index < 0 || action.Index >= len(v.Items) {
			return wirecodec.PickleValue{}, fmt.Errorf("%w: SetElement index %d out of range (len %d)", ErrPathInvalid, action.Index, len(v.Items))
		}
		out := v
		out.Items = append([]wirecodec.PickleValue(nil), v.Items...)
		out.Items[action.Index] = action.Value
		return out, nil

	case ActionSetRange:
		if action.Begin < 0 || action.End > len(v.Items) || action.Begin > action.End {
			return wirecodec.PickleValue{}, fmt.Errorf("%w: SetRange [%d:%d] out of range (len %d)", ErrPathInvalid, action.Begin, action.End, len(v.Items))
		}
		out := v
		replaced := make([]wirecodec.PickleValue, 0, len(v.Items)-(action.End-action.Begin)+len(action.Values))
		replaced = append(replaced, v.Items[:action.Begin]...)
		replaced = append(replaced, action.Values...)
		replaced = append(replaced, v.Items[action.End:]...)
		out.Items = replaced
		return out, nil

	case ActionRemoveRange:
		if action.Begin < 0 || action.End > len(v.Items) || action.Begin > action.End {
			return wirecodec.PickleValue{}, fmt.Errorf("%w: RemoveRange [%d:%d] out of range (len %d)", ErrPathInvalid, action.Begin, action.End, len(v.Items))
		}
		out := v
		remaining := make([]wirecodec.PickleValue, 0, len(v.Items)-(action.End-action.Begin))
		remaining = append(remaining, v.Items[:action.Begin]...)
		remaining = append(remaining, v.Items[action.End:]...)
		out.Items = remaining
		return out, nil

	default:
		return wirecodec.PickleValue{}, fmt.Errorf("%w: unknown action kind %d", ErrPathInvalid, action.Kind)
	}
}
