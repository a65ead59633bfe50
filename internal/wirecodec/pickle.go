package wirecodec

import (
	"errors"
	"fmt"
)

// PickleKind enumerates the closed set of value shapes the reverse-
// engineered pickle sub-protocol can carry: integers, booleans, strings,
// tuples, lists, dicts, None, and class-tagged objects.
type PickleKind int

const (
	PickleNone PickleKind = iota
	PickleBool
	PickleInt
	PickleString
	PickleTuple
	PickleList
	PickleDict
	PickleObject
)

// PickleValue is one decoded node of a pickled object graph.
type PickleValue struct {
	Kind PickleKind

	Bool   bool
	Int    int64
	String string
	Items  []PickleValue // Tuple / List

	// DictEntries holds a dict's key/value pairs in wire order. PickleValue
	// is not comparable (it nests slices), so dict lookup is a linear
	// scan via StringKey rather than a native Go map.
	DictEntries []PickleEntry

	ClassName string
	State     *PickleValue // Object's nested state, usually a Dict
}

// PickleEntry is one key/value pair of a decoded dict, in wire order.
type PickleEntry struct {
	Key   PickleValue
	Value PickleValue
}

// StringKey looks up a dict entry whose key is a PickleString equal to
// name, the common case for Object state dicts.
func (v PickleValue) StringKey(name string) (PickleValue, bool) {
	for _, e := range v.DictEntries {
		if e.Key.Kind == PickleString && e.Key.String == name {
			return e.Value, true
		}
	}
	return PickleValue{}, false
}

// ErrPickleOpcode is returned for an unrecognized or malformed opcode
// (spec §7: fatal at codec).
var ErrPickleOpcode = errors.New("wirecodec: unrecognized pickle opcode")

// ErrPickleCycle is returned when a memoized container refers back to
// itself, directly or transitively (spec §3's Pickled invariant).
var ErrPickleCycle = errors.New("wirecodec: pickle cycle detected")

const (
	opNone     = 0x00
	opBool     = 0x01
	opInt      = 0x02
	opString   = 0x03
	opTuple    = 0x04
	opList     = 0x05
	opDict     = 0x06
	opObject   = 0x07
	opMemoGet  = 0x08
)

type pickleDecoder struct {
	cur      *Cursor
	nextMemo int
	visiting map[int]bool
}

// DecodePickle decodes one pickled value from raw bytes.
func DecodePickle(raw []byte) (PickleValue, error) {
	d := &pickleDecoder{cur: NewCursor(raw), visiting: make(map[int]bool)}
	v, err := d.decodeOne()
	if err != nil {
		return PickleValue{}, err
	}
	if d.cur.Remaining() != 0 {
		return PickleValue{}, fmt.Errorf("%w: %d trailing bytes", ErrPickleOpcode, d.cur.Remaining())
	}
	return v, nil
}

func (d *pickleDecoder) byte() (byte, error) {
	b, err := d.cur.take(1)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPickleOpcode, err)
	}
	return b[0], nil
}

func (d *pickleDecoder) length() (int, error) {
	b, err := d.cur.take(4)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPickleOpcode, err)
	}
	return int(le32(b)), nil
}

func (d *pickleDecoder) decodeOne() (PickleValue, error) {
	op, err := d.byte()
	if err != nil {
		return PickleValue{}, err
	}

	switch op {
	case opNone:
		return PickleValue{Kind: PickleNone}, nil
	case opBool:
		b, err := d.byte()
		if err != nil {
			return PickleValue{}, err
		}
		return PickleValue{Kind: PickleBool, Bool: b != 0}, nil
	case opInt:
		b, err := d.cur.take(8)
		if err != nil {
			return PickleValue{}, fmt.Errorf("%w: %v", ErrPickleOpcode, err)
		}
		return PickleValue{Kind: PickleInt, Int: int64(le64(b))}, nil
	case opString:
		n, err := d.length()
		if err != nil {
			return PickleValue{}, err
		}
		b, err := d.cur.take(n)
		if err != nil {
			return PickleValue{}, fmt.Errorf("%w: %v", ErrPickleOpcode, err)
		}
		return PickleValue{Kind: PickleString, String: string(b)}, nil
	case opTuple:
		n, err := d.length()
		if err != nil {
			return PickleValue{}, err
		}
		items := make([]PickleValue, 0, n)
		for i := 0; i < n; i++ {
			v, err := d.decodeOne()
			if err != nil {
				return PickleValue{}, err
			}
			items = append(items, v)
		}
		return PickleValue{Kind: PickleTuple, Items: items}, nil
	case opList:
		return d.decodeMemoized(func() (PickleValue, error) {
			n, err := d.length()
			if err != nil {
				return PickleValue{}, err
			}
			items := make([]PickleValue, 0, n)
			for i := 0; i < n; i++ {
				v, err := d.decodeOne()
				if err != nil {
					return PickleValue{}, err
				}
				items = append(items, v)
			}
			return PickleValue{Kind: PickleList, Items: items}, nil
		})
	case opDict:
		return d.decodeMemoized(func() (PickleValue, error) {
			n, err := d.length()
			if err != nil {
				return PickleValue{}, err
			}
			entries := make([]PickleEntry, 0, n)
			for i := 0; i < n; i++ {
				k, err := d.decodeOne()
				if err != nil {
					return PickleValue{}, err
				}
				v, err := d.decodeOne()
				if err != nil {
					return PickleValue{}, err
				}
				entries = append(entries, PickleEntry{Key: k, Value: v})
			}
			return PickleValue{Kind: PickleDict, DictEntries: entries}, nil
		})
	case opObject:
		return d.decodeMemoized(func() (PickleValue, error) {
			n, err := d.length()
			if err != nil {
				return PickleValue{}, err
			}
			nameBytes, err := d.cur.take(n)
			if err != nil {
				return PickleValue{}, fmt.Errorf("%w: %v", ErrPickleOpcode, err)
			}
			state, err := d.decodeOne()
			if err != nil {
				return PickleValue{}, err
			}
			return PickleValue{Kind: PickleObject, ClassName: string(nameBytes), State: &state}, nil
		})
	case opMemoGet:
		id, err := d.length()
		if err != nil {
			return PickleValue{}, err
		}
		if d.visiting[id] {
			return PickleValue{}, ErrPickleCycle
		}
		// A memo-get that doesn't reference a container currently being
		// decoded has no materialized value to return in this streaming
		// decoder (the real protocol only ever uses memo-get to close a
		// cycle back to an ancestor). Treat any other case as malformed.
		return PickleValue{}, fmt.Errorf("%w: memo-get %d outside an active container", ErrPickleOpcode, id)
	default:
		return PickleValue{}, fmt.Errorf("%w: 0x%02x", ErrPickleOpcode, op)
	}
}

// decodeMemoized assigns the next memo id to a mutable container before
// decoding its contents, so a nested opMemoGet referring back to this id
// is detected as a cycle rather than silently misread.
func (d *pickleDecoder) decodeMemoized(decode func() (PickleValue, error)) (PickleValue, error) {
	id := d.nextMemo
	d.nextMemo++
	d.visiting[id] = true
	defer delete(d.visiting, id)
	return decode()
}
