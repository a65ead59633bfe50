// Package wirecodec decodes primitive and composite Values off a byte
// cursor according to a schema.TypeSpec, and implements the reverse-
// engineered pickle-like sub-protocol used for PICKLED properties.
package wirecodec

import (
	"errors"
	"fmt"

	"github.com/landaire/wows-replay-go/internal/schema"
)

// ErrShortRead is returned when a cursor runs out of bytes mid-value
// (spec §7: fatal at codec — the packet carrying it is discarded and the
// framer resyncs at the next frame boundary).
var ErrShortRead = errors.New("wirecodec: short read")

// ErrOutOfRange is returned when a TypeSpec cannot be decoded as given: a
// missing element type, an unsupported header size, or an unhandled kind.
// Reads past the end of the buffer are ErrShortRead.
var ErrOutOfRange = errors.New("wirecodec: value out of range")

// Value is a decoded wire value. Exactly one field is meaningful per Kind,
// mirroring schema.Kind (spec §3's Value variants).
type Value struct {
	Kind schema.Kind

	Int   int64
	Uint  uint64
	Float float64
	Bool  bool

	Bytes  []byte  // FixedString / String
	Str    string  // UTF16String
	Array  []Value // FixedArray / Array / Tuple
	Vec2   [2]float32
	Vec3   [3]float32
	Mail   MailboxRef
	Pickle PickleValue // Pickled
}

// MailboxRef identifies a remote entity/cell mailbox the client can send
// messages to.
type MailboxRef struct {
	EntityID  int32
	SpaceID   int32
	Kind      uint8
}

// Cursor is a forward-only read position over a decoded frame payload. It
// never copies the underlying buffer; slices it returns alias it.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for reading from the start.
func NewCursor(buf []byte) *Cursor { return &Cursor{buf: buf} }

// Remaining reports how many unread bytes are left.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, ErrShortRead
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Decode reads one Value of type t from c.
func Decode(c *Cursor, t schema.TypeSpec) (Value, error) {
	switch t.Kind {
	case schema.KindInt8:
		b, err := c.take(1)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Int: int64(int8(b[0]))}, nil
	case schema.KindUint8:
		b, err := c.take(1)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Uint: uint64(b[0])}, nil
	case schema.KindInt16:
		b, err := c.take(2)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Int: int64(int16(le16(b)))}, nil
	case schema.KindUint16:
		b, err := c.take(2)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Uint: uint64(le16(b))}, nil
	case schema.KindInt32:
		b, err := c.take(4)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Int: int64(int32(le32(b)))}, nil
	case schema.KindUint32:
		b, err := c.take(4)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Uint: uint64(le32(b))}, nil
	case schema.KindInt64:
		b, err := c.take(8)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Int: int64(le64(b))}, nil
	case schema.KindUint64:
		b, err := c.take(8)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Uint: le64(b)}, nil
	case schema.KindFloat32:
		b, err := c.take(4)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Float: float64(float32FromBits(le32(b)))}, nil
	case schema.KindFloat64:
		b, err := c.take(8)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Float: float64FromBits(le64(b))}, nil
	case schema.KindBool:
		b, err := c.take(1)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Bool: b[0] != 0}, nil
	case schema.KindFixedString:
		b, err := c.take(t.Count)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Bytes: append([]byte(nil), b...)}, nil
	case schema.KindString:
		n, err := readLength(c, t.HeaderSize)
		if err != nil {
			return Value{}, err
		}
		b, err := c.take(n)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Bytes: append([]byte(nil), b...)}, nil
	case schema.KindUTF16String:
		units, err := readLength(c, t.HeaderSize)
		if err != nil {
			return Value{}, err
		}
		b, err := c.take(units * 2)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Str: decodeUTF16LE(b)}, nil
	case schema.KindVector2:
		b, err := c.take(8)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Vec2: [2]float32{float32FromBits(le32(b[0:4])), float32FromBits(le32(b[4:8]))}}, nil
	case schema.KindVector3:
		b, err := c.take(12)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Vec3: [3]float32{
			float32FromBits(le32(b[0:4])),
			float32FromBits(le32(b[4:8])),
			float32FromBits(le32(b[8:12])),
		}}, nil
	case schema.KindMailbox:
		b, err := c.take(9)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Mail: MailboxRef{
			EntityID: int32(le32(b[0:4])),
			SpaceID:  int32(le32(b[4:8])),
			Kind:     b[8],
		}}, nil
	case schema.KindFixedArray:
		if t.Elem == nil {
			return Value{}, fmt.Errorf("%w: FIXED_ARRAY has no Elem", ErrOutOfRange)
		}
		out := make([]Value, 0, t.Count)
		for i := 0; i < t.Count; i++ {
			v, err := Decode(c, *t.Elem)
			if err != nil {
				return Value{}, err
			}
			out = append(out, v)
		}
		return Value{Kind: t.Kind, Array: out}, nil
	case schema.KindArray:
		if t.Elem == nil {
			return Value{}, fmt.Errorf("%w: ARRAY has no Elem", ErrOutOfRange)
		}
		n, err := readLength(c, t.HeaderSize)
		if err != nil {
			return Value{}, err
		}
		out := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			v, err := Decode(c, *t.Elem)
			if err != nil {
				return Value{}, err
			}
			out = append(out, v)
		}
		return Value{Kind: t.Kind, Array: out}, nil
	case schema.KindTuple:
		out := make([]Value, 0, len(t.Elems))
		for _, elemType := range t.Elems {
			v, err := Decode(c, elemType)
			if err != nil {
				return Value{}, err
			}
			out = append(out, v)
		}
		return Value{Kind: t.Kind, Array: out}, nil
	case schema.KindPickled:
		n, err := readLength(c, 4)
		if err != nil {
			return Value{}, err
		}
		raw, err := c.take(n)
		if err != nil {
			return Value{}, err
		}
		pv, err := DecodePickle(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: t.Kind, Pickle: pv}, nil
	default:
		return Value{}, fmt.Errorf("%w: unhandled kind %v", ErrOutOfRange, t.Kind)
	}
}

// readLength reads a little-endian length prefix of 1, 2, or 4 bytes.
func readLength(c *Cursor, headerSize int) (int, error) {
	switch headerSize {
	case 1:
		b, err := c.take(1)
		if err != nil {
			return 0, err
		}
		return int(b[0]), nil
	case 2:
		b, err := c.take(2)
		if err != nil {
			return 0, err
		}
		return int(le16(b)), nil
	case 4:
		b, err := c.take(4)
		if err != nil {
			return 0, err
		}
		return int(le32(b)), nil
	default:
		return 0, fmt.Errorf("%w: unsupported header size %d", ErrOutOfRange, headerSize)
	}
}
