// Package schema loads versioned entity-definition documents and produces,
// for each supported build, per-entity-type method and property tables
// indexed the way the wire format addresses them: by declaration position,
// never by name.
package schema

import "fmt"

// Kind enumerates the primitive and composite wire types a TypeSpec can
// describe (spec §3's Value variants, spec §4.2's composite resolution).
type Kind int

const (
	KindInt8 Kind = iota
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindFixedArray  // fixed-length array of Elem, length Count
	KindArray       // variable-length array of Elem, length prefix HeaderSize bytes
	KindTuple       // fixed heterogeneous sequence, Elems
	KindFixedString // fixed-length byte string, length Count
	KindString      // variable-length byte string, length prefix HeaderSize bytes
	KindUTF16String // variable-length UTF-16 string, length prefix HeaderSize code units
	KindVector2
	KindVector3
	KindMailbox
	KindPickled // opaque serialized object graph, decoded by the pickle sub-decoder
)

func (k Kind) String() string {
	switch k {
	case KindInt8:
		return "INT8"
	case KindInt16:
		return "INT16"
	case KindInt32:
		return "INT32"
	case KindInt64:
		return "INT64"
	case KindUint8:
		return "UINT8"
	case KindUint16:
		return "UINT16"
	case KindUint32:
		return "UINT32"
	case KindUint64:
		return "UINT64"
	case KindFloat32:
		return "FLOAT32"
	case KindFloat64:
		return "FLOAT64"
	case KindBool:
		return "BOOL"
	case KindFixedArray:
		return "FIXED_ARRAY"
	case KindArray:
		return "ARRAY"
	case KindTuple:
		return "TUPLE"
	case KindFixedString:
		return "FIXED_STRING"
	case KindString:
		return "STRING"
	case KindUTF16String:
		return "UTF16_STRING"
	case KindVector2:
		return "VECTOR2"
	case KindVector3:
		return "VECTOR3"
	case KindMailbox:
		return "MAILBOX"
	case KindPickled:
		return "PICKLED"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TypeSpec describes how to read one Value off the wire.
type TypeSpec struct {
	Kind       Kind
	HeaderSize int        // ARRAY / STRING / UTF16_STRING: 1 or 2
	Count      int        // FIXED_ARRAY / FIXED_STRING: element/byte count
	Elem       *TypeSpec  // FIXED_ARRAY / ARRAY: element type
	Elems      []TypeSpec // TUPLE: element types in order
}

// MethodSpec is one RPC method: its argument types in declaration order.
// The method's wire index is its position in the owning entity's method
// list, never its name.
type MethodSpec struct {
	Name string
	Args []TypeSpec
}

// PropertySpec is one property: its name and type. Whether it is
// replicated or ephemeral is not recorded here.
type PropertySpec struct {
	Name string
	Type TypeSpec
}

// EntityType is the per-build table for one entity type: client/cell/base
// method lists and the property list, all indexed by declaration position.
type EntityType struct {
	Name           string
	ClientMethods  []MethodSpec
	CellMethods    []MethodSpec
	BaseMethods    []MethodSpec
	Properties     []PropertySpec
	TempProperties []PropertySpec
}

// EntityTypeTable holds one build's EntityType definitions in the order
// they were declared/supplied, since EntityCreate's wire TypeID indexes
// entity types by declaration position, never by name (spec §4.2) — the
// same convention a type's own method and property lists use internally.
// Nothing in spec.md or the pack says schema-file declaration order
// matches alphabetical name order, so this table preserves whatever order
// Load's caller handed it rather than re-sorting.
type EntityTypeTable struct {
	names  []string
	byName map[string]*EntityType
}

func newEntityTypeTable() *EntityTypeTable {
	return &EntityTypeTable{byName: make(map[string]*EntityType)}
}

// add appends et, or replaces an existing entry of the same name in place
// without disturbing its original position.
func (t *EntityTypeTable) add(et *EntityType) {
	if _, exists := t.byName[et.Name]; !exists {
		t.names = append(t.names, et.Name)
	}
	t.byName[et.Name] = et
}

// ByName looks up one entity type, ok=false if it was never added.
func (t *EntityTypeTable) ByName(name string) (*EntityType, bool) {
	et, ok := t.byName[name]
	return et, ok
}

// Names returns the entity type names in declaration order — the order
// EntityCreate's TypeID addresses them by.
func (t *EntityTypeTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Len reports how many entity types the table holds.
func (t *EntityTypeTable) Len() int { return len(t.names) }

// MethodByIndex returns the ClientMethods entry at idx, or ok=false if idx
// is out of range — the semantic decoder treats this as a non-fatal
// "unknown method" (spec §7's programmer-error case).
func (e *EntityType) MethodByIndex(idx int) (MethodSpec, bool) {
	if idx < 0 || idx >= len(e.ClientMethods) {
		return MethodSpec{}, false
	}
	return e.ClientMethods[idx], true
}

// PropertyByIndex returns the Properties entry at idx, or ok=false if out
// of range.
func (e *EntityType) PropertyByIndex(idx int) (PropertySpec, bool) {
	if idx < 0 || idx >= len(e.Properties) {
		return PropertySpec{}, false
	}
	return e.Properties[idx], true
}
