package semantic

import (
	"fmt"

	"github.com/landaire/wows-replay-go/internal/packet"
	"github.com/landaire/wows-replay-go/internal/proppath"
	"github.com/landaire/wows-replay-go/internal/replaytypes"
	"github.com/landaire/wows-replay-go/internal/schema"
	"github.com/landaire/wows-replay-go/internal/wirecodec"
)

// Decoder resolves packets against one build's schema tables and produces
// semantic events. It is not safe for concurrent use — the pipeline
// processes one replay's packet stream strictly in order (spec §5).
type Decoder struct {
	types      *schema.EntityTypeTable
	typeNames  []string
	entityType map[int32]string // entityID -> type name, set at create time

	// unknownMethods de-dupes the "method index out of range" warning per
	// (type, index) pair so a chatty replay doesn't flood the log.
	unknownMethods map[string]bool
}

// NewDecoder resolves build against registry and returns a ready Decoder.
func NewDecoder(registry *schema.Registry, build schema.Build) (*Decoder, error) {
	types, err := registry.ForBuild(build)
	if err != nil {
		return nil, err
	}
	names, err := registry.TypeNames(build)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		types:          types,
		typeNames:      names,
		entityType:     make(map[int32]string),
		unknownMethods: make(map[string]bool),
	}, nil
}

// Process decodes one packet into zero or one semantic events. A nil
// Event with a nil error means the packet carries no semantic meaning of
// its own (e.g. EntityCreate, which only updates internal entity-type
// tracking) but was still accepted.
func (d *Decoder) Process(p packet.Packet) (*Event, error) {
	switch p.Variant {
	case packet.VariantEntityCreate:
		d.trackCreate(p.EntityCreate.EntityID, p.EntityCreate.TypeID)
		return nil, nil
	case packet.VariantEntityLeave:
		delete(d.entityType, p.EntityLeave.EntityID)
		return nil, nil
	case packet.VariantPosition:
		return &Event{Clock: p.Clock, Kind: EventPosition, Position: Position{
			EntityID: p.Position.EntityID, Pos: p.Position.Pos, Rot: p.Position.Rot,
		}}, nil
	case packet.VariantEntityProperty:
		return d.decodeEntityProperty(p)
	case packet.VariantPropertyUpdate:
		return d.decodePropertyMutation(p.Clock, p.PropertyUpdate.EntityID, p.PropertyUpdate.PropertyIndex, p.PropertyUpdate.PathPayload)
	case packet.VariantNestedProperty:
		return d.decodePropertyMutation(p.Clock, p.NestedProperty.EntityID, p.NestedProperty.PropertyIndex, p.NestedProperty.PathPayload)
	case packet.VariantEntityMethod:
		return d.decodeEntityMethod(p)
	default:
		return nil, nil
	}
}

func (d *Decoder) trackCreate(entityID int32, typeID uint16) {
	if int(typeID) < 0 || int(typeID) >= len(d.typeNames) {
		return
	}
	d.entityType[entityID] = d.typeNames[typeID]
}

// EntityTypeName returns the schema type name tracked for entityID since
// its last EntityCreate, if any. The pipeline uses this to classify newly
// created entities for the battle controller (spec §4.6: Vehicle |
// Building | SmokeScreen).
func (d *Decoder) EntityTypeName(entityID int32) (string, bool) {
	name, ok := d.entityType[entityID]
	return name, ok
}

func (d *Decoder) entityTypeFor(entityID int32) (*schema.EntityType, bool) {
	name, ok := d.entityType[entityID]
	if !ok {
		return nil, false
	}
	et, ok := d.types.ByName(name)
	return et, ok
}

func (d *Decoder) decodeEntityProperty(p packet.Packet) (*Event, error) {
	et, ok := d.entityTypeFor(p.EntityProperty.EntityID)
	if !ok {
		return nil, nil // unknown entity: non-fatal, the packet is dropped without a warning
	}
	prop, ok := et.PropertyByIndex(int(p.EntityProperty.PropertyIndex))
	if !ok {
		return nil, nil
	}
	v, err := wirecodec.Decode(wirecodec.NewCursor(p.EntityProperty.Value), prop.Type)
	if err != nil {
		return nil, fmt.Errorf("entity %d property %d: %w", p.EntityProperty.EntityID, p.EntityProperty.PropertyIndex, err)
	}
	return &Event{Clock: p.Clock, Kind: EventPropertyUpdate, PropertyUpdate: PropertyUpdate{
		EntityID:      p.EntityProperty.EntityID,
		PropertyIndex: p.EntityProperty.PropertyIndex,
		FullValue:     &v,
	}}, nil
}

func (d *Decoder) decodePropertyMutation(clock replaytypes.GameClock, entityID int32, propIndex uint16, pathPayload []byte) (*Event, error) {
	path, action, err := decodePathPayload(pathPayload)
	if err != nil {
		return nil, fmt.Errorf("entity %d property %d: %w", entityID, propIndex, err)
	}
	return &Event{Clock: clock, Kind: EventPropertyUpdate, PropertyUpdate: PropertyUpdate{
		EntityID:      entityID,
		PropertyIndex: propIndex,
		Path:          path,
		Action:        action,
	}}, nil
}

func (d *Decoder) decodeEntityMethod(p packet.Packet) (*Event, error) {
	et, ok := d.entityTypeFor(p.EntityMethod.EntityID)
	if !ok {
		return nil, nil
	}
	spec, ok := et.MethodByIndex(int(p.EntityMethod.MethodIndex))
	if !ok {
		d.unknownMethods[fmt.Sprintf("%s#%d", et.Name, p.EntityMethod.MethodIndex)] = true
		return nil, nil
	}

	cur := wirecodec.NewCursor(p.EntityMethod.Args)
	args := make([]wirecodec.Value, 0, len(spec.Args))
	for _, argType := range spec.Args {
		v, err := wirecodec.Decode(cur, argType)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", et.Name, spec.Name, err)
		}
		args = append(args, v)
	}

	if ev, handled := dispatchMethod(p.Clock, p.EntityMethod.EntityID, spec.Name, args); handled {
		return ev, nil
	}
	return &Event{Clock: p.Clock, Kind: EventEntityMethod, EntityMethod: EntityMethod{
		EntityID:    p.EntityMethod.EntityID,
		MethodName:  spec.Name,
		MethodIndex: p.EntityMethod.MethodIndex,
		Args:        args,
	}}, nil
}

// UnknownMethodsSeen returns the "type#index" keys of methods that had no
// schema entry, for the `survey` subcommand's coverage report and
// pipeline.Result.UnknownMethods.
func (d *Decoder) UnknownMethodsSeen() []string {
	out := make([]string, 0, len(d.unknownMethods))
	for k := range d.unknownMethods {
		out = append(out, k)
	}
	return out
}

// decodePathPayload reads a proppath.Level/Action pair from a
// PropertyUpdate/NestedProperty packet's raw path payload:
//
//	u8 levelCount
//	levelCount * (u8 kind, kind==ArrayIndex: i32 index | kind==DictKey: u8 len, len bytes key)
//	u8 actionKind
//	action-kind-specific fields, values encoded as length-prefixed pickle blobs
func decodePathPayload(b []byte) ([]proppath.Level, proppath.Action, error) {
	c := wirecodec.NewCursor(b)

	levelCount, err := readU8(c)
	if err != nil {
		return nil, proppath.Action{}, err
	}
	levels := make([]proppath.Level, 0, levelCount)
	for i := 0; i < int(levelCount); i++ {
		kind, err := readU8(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		switch kind {
		case 0:
			idx, err := readI32(c)
			if err != nil {
				return nil, proppath.Action{}, err
			}
			levels = append(levels, proppath.Level{Kind: proppath.LevelArrayIndex, Index: int(idx)})
		case 1:
			key, err := readLenString(c)
			if err != nil {
				return nil, proppath.Action{}, err
			}
			levels = append(levels, proppath.Level{Kind: proppath.LevelDictKey, Key: key})
		default:
			return nil, proppath.Action{}, fmt.Errorf("%w: unknown path level kind %d", wirecodec.ErrOutOfRange, kind)
		}
	}

	actionKind, err := readU8(c)
	if err != nil {
		return nil, proppath.Action{}, err
	}

	switch actionKind {
	case 0: // SetKey
		key, err := readLenString(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		v, err := readPickleBlob(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		return levels, proppath.Action{Kind: proppath.ActionSetKey, Key: key, Value: v}, nil
	case 1: // SetElement
		idx, err := readI32(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		v, err := readPickleBlob(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		return levels, proppath.Action{Kind: proppath.ActionSetElement, Index: int(idx), Value: v}, nil
	case 2: // SetRange
		begin, err := readI32(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		end, err := readI32(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		count, err := readU8(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		values := make([]wirecodec.PickleValue, 0, count)
		for i := 0; i < int(count); i++ {
			v, err := readPickleBlob(c)
			if err != nil {
				return nil, proppath.Action{}, err
			}
			values = append(values, v)
		}
		return levels, proppath.Action{Kind: proppath.ActionSetRange, Begin: int(begin), End: int(end), Values: values}, nil
	case 3: // RemoveRange
		begin, err := readI32(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		end, err := readI32(c)
		if err != nil {
			return nil, proppath.Action{}, err
		}
		return levels, proppath.Action{Kind: proppath.ActionRemoveRange, Begin: int(begin), End: int(end)}, nil
	default:
		return nil, proppath.Action{}, fmt.Errorf("%w: unknown action kind %d", wirecodec.ErrOutOfRange, actionKind)
	}
}

func readU8(c *wirecodec.Cursor) (uint8, error) {
	v, err := wirecodec.Decode(c, schema.TypeSpec{Kind: schema.KindUint8})
	if err != nil {
		return 0, err
	}
	return uint8(v.Uint), nil
}

func readI32(c *wirecodec.Cursor) (int32, error) {
	v, err := wirecodec.Decode(c, schema.TypeSpec{Kind: schema.KindInt32})
	if err != nil {
		return 0, err
	}
	return int32(v.Int), nil
}

func readLenString(c *wirecodec.Cursor) (string, error) {
	v, err := wirecodec.Decode(c, schema.TypeSpec{Kind: schema.KindString, HeaderSize: 1})
	if err != nil {
		return "", err
	}
	return string(v.Bytes), nil
}

func readPickleBlob(c *wirecodec.Cursor) (wirecodec.PickleValue, error) {
	v, err := wirecodec.Decode(c, schema.TypeSpec{Kind: schema.KindPickled})
	if err != nil {
		return wirecodec.PickleValue{}, err
	}
	return v.Pickle, nil
}
