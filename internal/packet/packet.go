// Package packet frames the container's decompressed byte stream into
// discrete network packets and classifies each into the closed set of
// packet variants the rest of the pipeline understands (spec §3/§4.3).
package packet

import "github.com/landaire/wows-replay-go/internal/replaytypes"

// VariantKind tags which of the closed PacketVariant shapes a Packet
// carries.
type VariantKind int

const (
	VariantPosition VariantKind = iota
	VariantEntityCreate
	VariantEntityMethod
	VariantEntityProperty
	VariantPropertyUpdate
	VariantBasePlayerCreate
	VariantCellPlayerCreate
	VariantEntityControl
	VariantEntityLeave
	VariantNestedProperty
	VariantVersion
	VariantMap
	VariantPlayerOrientation
	VariantCameraMode
	VariantPlayerPosition
	VariantUnknown
)

// Frame kind tags as they appear in a packet's header (spec §6). These are
// the raw dispatch values the framer reads; they are independent of the
// schema-level method/property indices carried inside EntityMethod and
// EntityProperty payloads.
const (
	kindBasePlayerCreate  = 0x00
	kindCellPlayerCreate  = 0x01
	kindEntityControl     = 0x02
	kindEntityLeave       = 0x03
	kindEntityCreate      = 0x04
	kindEntityProperty    = 0x05
	kindEntityMethod      = 0x06
	kindPosition          = 0x08
	kindPlayerPosition    = 0x0A
	kindVersion           = 0x0C
	kindPlayerOrientation = 0x0D
	kindMap               = 0x0F
	kindCameraMode        = 0x12
	kindNestedProperty    = 0x17
	// kindPropertyUpdate has no confirmed tag anywhere in the pack (the
	// upstream file that would define it, packet2.rs, never made it into
	// original_source/); 0x19 is picked only because no other kind above
	// claims it. See DESIGN.md's Open Question entry for this.
	kindPropertyUpdate = 0x19
)

// Position is a periodic world-position update for an arbitrary entity.
type Position struct {
	EntityID int32
	Pos      replaytypes.WorldPos
	Rot      replaytypes.Rotation
	IsError  bool
}

// PlayerPosition carries the client's own, server-corrected position.
type PlayerPosition struct {
	Pos replaytypes.WorldPos
	Rot replaytypes.Rotation
}

// EntityCreate announces a new entity and its initial replicated state.
type EntityCreate struct {
	EntityID   int32
	TypeID     uint16
	Pos        replaytypes.WorldPos
	StateBytes []byte
}

// EntityMethod is an RPC call dispatched to an entity; MethodIndex is
// resolved against the entity's schema.EntityType.ClientMethods table.
type EntityMethod struct {
	EntityID    int32
	MethodIndex uint16
	Args        []byte
}

// EntityProperty is a full replace of one property's value.
type EntityProperty struct {
	EntityID      int32
	PropertyIndex uint16
	Value         []byte
}

// PropertyUpdate is a nested mutation of part of a property's value,
// addressed by a property-path payload the proppath package decodes.
type PropertyUpdate struct {
	EntityID      int32
	PropertyIndex uint16
	PathPayload   []byte
}

// BasePlayerCreate carries the player's server-side (base) entity state.
type BasePlayerCreate struct {
	EntityID   int32
	StateBytes []byte
}

// CellPlayerCreate carries the player's space-local (cell) entity state.
type CellPlayerCreate struct {
	EntityID   int32
	SpaceID    int32
	Pos        replaytypes.WorldPos
	StateBytes []byte
}

// EntityControl toggles whether the client has movement control of an
// entity (normally its own ship, or a consumable-granted proxy).
type EntityControl struct {
	EntityID     int32
	IsControlled bool
}

// EntityLeave announces an entity's removal from the client's area of
// interest — not necessarily its destruction.
type EntityLeave struct {
	EntityID int32
}

// NestedProperty is a property-path mutation addressed directly by
// property index rather than via a separate PropertyUpdate wrapper.
type NestedProperty struct {
	EntityID      int32
	PropertyIndex uint16
	PathPayload   []byte
}

// Version announces the client build string packets should be decoded
// against.
type Version struct {
	String string
}

// Map announces the space (map) the battle takes place in.
type Map struct {
	SpaceID int32
	Name    string
}

// PlayerOrientation carries the client's own camera-relative orientation.
type PlayerOrientation struct {
	EntityID int32
	Pos      replaytypes.WorldPos
	Rot      replaytypes.Rotation
}

// CameraMode announces a camera mode change (e.g. free camera, death cam).
type CameraMode struct {
	Mode uint8
}

// Unknown preserves the raw bytes of a frame whose kind has no known
// variant, so downstream consumers can still see it went by.
type Unknown struct {
	Kind    uint32
	Payload []byte
}

// Packet is one framed network packet together with its decoded variant.
type Packet struct {
	Clock   replaytypes.GameClock
	Kind    uint32
	Variant VariantKind

	Position          Position
	PlayerPosition    PlayerPosition
	EntityCreate      EntityCreate
	EntityMethod      EntityMethod
	EntityProperty    EntityProperty
	PropertyUpdate    PropertyUpdate
	BasePlayerCreate  BasePlayerCreate
	CellPlayerCreate  CellPlayerCreate
	EntityControl     EntityControl
	EntityLeave       EntityLeave
	NestedProperty    NestedProperty
	Version           Version
	Map               Map
	PlayerOrientation PlayerOrientation
	CameraMode        CameraMode
	Unknown           Unknown
}
