package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/landaire/wows-replay-go/internal/replaytypes"
)

// ErrTruncated is returned when the stream ends mid-frame. The frames
// decoded before the truncation point are still returned (spec §4.3,
// spec §7: fatal at framer but non-destructive of prior frames).
var ErrTruncated = errors.New("packet: truncated trailing frame")

// ErrUnknownHeaderSize names an invalid frame header. Frame does not
// return it: any u32 length prefix, zero included, is accepted, and one
// that runs past the end of the stream yields ErrTruncated.
var ErrUnknownHeaderSize = errors.New("packet: invalid frame header")

const frameHeaderSize = 4 + 4 + 4 // payload_size, kind, clock

// Frame splits a decompressed byte stream into raw (kind, clock, payload)
// frames without interpreting their contents. Frame returns every frame
// successfully read even when it also returns ErrTruncated for a dangling
// trailer.
func Frame(data []byte) ([]rawFrame, error) {
	var out []rawFrame
	offset := 0
	for offset < len(data) {
		if offset+frameHeaderSize > len(data) {
			return out, ErrTruncated
		}
		payloadSize := binary.LittleEndian.Uint32(data[offset : offset+4])
		kind := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		clockBits := binary.LittleEndian.Uint32(data[offset+8 : offset+12])
		clock := math.Float32frombits(clockBits)
		offset += frameHeaderSize

		if offset+int(payloadSize) > len(data) {
			return out, ErrTruncated
		}
		payload := data[offset : offset+int(payloadSize)]
		offset += int(payloadSize)

		out = append(out, rawFrame{
			Kind:    kind,
			Clock:   replaytypes.GameClock(clock),
			Payload: payload,
		})
	}
	return out, nil
}

type rawFrame struct {
	Kind    uint32
	Clock   replaytypes.GameClock
	Payload []byte
}

// Decode turns every raw frame from Frame into a classified Packet. A
// frame whose kind has no known variant becomes VariantUnknown rather
// than an error. Decode never fails: a recognized-kind payload too short
// for its variant yields that variant's zero-value fields (spec §7's
// codec-level ShortRead/OutOfRange handling applies to the semantic
// decoder, not here; the framer only classifies).
func Decode(frames []rawFrame) []Packet {
	out := make([]Packet, 0, len(frames))
	for _, f := range frames {
		out = append(out, decodeOne(f))
	}
	return out
}

func decodeOne(f rawFrame) Packet {
	p := Packet{Clock: f.Clock, Kind: f.Kind}

	switch f.Kind {
	case kindBasePlayerCreate:
		p.Variant = VariantBasePlayerCreate
		p.BasePlayerCreate = decodeBasePlayerCreate(f.Payload)
	case kindCellPlayerCreate:
		p.Variant = VariantCellPlayerCreate
		p.CellPlayerCreate = decodeCellPlayerCreate(f.Payload)
	case kindEntityControl:
		p.Variant = VariantEntityControl
		p.EntityControl = decodeEntityControl(f.Payload)
	case kindEntityLeave:
		p.Variant = VariantEntityLeave
		p.EntityLeave = decodeEntityLeave(f.Payload)
	case kindEntityCreate:
		p.Variant = VariantEntityCreate
		p.EntityCreate = decodeEntityCreate(f.Payload)
	case kindEntityProperty:
		p.Variant = VariantEntityProperty
		p.EntityProperty = decodeEntityProperty(f.Payload)
	case kindEntityMethod:
		p.Variant = VariantEntityMethod
		p.EntityMethod = decodeEntityMethod(f.Payload)
	case kindPosition:
		p.Variant = VariantPosition
		p.Position = decodePosition(f.Payload)
	case kindPlayerPosition:
		p.Variant = VariantPlayerPosition
		p.PlayerPosition = decodePlayerPosition(f.Payload)
	case kindVersion:
		p.Variant = VariantVersion
		p.Version = Version{String: string(f.Payload)}
	case kindPlayerOrientation:
		p.Variant = VariantPlayerOrientation
		p.PlayerOrientation = decodePlayerOrientation(f.Payload)
	case kindMap:
		p.Variant = VariantMap
		p.Map = decodeMap(f.Payload)
	case kindCameraMode:
		p.Variant = VariantCameraMode
		if len(f.Payload) >= 1 {
			p.CameraMode = CameraMode{Mode: f.Payload[0]}
		}
	case kindNestedProperty:
		p.Variant = VariantNestedProperty
		p.NestedProperty = decodeNestedProperty(f.Payload)
	case kindPropertyUpdate:
		p.Variant = VariantPropertyUpdate
		p.PropertyUpdate = decodePropertyUpdate(f.Payload)
	default:
		p.Variant = VariantUnknown
		p.Unknown = Unknown{Kind: f.Kind, Payload: f.Payload}
	}
	return p
}

func i32(b []byte) int32  { return int32(binary.LittleEndian.Uint32(b)) }
func u16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func f32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func worldPos(b []byte) replaytypes.WorldPos {
	return replaytypes.WorldPos{X: f32(b[0:4]), Y: f32(b[4:8]), Z: f32(b[8:12])}
}

func rotation(b []byte) replaytypes.Rotation {
	return replaytypes.Rotation{Yaw: f32(b[0:4]), Pitch: f32(b[4:8]), Roll: f32(b[8:12])}
}

func decodeEntityCreate(b []byte) EntityCreate {
	if len(b) < 4+2+12 {
		return EntityCreate{}
	}
	return EntityCreate{
		EntityID:   i32(b[0:4]),
		TypeID:     u16(b[4:6]),
		Pos:        worldPos(b[6:18]),
		StateBytes: append([]byte(nil), b[18:]...),
	}
}

func decodeEntityMethod(b []byte) EntityMethod {
	if len(b) < 4+2 {
		return EntityMethod{}
	}
	return EntityMethod{
		EntityID:    i32(b[0:4]),
		MethodIndex: u16(b[4:6]),
		Args:        append([]byte(nil), b[6:]...),
	}
}

func decodeEntityProperty(b []byte) EntityProperty {
	if len(b) < 4+2 {
		return EntityProperty{}
	}
	return EntityProperty{
		EntityID:      i32(b[0:4]),
		PropertyIndex: u16(b[4:6]),
		Value:         append([]byte(nil), b[6:]...),
	}
}

func decodeNestedProperty(b []byte) NestedProperty {
	if len(b) < 4+2 {
		return NestedProperty{}
	}
	return NestedProperty{
		EntityID:      i32(b[0:4]),
		PropertyIndex: u16(b[4:6]),
		PathPayload:   append([]byte(nil), b[6:]...),
	}
}

// decodePropertyUpdate reads the same entity/property/path-payload shape as
// decodeNestedProperty; the two wire kinds carry identical fields per
// packet.go's PropertyUpdate/NestedProperty struct definitions, they only
// arrive under different kind tags (spec §3's PacketVariant keeps them as
// two distinct closed-set variants).
func decodePropertyUpdate(b []byte) PropertyUpdate {
	if len(b) < 4+2 {
		return PropertyUpdate{}
	}
	return PropertyUpdate{
		EntityID:      i32(b[0:4]),
		PropertyIndex: u16(b[4:6]),
		PathPayload:   append([]byte(nil), b[6:]...),
	}
}

func decodeBasePlayerCreate(b []byte) BasePlayerCreate {
	if len(b) < 4 {
		return BasePlayerCreate{}
	}
	return BasePlayerCreate{EntityID: i32(b[0:4]), StateBytes: append([]byte(nil), b[4:]...)}
}

func decodeCellPlayerCreate(b []byte) CellPlayerCreate {
	if len(b) < 4+4+12 {
		return CellPlayerCreate{}
	}
	return CellPlayerCreate{
		EntityID:   i32(b[0:4]),
		SpaceID:    i32(b[4:8]),
		Pos:        worldPos(b[8:20]),
		StateBytes: append([]byte(nil), b[20:]...),
	}
}

func decodeEntityControl(b []byte) EntityControl {
	if len(b) < 4+1 {
		return EntityControl{}
	}
	return EntityControl{EntityID: i32(b[0:4]), IsControlled: b[4] != 0}
}

func decodeEntityLeave(b []byte) EntityLeave {
	if len(b) < 4 {
		return EntityLeave{}
	}
	return EntityLeave{EntityID: i32(b[0:4])}
}

func decodePosition(b []byte) Position {
	if len(b) < 4+12+12+1 {
		return Position{}
	}
	return Position{
		EntityID: i32(b[0:4]),
		Pos:      worldPos(b[4:16]),
		Rot:      rotation(b[16:28]),
		IsError:  b[28] != 0,
	}
}

func decodePlayerPosition(b []byte) PlayerPosition {
	if len(b) < 12+12 {
		return PlayerPosition{}
	}
	return PlayerPosition{Pos: worldPos(b[0:12]), Rot: rotation(b[12:24])}
}

func decodePlayerOrientation(b []byte) PlayerOrientation {
	if len(b) < 4+12+12 {
		return PlayerOrientation{}
	}
	return PlayerOrientation{
		EntityID: i32(b[0:4]),
		Pos:      worldPos(b[4:16]),
		Rot:      rotation(b[16:28]),
	}
}

func decodeMap(b []byte) Map {
	if len(b) < 4 {
		return Map{}
	}
	return Map{SpaceID: i32(b[0:4]), Name: string(b[4:])}
}

// String renders a Packet's variant name, used in test failure messages.
func (k VariantKind) String() string {
	names := [...]string{
		"Position", "EntityCreate", "EntityMethod", "EntityProperty",
		"PropertyUpdate", "BasePlayerCreate", "CellPlayerCreate",
		"EntityControl", "EntityLeave", "NestedProperty", "Version",
		"Map", "PlayerOrientation", "CameraMode", "PlayerPosition", "Unknown",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return fmt.Sprintf("VariantKind(%d)", int(k))
	}
	return names[k]
}
