package packet

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func buildFrame(kind uint32, clock float32, payload []byte) []byte {
	var buf bytes.Buffer
	hdr := make([]byte, 12)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[4:8], kind)
	binary.LittleEndian.PutUint32(hdr[8:12], math.Float32bits(clock))
	buf.Write(hdr)
	buf.Write(payload)
	return buf.Bytes()
}

func TestFrame_MultipleFrames(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(buildFrame(kindEntityLeave, 1.5, []byte{1, 0, 0, 0}))
	stream.Write(buildFrame(0xDEAD, 2.5, []byte{9, 9}))

	frames, err := Frame(stream.Bytes())
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	if frames[0].Kind != kindEntityLeave || frames[0].Clock != 1.5 {
		t.Fatalf("frames[0] = %+v", frames[0])
	}

	packets := Decode(frames)
	if packets[0].Variant != VariantEntityLeave {
		t.Fatalf("Variant = %v, want EntityLeave", packets[0].Variant)
	}
	if packets[0].EntityLeave.EntityID != 1 {
		t.Fatalf("EntityID = %d, want 1", packets[0].EntityLeave.EntityID)
	}
	if packets[1].Variant != VariantUnknown {
		t.Fatalf("Variant = %v, want Unknown", packets[1].Variant)
	}
}

func TestFrame_Truncated(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(buildFrame(kindEntityLeave, 1.0, []byte{1, 0, 0, 0}))
	full := stream.Bytes()
	truncated := full[:len(full)-2]

	frames, err := Frame(truncated)
	if err != ErrTruncated {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
	if len(frames) != 0 {
		t.Fatalf("expected the truncated trailing frame to be dropped, got %d frames", len(frames))
	}
}

func TestFrame_TruncatedPreservesPriorFrames(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(buildFrame(kindEntityLeave, 1.0, []byte{1, 0, 0, 0}))
	good := stream.Bytes()
	stream.Write(buildFrame(kindEntityLeave, 2.0, []byte{2, 0, 0, 0})[:5])

	frames, err := Frame(stream.Bytes())
	if err != ErrTruncated {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
	if len(frames) != 1 {
		t.Fatalf("len(frames) = %d, want 1 (prior frames preserved)", len(frames))
	}
	if !bytes.Equal(frames[0].Payload, good[12:]) {
		t.Fatalf("first frame payload mismatch")
	}
}

func TestDecode_PropertyUpdate(t *testing.T) {
	payload := make([]byte, 4+2+3)
	binary.LittleEndian.PutUint32(payload[0:4], 11)
	binary.LittleEndian.PutUint16(payload[4:6], 2)
	payload[6], payload[7], payload[8] = 0xAA, 0xBB, 0xCC

	frames, err := Frame(buildFrame(kindPropertyUpdate, 0, payload))
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	p := Decode(frames)[0]
	if p.Variant != VariantPropertyUpdate {
		t.Fatalf("Variant = %v, want PropertyUpdate", p.Variant)
	}
	if p.PropertyUpdate.EntityID != 11 || p.PropertyUpdate.PropertyIndex != 2 {
		t.Fatalf("PropertyUpdate = %+v", p.PropertyUpdate)
	}
	if !bytes.Equal(p.PropertyUpdate.PathPayload, []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("PathPayload = %v", p.PropertyUpdate.PathPayload)
	}
}

func TestDecode_Position(t *testing.T) {
	payload := make([]byte, 4+12+12+1)
	binary.LittleEndian.PutUint32(payload[0:4], 7)
	binary.LittleEndian.PutUint32(payload[4:8], math.Float32bits(1))
	binary.LittleEndian.PutUint32(payload[8:12], math.Float32bits(2))
	binary.LittleEndian.PutUint32(payload[12:16], math.Float32bits(3))
	payload[28] = 1

	frames, err := Frame(buildFrame(kindPosition, 0, payload))
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	p := Decode(frames)[0]
	if p.Position.EntityID != 7 || p.Position.Pos.X != 1 || !p.Position.IsError {
		t.Fatalf("Position = %+v", p.Position)
	}
}
