package wirecodec

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func u32le(n uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)
	return b
}

func pickleString(s string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(opString)
	buf.Write(u32le(uint32(len(s))))
	buf.WriteString(s)
	return buf.Bytes()
}

func pickleInt(n int64) []byte {
	var buf bytes.Buffer
	buf.WriteByte(opInt)
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(n))
	buf.Write(b)
	return buf.Bytes()
}

func TestDecodePickle_ScalarsAndContainers(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(opDict)
	buf.Write(u32le(2))
	buf.Write(pickleString("hp"))
	buf.Write(pickleInt(1200))
	buf.Write(pickleString("alive"))
	buf.WriteByte(opBool)
	buf.WriteByte(1)

	v, err := DecodePickle(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodePickle: %v", err)
	}
	if v.Kind != PickleDict {
		t.Fatalf("Kind = %v, want PickleDict", v.Kind)
	}
	hp, ok := v.StringKey("hp")
	if !ok || hp.Kind != PickleInt || hp.Int != 1200 {
		t.Fatalf("hp = %+v, ok=%v", hp, ok)
	}
	alive, ok := v.StringKey("alive")
	if !ok || alive.Kind != PickleBool || !alive.Bool {
		t.Fatalf("alive = %+v, ok=%v", alive, ok)
	}
}

func TestDecodePickle_Object(t *testing.T) {
	var state bytes.Buffer
	state.WriteByte(opDict)
	state.Write(u32le(1))
	state.Write(pickleString("name"))
	state.Write(pickleString("Shimakaze"))

	var buf bytes.Buffer
	buf.WriteByte(opObject)
	buf.Write(u32le(uint32(len("Captain"))))
	buf.WriteString("Captain")
	buf.Write(state.Bytes())

	v, err := DecodePickle(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodePickle: %v", err)
	}
	if v.Kind != PickleObject || v.ClassName != "Captain" {
		t.Fatalf("v = %+v", v)
	}
	name, ok := v.State.StringKey("name")
	if !ok || name.String != "Shimakaze" {
		t.Fatalf("name = %+v, ok=%v", name, ok)
	}
}

func TestDecodePickle_CycleDetected(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(opList)
	buf.Write(u32le(1))
	buf.WriteByte(opMemoGet)
	buf.Write(u32le(0))

	_, err := DecodePickle(buf.Bytes())
	if err != ErrPickleCycle {
		t.Fatalf("err = %v, want ErrPickleCycle", err)
	}
}

func TestDecodePickle_UnknownOpcode(t *testing.T) {
	_, err := DecodePickle([]byte{0xFF})
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestDecodePickle_TrailingBytes(t *testing.T) {
	data := append(pickleInt(1), 0x00)
	_, err := DecodePickle(data)
	if err == nil {
		t.Fatalf("expected an error for trailing bytes")
	}
}
