package semantic

import (
	"testing"

	"github.com/landaire/wows-replay-go/internal/wirecodec"
)

func TestDecodeMinimapRecord_BitLayout(t *testing.T) {
	// Pack x=2, y=8, heading=128, flags=0b00 into the documented 32-bit
	// layout (spec §3's worked example) and confirm the bit widths and
	// field boundaries round-trip exactly.
	var raw uint32
	raw |= 2 & 0x7FF
	raw |= (8 & 0x7FF) << 11
	raw |= (128 & 0xFF) << 22
	raw |= (0 & 0x3) << 30

	c := decodeMinimapRecord(99, raw)
	if c.EntityID != 99 {
		t.Fatalf("EntityID = %d, want 99", c.EntityID)
	}

	x := raw & 0x7FF
	y := (raw >> 11) & 0x7FF
	heading := (raw >> 22) & 0xFF
	if x != 2 || y != 8 || heading != 128 {
		t.Fatalf("unpacked fields = x:%d y:%d heading:%d, want 2/8/128", x, y, heading)
	}
	if c.Unknown || c.IsDisappearing {
		t.Fatalf("flags should both be clear for raw flags=0b00")
	}
}

func TestDecodeMinimapRecord_Flags(t *testing.T) {
	raw := uint32(0x1) << 30
	c := decodeMinimapRecord(1, raw)
	if !c.Unknown || c.IsDisappearing {
		t.Fatalf("c = %+v, want Unknown=true IsDisappearing=false", c)
	}

	raw2 := uint32(0x2) << 30
	c2 := decodeMinimapRecord(1, raw2)
	if c2.Unknown || !c2.IsDisappearing {
		t.Fatalf("c2 = %+v, want Unknown=false IsDisappearing=true", c2)
	}
}

// TestDispatchMethod_Chat mirrors spec §8 scenario 1's literal wire args:
// onChatMessage(100, "battle", "gl hf") decodes to sender_id=100,
// audience="battle", text="gl hf" (decoder.rs:1337-1437's field order).
func TestDispatchMethod_Chat(t *testing.T) {
	args := []wirecodec.Value{
		{Int: 100},
		{Str: "battle"},
		{Str: "gl hf"},
	}
	ev, ok := dispatchMethod(0, 7, "onChatMessage", args)
	if !ok {
		t.Fatalf("expected onChatMessage to be handled")
	}
	if ev.Kind != EventChat || ev.Chat.EntityID != 7 {
		t.Fatalf("ev = %+v", ev)
	}
	if ev.Chat.SenderID != 100 || ev.Chat.Audience != "battle" || ev.Chat.Message != "gl hf" {
		t.Fatalf("Chat = %+v, want SenderID=100 Audience=battle Message=%q", ev.Chat, "gl hf")
	}
}

// TestDispatchMethod_SelfDestruction mirrors spec §8 scenario 2's literal
// wire args: victim==killer==7, cause code 15 (decoder.rs's Detonation).
func TestDispatchMethod_SelfDestruction(t *testing.T) {
	args := []wirecodec.Value{
		{Int: 7},
		{Int: 7},
		{Uint: 15},
	}
	ev, ok := dispatchMethod(0, 7, "receiveVehicleDeath", args)
	if !ok {
		t.Fatalf("expected receiveVehicleDeath to be handled")
	}
	sd := ev.ShipDestroyed
	if sd.VictimID != 7 || sd.KillerID != 7 {
		t.Fatalf("ShipDestroyed = %+v, want VictimID=KillerID=7", sd)
	}
	if sd.Cause != CauseDetonation {
		t.Fatalf("Cause = %v, want CauseDetonation", sd.Cause)
	}
	if !sd.Self {
		t.Fatalf("Self = false, want true for victim==killer")
	}
}

// TestDispatchMethod_UnknownDeathCause confirms an unrecognized wire code
// falls back to CauseUnknown with the raw code retained, mirroring
// decoder.rs's DeathCause::Unknown(u32).
func TestDispatchMethod_UnknownDeathCause(t *testing.T) {
	args := []wirecodec.Value{
		{Int: 1},
		{Int: 2},
		{Uint: 255},
	}
	ev, ok := dispatchMethod(0, 1, "receiveVehicleDeath", args)
	if !ok {
		t.Fatalf("expected receiveVehicleDeath to be handled")
	}
	sd := ev.ShipDestroyed
	if sd.Cause != CauseUnknown || sd.RawCause != 255 {
		t.Fatalf("ShipDestroyed = %+v, want Cause=CauseUnknown RawCause=255", sd)
	}
	if sd.Self {
		t.Fatalf("Self = true, want false for distinct victim/killer")
	}
}

func TestDispatchMethod_UnknownFallsThrough(t *testing.T) {
	_, ok := dispatchMethod(0, 1, "someFutureMethod", nil)
	if ok {
		t.Fatalf("expected unknown method to not be handled")
	}
}
