package semantic

import (
	"testing"

	"github.com/landaire/wows-replay-go/internal/packet"
	"github.com/landaire/wows-replay-go/internal/schema"
)

const avatarSchema = `<EntityType name="Avatar">
  <Properties/>
  <ClientMethods>
    <Method name="onChatMessage">
      <Arg type="INT32"/>
      <Arg type="STRING"/>
      <Arg type="STRING"/>
    </Method>
  </ClientMethods>
  <CellMethods/>
  <BaseMethods/>
</EntityType>`

func newTestDecoder(t *testing.T) *Decoder {
	types, err := schema.Load(nil, [][]byte{[]byte(avatarSchema)})
	if err != nil {
		t.Fatalf("schema.Load: %v", err)
	}
	reg := schema.NewRegistry()
	reg.Register(schema.Build("test"), types)

	d, err := NewDecoder(reg, schema.Build("test"))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	return d
}

// TestMinimalChatScenario mirrors the spec's literal scenario 1: an
// EntityCreate for entity 1 followed by an onChatMessage(100, "battle",
// "gl hf") call decodes to a Chat event with sender_id=100,
// audience="battle", text="gl hf" (decoder.rs:1337-1437's arg order).
func TestMinimalChatScenario(t *testing.T) {
	d := newTestDecoder(t)

	createPkt := packet.Packet{Variant: packet.VariantEntityCreate, EntityCreate: packet.EntityCreate{EntityID: 1, TypeID: 0}}
	if ev, err := d.Process(createPkt); err != nil || ev != nil {
		t.Fatalf("EntityCreate: ev=%v err=%v", ev, err)
	}

	var payload []byte
	payload = append(payload, 100, 0, 0, 0) // sender_id, INT32 little-endian
	payload = append(payload, 6)            // "battle" length, 1-byte header
	payload = append(payload, []byte("battle")...)
	payload = append(payload, 5) // "gl hf" length, 1-byte header
	payload = append(payload, []byte("gl hf")...)

	methodPkt := packet.Packet{
		Clock:   12.5,
		Variant: packet.VariantEntityMethod,
		EntityMethod: packet.EntityMethod{
			EntityID:    1,
			MethodIndex: 0,
			Args:        payload,
		},
	}
	ev, err := d.Process(methodPkt)
	if err != nil {
		t.Fatalf("EntityMethod: %v", err)
	}
	if ev == nil || ev.Kind != EventChat {
		t.Fatalf("ev = %+v", ev)
	}
	if ev.Chat.SenderID != 100 || ev.Chat.Audience != "battle" || ev.Chat.Message != "gl hf" {
		t.Fatalf("Chat = %+v", ev.Chat)
	}
	if ev.Clock != 12.5 {
		t.Fatalf("Clock = %v, want 12.5", ev.Clock)
	}
}

func TestUnknownEntityMethodScenario(t *testing.T) {
	d := newTestDecoder(t)

	// No EntityCreate was ever seen for entity 42: the method call is
	// silently dropped (non-fatal, entity unknown) rather than erroring.
	ev, err := d.Process(packet.Packet{
		Variant:      packet.VariantEntityMethod,
		EntityMethod: packet.EntityMethod{EntityID: 42, MethodIndex: 0, Args: []byte{0, 0}},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if ev != nil {
		t.Fatalf("expected nil event for unknown entity, got %+v", ev)
	}
}

func TestUnknownMethodIndexScenario(t *testing.T) {
	d := newTestDecoder(t)
	d.Process(packet.Packet{Variant: packet.VariantEntityCreate, EntityCreate: packet.EntityCreate{EntityID: 1, TypeID: 0}})

	ev, err := d.Process(packet.Packet{
		Variant:      packet.VariantEntityMethod,
		EntityMethod: packet.EntityMethod{EntityID: 1, MethodIndex: 99, Args: nil},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if ev != nil {
		t.Fatalf("expected nil event for out-of-range method index, got %+v", ev)
	}
	seen := d.UnknownMethodsSeen()
	if len(seen) != 1 || seen[0] != "Avatar#99" {
		t.Fatalf("UnknownMethodsSeen() = %v", seen)
	}
}
