package analyzer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/landaire/wows-replay-go/internal/packet"
	"github.com/landaire/wows-replay-go/internal/schema"
	"github.com/landaire/wows-replay-go/internal/semantic"
	"github.com/landaire/wows-replay-go/internal/wirecodec"
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

func newTestDecoder(t *testing.T) *semantic.Decoder {
	types, err := schema.Load(nil, [][]byte{[]byte(avatarSchema)})
	if err != nil {
		t.Fatalf("schema.Load: %v", err)
	}
	reg := schema.NewRegistry()
	reg.Register(schema.Build("test"), types)

	d, err := semantic.NewDecoder(reg, schema.Build("test"))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	return d
}

type orderAnalyzer struct {
	name  string
	seen  int
	order *[]string
}

func (o *orderAnalyzer) Process(packet.Packet) { o.seen++ }
func (o *orderAnalyzer) Finish()               { *o.order = append(*o.order, o.name+".finish") }

func TestMultiplexer_FanOutAndFinishOrder(t *testing.T) {
	var order []string
	a := &orderAnalyzer{name: "a", order: &order}
	b := &orderAnalyzer{name: "b", order: &order}
	mux := NewMultiplexer(a, b)

	mux.Process(packet.Packet{})
	mux.Process(packet.Packet{})
	mux.Finish()

	if a.seen != 2 || b.seen != 2 {
		t.Fatalf("seen = a:%d b:%d, want 2 each", a.seen, b.seen)
	}
	if want, got := "a.finish,b.finish", strings.Join(order, ","); got != want {
		t.Fatalf("finish order = %q, want %q", got, want)
	}
}

func strPickle(s string) wirecodec.PickleValue {
	return wirecodec.PickleValue{Kind: wirecodec.PickleString, String: s}
}

func intPickle(n int64) wirecodec.PickleValue {
	return wirecodec.PickleValue{Kind: wirecodec.PickleInt, Int: n}
}

func TestChatLogger_ResolvesUsernameFromRoster(t *testing.T) {
	decoder := newTestDecoder(t)
	var buf bytes.Buffer
	logger := NewChatLogger(decoder, &buf)

	roster := wirecodec.PickleValue{Kind: wirecodec.PickleList, Items: []wirecodec.PickleValue{
		{Kind: wirecodec.PickleDict, DictEntries: []wirecodec.PickleEntry{
			{Key: strPickle("name"), Value: strPickle("Bismarck_Fan")},
			{Key: strPickle("avatarId"), Value: intPickle(1)},
		}},
	}}
	logger.trackRoster(semantic.ArenaStateReceived{Raw: roster})

	logger.Process(packet.Packet{Variant: packet.VariantEntityCreate, EntityCreate: packet.EntityCreate{EntityID: 1, TypeID: 0}})

	var payload []byte
	payload = append(payload, 1, 0, 0, 0) // sender_id, INT32 little-endian
	payload = append(payload, 6)          // "battle" length, 1-byte header
	payload = append(payload, []byte("battle")...)
	payload = append(payload, 2) // "gl" length, 1-byte header
	payload = append(payload, []byte("gl")...)
	logger.Process(packet.Packet{
		Clock:        1,
		Variant:      packet.VariantEntityMethod,
		EntityMethod: packet.EntityMethod{EntityID: 1, MethodIndex: 0, Args: payload},
	})

	if !strings.Contains(buf.String(), "Bismarck_Fan") {
		t.Fatalf("output = %q, want it to contain the resolved username", buf.String())
	}
}

func TestChatLogger_UnresolvedSenderFallsBackToPlaceholder(t *testing.T) {
	decoder := newTestDecoder(t)
	var buf bytes.Buffer
	logger := NewChatLogger(decoder, &buf)

	logger.Process(packet.Packet{Variant: packet.VariantEntityCreate, EntityCreate: packet.EntityCreate{EntityID: 1, TypeID: 0}})
	var payload []byte
	payload = append(payload, 1, 0, 0, 0) // sender_id, INT32 little-endian
	payload = append(payload, 6)          // "battle" length, 1-byte header
	payload = append(payload, []byte("battle")...)
	payload = append(payload, 2) // "gl" length, 1-byte header
	payload = append(payload, []byte("gl")...)
	logger.Process(packet.Packet{
		Clock:        1,
		Variant:      packet.VariantEntityMethod,
		EntityMethod: packet.EntityMethod{EntityID: 1, MethodIndex: 0, Args: payload},
	})

	if !strings.Contains(buf.String(), "<UNKNOWN_USERNAME>") {
		t.Fatalf("output = %q, want the unresolved placeholder", buf.String())
	}
}

func TestPacketDump_WritesOneJSONLinePerPacket(t *testing.T) {
	var buf bytes.Buffer
	dump := NewPacketDump(&buf)
	dump.Process(packet.Packet{Variant: packet.VariantEntityLeave, EntityLeave: packet.EntityLeave{EntityID: 5}})
	dump.Process(packet.Packet{Variant: packet.VariantEntityLeave, EntityLeave: packet.EntityLeave{EntityID: 6}})
	dump.Finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
}

func TestSurvey_CountsUnknownAndDecodeErrors(t *testing.T) {
	decoder := newTestDecoder(t)
	s := NewSurvey(decoder)

	s.Process(packet.Packet{Variant: packet.VariantUnknown})
	s.Process(packet.Packet{Variant: packet.VariantEntityCreate, EntityCreate: packet.EntityCreate{EntityID: 1, TypeID: 0}})
	// Method index 99 has no schema entry: non-fatal, tracked as an
	// unknown method rather than a decode error.
	s.Process(packet.Packet{Variant: packet.VariantEntityMethod, EntityMethod: packet.EntityMethod{EntityID: 1, MethodIndex: 99}})

	stats, unknownMethods := s.Stats()
	if stats.TotalPackets != 3 || stats.UnknownPackets != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(unknownMethods) != 1 || unknownMethods[0] != "Avatar#99" {
		t.Fatalf("unknownMethods = %v", unknownMethods)
	}
}
