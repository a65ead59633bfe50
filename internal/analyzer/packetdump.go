package analyzer

import (
	"encoding/json"
	"io"

	"github.com/landaire/wows-replay-go/internal/packet"
)

// PacketDump writes every packet as one line of JSON (grounded on
// original_source's analyzer/packet_dump.rs, which serializes each
// packet with serde_json). Decode errors in an upstream stage never
// reach here — PacketDump only ever sees a successfully framed Packet.
type PacketDump struct {
	enc *json.Encoder
}

// NewPacketDump returns a PacketDump writing newline-delimited JSON to
// out.
func NewPacketDump(out io.Writer) *PacketDump {
	return &PacketDump{enc: json.NewEncoder(out)}
}

func (d *PacketDump) Process(p packet.Packet) {
	_ = d.enc.Encode(p)
}

func (d *PacketDump) Finish() {}
