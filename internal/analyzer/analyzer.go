// Package analyzer fans a decoded packet stream out to independent
// consumers that each see every packet exactly once, in stream order
// (spec §4.8). Analyzers never see each other's state and the
// Multiplexer imposes no ordering beyond registration order.
package analyzer

import "github.com/landaire/wows-replay-go/internal/packet"

// Analyzer is a capability that consumes the packet stream and may hold
// state (spec §4.8, GLOSSARY). Process is called once per packet in
// strict clock order; Finish is called exactly once after the stream is
// exhausted.
type Analyzer interface {
	Process(p packet.Packet)
	Finish()
}

// Multiplexer composes N analyzers over a single packet stream. Each
// registered analyzer sees every packet; Finish runs every analyzer's
// Finish in registration order (spec §4.8).
type Multiplexer struct {
	analyzers []Analyzer
}

// NewMultiplexer returns a Multiplexer that forwards to analyzers in the
// given order.
func NewMultiplexer(analyzers ...Analyzer) *Multiplexer {
	return &Multiplexer{analyzers: analyzers}
}

// Register appends an analyzer, placing it last in both Process and
// Finish order.
func (m *Multiplexer) Register(a Analyzer) {
	m.analyzers = append(m.analyzers, a)
}

// Process forwards p to every registered analyzer, in registration order.
func (m *Multiplexer) Process(p packet.Packet) {
	for _, a := range m.analyzers {
		a.Process(p)
	}
}

// Finish calls Finish on every registered analyzer, in registration
// order.
func (m *Multiplexer) Finish() {
	for _, a := range m.analyzers {
		a.Finish()
	}
}
